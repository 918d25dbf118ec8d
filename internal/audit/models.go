// Package audit records what happened around clock events: session
// lifecycle, punch records, and approval decisions. Events are append-only.
package audit

import (
	"time"

	id "timeclock/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	UserID    id.UserID
	// Subject is the entity the action applies to (session, record, or
	// approval id as a string).
	Subject string
	Action  Action
	// Outcome carries the result where the action has one, e.g. an approval
	// decision or a terminal session state.
	Outcome   string
	Reason    string
	RequestID string
}

// Action names an auditable occurrence.
type Action string

const (
	ActionSessionStarted   Action = "verification.session_started"
	ActionSessionCompleted Action = "verification.session_completed"
	ActionSessionFailed    Action = "verification.session_failed"
	ActionSessionCancelled Action = "verification.session_cancelled"

	ActionPunchRecorded     Action = "workplace.punch_recorded"
	ActionWorkplaceReused   Action = "workplace.reusable_touched"
	ActionWorkplaceRetired  Action = "workplace.reusable_deactivated"
	ActionApprovalRequested Action = "approval.requested"
	ActionApprovalDecided   Action = "approval.decided"

	ActionZoneSaved      Action = "geofence.zone_saved"
	ActionDeviceEnrolled Action = "device.enrolled"
)
