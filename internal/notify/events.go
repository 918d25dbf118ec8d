// Package notify fans out attendance events to downstream consumers:
// managers waiting on approvals, users whose verification failed, and any
// system subscribed to the Kafka topic.
//
// Delivery is best-effort. Events are buffered in a bounded ring and a
// dispatcher drains them to the configured sink; when the buffer fills the
// oldest events are dropped rather than blocking punch handling.
package notify

import (
	"time"

	id "timeclock/pkg/domain"
)

// EventType names a notification kind.
type EventType string

const (
	EventVerificationFailed EventType = "verification.failed"
	EventApprovalRequested  EventType = "approval.requested"
	EventApprovalDecided    EventType = "approval.decided"
	EventPunchRecorded      EventType = "punch.recorded"
)

// Event is one notification. Subject identifies the entity the event is
// about (session, approval, or record id). Payload carries small
// consumer-facing details; keep values short and PII-free.
type Event struct {
	Type       EventType         `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	UserID     id.UserID         `json:"user_id"`
	Subject    string            `json:"subject"`
	Payload    map[string]string `json:"payload,omitempty"`
}
