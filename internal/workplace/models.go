// Package workplace captures punches from locations that failed geofence
// matching. A punch needs a justification under policy and may save its
// location as a reusable workplace for future use.
package workplace

import (
	"time"

	"timeclock/internal/geofence"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
)

// Validation errors surfaced before anything is written.
var (
	ErrMissingReason = dErrors.New(dErrors.CodeInvalidInput, "a reason is required for punches from unregistered locations")
	ErrMissingPhoto  = dErrors.New(dErrors.CodeInvalidInput, "a photo is required for punches from unregistered locations")
)

// Record is one punch captured outside every active zone. Immutable once
// created.
type Record struct {
	ID     id.RecordID
	UserID id.UserID
	// Date is the civil date of the punch in the punch's local day.
	Date      time.Time
	PunchType id.PunchType
	PunchTime time.Time
	Fix       geofence.LocationFix
	Reason    string
	PhotoRef  string
	Notes     string
	// IsReusable marks records whose location was saved (or reused) as a
	// named workplace.
	IsReusable  bool
	WorkplaceID *id.WorkplaceID
	CreatedAt   time.Time
}

// ReusableWorkplace is a named, saved punch location a user may select again
// without re-entering details. Matching is by id only, never by coordinate
// proximity.
type ReusableWorkplace struct {
	ID         id.WorkplaceID
	UserID     id.UserID
	Name       string
	Latitude   float64
	Longitude  float64
	Reason     string
	IsActive   bool
	UsageCount int
	LastUsedAt *time.Time
}
