// Package domain holds shared domain primitives: typed identifiers and the
// punch type enum. Typed IDs make cross-entity mixups a compile error rather
// than a runtime bug.
package domain

import (
	"github.com/google/uuid"

	dErrors "timeclock/pkg/domain-errors"
)

// Typed identifiers. Each wraps a UUID so the compiler keeps, say, a session
// ID from being passed where an approval request ID is expected.
type (
	// UserID identifies an employee or manager.
	UserID uuid.UUID
	// EventID identifies one attendance ledger event (a single clock-in or
	// clock-out occurrence a verification session is bound to).
	EventID uuid.UUID
	// SessionID identifies a verification session.
	SessionID uuid.UUID
	// AttemptID identifies a single verification attempt.
	AttemptID uuid.UUID
	// ZoneID identifies a registered geofence zone.
	ZoneID uuid.UUID
	// RecordID identifies a temporary workplace punch record.
	RecordID uuid.UUID
	// WorkplaceID identifies a saved reusable workplace.
	WorkplaceID uuid.UUID
	// ApprovalID identifies an approval request.
	ApprovalID uuid.UUID
	// DeviceID identifies a registered punch device (kiosk or phone).
	DeviceID uuid.UUID
)

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

func ParseUserID(s string) (UserID, error) {
	parsed, err := parseUUID(s)
	return UserID(parsed), err
}

func ParseEventID(s string) (EventID, error) {
	parsed, err := parseUUID(s)
	return EventID(parsed), err
}

func ParseSessionID(s string) (SessionID, error) {
	parsed, err := parseUUID(s)
	return SessionID(parsed), err
}

func ParseAttemptID(s string) (AttemptID, error) {
	parsed, err := parseUUID(s)
	return AttemptID(parsed), err
}

func ParseZoneID(s string) (ZoneID, error) {
	parsed, err := parseUUID(s)
	return ZoneID(parsed), err
}

func ParseRecordID(s string) (RecordID, error) {
	parsed, err := parseUUID(s)
	return RecordID(parsed), err
}

func ParseWorkplaceID(s string) (WorkplaceID, error) {
	parsed, err := parseUUID(s)
	return WorkplaceID(parsed), err
}

func ParseApprovalID(s string) (ApprovalID, error) {
	parsed, err := parseUUID(s)
	return ApprovalID(parsed), err
}

func ParseDeviceID(s string) (DeviceID, error) {
	parsed, err := parseUUID(s)
	return DeviceID(parsed), err
}

// NewUserID generates a fresh random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewEventID generates a fresh random attendance event ID.
func NewEventID() EventID { return EventID(uuid.New()) }

// NewSessionID generates a fresh random session ID.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// NewAttemptID generates a fresh random attempt ID.
func NewAttemptID() AttemptID { return AttemptID(uuid.New()) }

// NewZoneID generates a fresh random zone ID.
func NewZoneID() ZoneID { return ZoneID(uuid.New()) }

// NewRecordID generates a fresh random record ID.
func NewRecordID() RecordID { return RecordID(uuid.New()) }

// NewWorkplaceID generates a fresh random workplace ID.
func NewWorkplaceID() WorkplaceID { return WorkplaceID(uuid.New()) }

// NewApprovalID generates a fresh random approval request ID.
func NewApprovalID() ApprovalID { return ApprovalID(uuid.New()) }

// NewDeviceID generates a fresh random device ID.
func NewDeviceID() DeviceID { return DeviceID(uuid.New()) }

func (id UserID) String() string      { return uuid.UUID(id).String() }
func (id EventID) String() string     { return uuid.UUID(id).String() }
func (id SessionID) String() string   { return uuid.UUID(id).String() }
func (id AttemptID) String() string   { return uuid.UUID(id).String() }
func (id ZoneID) String() string      { return uuid.UUID(id).String() }
func (id RecordID) String() string    { return uuid.UUID(id).String() }
func (id WorkplaceID) String() string { return uuid.UUID(id).String() }
func (id ApprovalID) String() string  { return uuid.UUID(id).String() }
func (id DeviceID) String() string    { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id AttemptID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ZoneID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id WorkplaceID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ApprovalID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id DeviceID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
