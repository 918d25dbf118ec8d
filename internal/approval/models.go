// Package approval queues exception requests for manager decision. Requests
// are decided exactly once; bulk decisions apply per item with partial
// success.
package approval

import (
	"time"

	id "timeclock/pkg/domain"
)

// Status is the decision state of a request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsTerminal reports whether the request has been decided.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Type classifies what kind of exception is being requested.
type Type string

const (
	TypeOvertime           Type = "overtime"
	TypeLate               Type = "late"
	TypeEarlyLeave         Type = "early-leave"
	TypeTemporaryWorkplace Type = "temporary-workplace"
)

// IsValid reports whether the type is one of the known values.
func (t Type) IsValid() bool {
	switch t {
	case TypeOvertime, TypeLate, TypeEarlyLeave, TypeTemporaryWorkplace:
		return true
	}
	return false
}

// Request is one manager-facing decision item. Immutable except for the
// pending -> approved|rejected transition.
type Request struct {
	ID            id.ApprovalID
	SourceEventID id.EventID
	UserID        id.UserID
	// ManagerID is the deciding manager, set when the request is decided.
	ManagerID   *id.UserID
	RequestType Type
	Reason      string
	Status      Status
	RequestedAt time.Time
	DecidedAt   *time.Time
}

// Filter narrows List results. Nil fields match everything.
type Filter struct {
	RequestType *Type
	UserID      *id.UserID
	Status      *Status
	// From and To bound RequestedAt inclusively.
	From *time.Time
	To   *time.Time
}

// Matches reports whether the request satisfies every set filter field.
func (f Filter) Matches(req Request) bool {
	if f.RequestType != nil && req.RequestType != *f.RequestType {
		return false
	}
	if f.UserID != nil && req.UserID != *f.UserID {
		return false
	}
	if f.Status != nil && req.Status != *f.Status {
		return false
	}
	if f.From != nil && req.RequestedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && req.RequestedAt.After(*f.To) {
		return false
	}
	return true
}

// BulkFailure pairs a request id with the error that kept it undecided.
type BulkFailure struct {
	ID  id.ApprovalID
	Err error
}

// BulkResult reports the per-item outcome of a bulk decision, in the order
// the ids were supplied.
type BulkResult struct {
	Succeeded []id.ApprovalID
	Failed    []BulkFailure
}
