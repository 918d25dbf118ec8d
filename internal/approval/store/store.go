// Package store provides approval request persistence.
package store

import (
	"context"
	"time"

	"timeclock/internal/approval"
	id "timeclock/pkg/domain"
)

// RequestStore persists approval requests.
//
// Create returns sentinel.ErrConflict when the id already exists so the
// service can treat re-enqueues as no-ops. Decide must be atomic against the
// pending status: it returns sentinel.ErrAlreadyDecided when the request was
// settled by a concurrent call and sentinel.ErrNotFound for unknown ids.
type RequestStore interface {
	Create(ctx context.Context, req approval.Request) error
	FindByID(ctx context.Context, requestID id.ApprovalID) (approval.Request, error)
	Decide(ctx context.Context, requestID id.ApprovalID, status approval.Status, managerID id.UserID, decidedAt time.Time) (approval.Request, error)
	// List returns requests matching the filter, oldest first.
	List(ctx context.Context, filter approval.Filter) ([]approval.Request, error)
}
