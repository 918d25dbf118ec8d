// Package store provides temporary workplace persistence.
package store

import (
	"context"
	"time"

	"timeclock/internal/workplace"
	id "timeclock/pkg/domain"
)

// RecordStore persists temporary workplace punch records.
type RecordStore interface {
	Create(ctx context.Context, rec workplace.Record) error
	FindByID(ctx context.Context, recordID id.RecordID) (workplace.Record, error)
	// ListByUser returns a user's records, oldest first.
	ListByUser(ctx context.Context, userID id.UserID) ([]workplace.Record, error)
}

// WorkplaceStore persists reusable workplaces.
//
// Create returns sentinel.ErrConflict when the user already has a workplace
// with the same name. Touch increments usage_count and stamps last_used_at;
// it returns sentinel.ErrNotFound for unknown or other users' ids.
type WorkplaceStore interface {
	Create(ctx context.Context, wp workplace.ReusableWorkplace) error
	FindByID(ctx context.Context, workplaceID id.WorkplaceID) (workplace.ReusableWorkplace, error)
	Touch(ctx context.Context, workplaceID id.WorkplaceID, usedAt time.Time) (workplace.ReusableWorkplace, error)
	// ListActiveByUser returns the user's active workplaces, oldest first.
	ListActiveByUser(ctx context.Context, userID id.UserID) ([]workplace.ReusableWorkplace, error)
	Deactivate(ctx context.Context, workplaceID id.WorkplaceID) error
}
