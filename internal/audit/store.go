package audit

import (
	"context"

	id "timeclock/pkg/domain"
)

// Store is the append-only sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}
