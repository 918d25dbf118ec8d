// Package store provides verification session persistence.
package store

import (
	"context"

	"timeclock/internal/verification"
	id "timeclock/pkg/domain"
)

// SessionStore persists verification sessions and their attempts.
//
// Create must be atomic with respect to the open-session check: if a
// non-terminal session already exists for the same (user, event) pair it
// returns sentinel.ErrConflict and writes nothing.
type SessionStore interface {
	Create(ctx context.Context, sess verification.Session) error
	// Update persists the session state and any attempts appended since the
	// last write. Attempts already stored are left untouched.
	Update(ctx context.Context, sess verification.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (verification.Session, error)
	// FindOpen returns the non-terminal session for the pair, or
	// sentinel.ErrNotFound when none is open.
	FindOpen(ctx context.Context, userID id.UserID, eventID id.EventID) (verification.Session, error)
}
