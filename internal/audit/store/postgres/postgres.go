// Package postgres persists audit events durably. It uses pgx directly so
// the append path stays cheap under high punch volume.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timeclock/internal/audit"
	id "timeclock/pkg/domain"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	var userID any
	if !event.UserID.IsNil() {
		userID = event.UserID.String()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_events (occurred_at, user_id, subject, action, outcome, reason, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.Timestamp, userID, event.Subject, string(event.Action),
		event.Outcome, event.Reason, event.RequestID)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	return s.list(ctx, `
		SELECT occurred_at, user_id, subject, action, outcome, reason, request_id
		FROM audit_events WHERE user_id = $1 ORDER BY id
	`, userID.String())
}

func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	return s.list(ctx, `
		SELECT occurred_at, user_id, subject, action, outcome, reason, request_id
		FROM audit_events WHERE subject = $1 ORDER BY id
	`, subject)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]audit.Event, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (audit.Event, error) {
		var (
			e       audit.Event
			rawUser *string
			action  string
		)
		err := row.Scan(&e.Timestamp, &rawUser, &e.Subject, &action, &e.Outcome, &e.Reason, &e.RequestID)
		if err != nil {
			return audit.Event{}, err
		}
		e.Action = audit.Action(action)
		if rawUser != nil {
			userID, err := id.ParseUserID(*rawUser)
			if err != nil {
				return audit.Event{}, fmt.Errorf("corrupt user id %q: %w", *rawUser, err)
			}
			e.UserID = userID
		}
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan audit events: %w", err)
	}
	return events, nil
}
