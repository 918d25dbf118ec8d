package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"timeclock/internal/verification"
	id "timeclock/pkg/domain"
	"timeclock/pkg/platform/sentinel"
)

// uniqueViolation is the PostgreSQL error code for unique constraint hits.
const uniqueViolation = "23505"

// PostgresSessionStore persists sessions in PostgreSQL. The open-session
// invariant is enforced by a partial unique index over (user_id, event_id)
// restricted to non-terminal states, so Create is race-free across replicas.
type PostgresSessionStore struct {
	db *sql.DB
}

func NewPostgresSessionStore(db *sql.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

func (s *PostgresSessionStore) Create(ctx context.Context, sess verification.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verification_sessions (id, user_id, event_id, session_type, state, max_attempts, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, sess.ID.String(), sess.UserID.String(), sess.EventID.String(),
		sess.SessionType.String(), string(sess.State), sess.MaxAttempts,
		sess.StartedAt, sess.CompletedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) Update(ctx context.Context, sess verification.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE verification_sessions SET state = $2, completed_at = $3 WHERE id = $1
	`, sess.ID.String(), string(sess.State), sess.CompletedAt)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}

	for _, a := range sess.Attempts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO verification_attempts
				(id, session_id, attempt_number, captured_image_ref, success, confidence_percent, failure_reason, captured_at, latitude, longitude, accuracy_m)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (session_id, attempt_number) DO NOTHING
		`, a.ID.String(), sess.ID.String(), a.AttemptNumber, a.CapturedImageRef,
			a.Outcome.Success, a.Outcome.ConfidencePercent, a.Outcome.FailureReason,
			a.CapturedAt, a.Fix.Latitude, a.Fix.Longitude, a.Fix.AccuracyMeters)
		if err != nil {
			return fmt.Errorf("insert attempt %d: %w", a.AttemptNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) FindByID(ctx context.Context, sessionID id.SessionID) (verification.Session, error) {
	return s.findOne(ctx, `
		SELECT id, user_id, event_id, session_type, state, max_attempts, started_at, completed_at
		FROM verification_sessions WHERE id = $1
	`, sessionID.String())
}

func (s *PostgresSessionStore) FindOpen(ctx context.Context, userID id.UserID, eventID id.EventID) (verification.Session, error) {
	return s.findOne(ctx, `
		SELECT id, user_id, event_id, session_type, state, max_attempts, started_at, completed_at
		FROM verification_sessions
		WHERE user_id = $1 AND event_id = $2 AND state NOT IN ('completed', 'failed', 'cancelled')
	`, userID.String(), eventID.String())
}

func (s *PostgresSessionStore) findOne(ctx context.Context, query string, args ...any) (verification.Session, error) {
	row := s.db.QueryRowContext(ctx, query, args...)

	var (
		rawID, rawUser, rawEvent, rawType, rawState string
		sess                                        verification.Session
		completedAt                                 sql.NullTime
	)
	err := row.Scan(&rawID, &rawUser, &rawEvent, &rawType, &rawState,
		&sess.MaxAttempts, &sess.StartedAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return verification.Session{}, sentinel.ErrNotFound
		}
		return verification.Session{}, fmt.Errorf("find session: %w", err)
	}

	if sess.ID, err = id.ParseSessionID(rawID); err != nil {
		return verification.Session{}, fmt.Errorf("corrupt session id %q: %w", rawID, err)
	}
	if sess.UserID, err = id.ParseUserID(rawUser); err != nil {
		return verification.Session{}, fmt.Errorf("corrupt user id %q: %w", rawUser, err)
	}
	if sess.EventID, err = id.ParseEventID(rawEvent); err != nil {
		return verification.Session{}, fmt.Errorf("corrupt event id %q: %w", rawEvent, err)
	}
	if sess.SessionType, err = id.ParsePunchType(rawType); err != nil {
		return verification.Session{}, fmt.Errorf("corrupt session type: %w", err)
	}
	sess.State = verification.State(rawState)
	if completedAt.Valid {
		at := completedAt.Time
		sess.CompletedAt = &at
	}

	if sess.Attempts, err = s.loadAttempts(ctx, sess.ID); err != nil {
		return verification.Session{}, err
	}
	sess.Result = rebuildResult(sess)
	return sess, nil
}

func (s *PostgresSessionStore) loadAttempts(ctx context.Context, sessionID id.SessionID) ([]verification.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, attempt_number, captured_image_ref, success, confidence_percent, failure_reason, captured_at, latitude, longitude, accuracy_m
		FROM verification_attempts WHERE session_id = $1 ORDER BY attempt_number
	`, sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	defer rows.Close()

	var attempts []verification.Attempt
	for rows.Next() {
		var (
			rawID string
			a     verification.Attempt
		)
		err := rows.Scan(&rawID, &a.AttemptNumber, &a.CapturedImageRef,
			&a.Outcome.Success, &a.Outcome.ConfidencePercent, &a.Outcome.FailureReason,
			&a.CapturedAt, &a.Fix.Latitude, &a.Fix.Longitude, &a.Fix.AccuracyMeters)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if a.ID, err = id.ParseAttemptID(rawID); err != nil {
			return nil, fmt.Errorf("corrupt attempt id %q: %w", rawID, err)
		}
		a.SessionID = sessionID
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	return attempts, nil
}

// rebuildResult derives the summary from stored attempts for terminal
// sessions. It is not persisted separately.
func rebuildResult(sess verification.Session) *verification.Result {
	switch sess.State {
	case verification.StateCompleted:
		res := &verification.Result{TotalAttempts: len(sess.Attempts)}
		var sum float64
		var n int
		for _, a := range sess.Attempts {
			if a.Outcome.Success {
				sum += a.Outcome.ConfidencePercent
				n++
				res.FinalImageRef = a.CapturedImageRef
			}
		}
		if n > 0 {
			res.AvgConfidence = sum / float64(n)
		}
		return res
	case verification.StateFailed:
		return &verification.Result{TotalAttempts: len(sess.Attempts)}
	}
	return nil
}
