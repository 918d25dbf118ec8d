package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"timeclock/internal/approval"
	id "timeclock/pkg/domain"
	"timeclock/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresRequestStore persists approval requests in PostgreSQL. Decide uses
// a conditional UPDATE against the pending status, which makes the
// decide-once invariant hold across concurrent callers and replicas.
type PostgresRequestStore struct {
	db *sql.DB
}

func NewPostgresRequestStore(db *sql.DB) *PostgresRequestStore {
	return &PostgresRequestStore{db: db}
}

func (s *PostgresRequestStore) Create(ctx context.Context, req approval.Request) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO approval_requests (id, source_event_id, user_id, request_type, reason, status, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, req.ID.String(), req.SourceEventID.String(), req.UserID.String(),
		string(req.RequestType), req.Reason, string(req.Status), req.RequestedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create approval request: %w", err)
	}
	return nil
}

func (s *PostgresRequestStore) FindByID(ctx context.Context, requestID id.ApprovalID) (approval.Request, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, requestID.String())
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return approval.Request{}, sentinel.ErrNotFound
		}
		return approval.Request{}, fmt.Errorf("find approval request: %w", err)
	}
	return req, nil
}

func (s *PostgresRequestStore) Decide(ctx context.Context, requestID id.ApprovalID, status approval.Status, managerID id.UserID, decidedAt time.Time) (approval.Request, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE approval_requests
		SET status = $2, manager_id = $3, decided_at = $4
		WHERE id = $1 AND status = 'pending'
	`, requestID.String(), string(status), managerID.String(), decidedAt)
	if err != nil {
		return approval.Request{}, fmt.Errorf("decide approval request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return approval.Request{}, fmt.Errorf("decide approval request: %w", err)
	}
	if n == 0 {
		// Either unknown or already settled; one more read tells which.
		if _, findErr := s.FindByID(ctx, requestID); findErr != nil {
			return approval.Request{}, findErr
		}
		return approval.Request{}, sentinel.ErrAlreadyDecided
	}
	return s.FindByID(ctx, requestID)
}

func (s *PostgresRequestStore) List(ctx context.Context, filter approval.Filter) ([]approval.Request, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.RequestType != nil {
		add("request_type = $%d", string(*filter.RequestType))
	}
	if filter.UserID != nil {
		add("user_id = $%d", filter.UserID.String())
	}
	if filter.Status != nil {
		add("status = $%d", string(*filter.Status))
	}
	if filter.From != nil {
		add("requested_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("requested_at <= $%d", *filter.To)
	}

	query := selectColumns
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY requested_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list approval requests: %w", err)
	}
	defer rows.Close()

	var out []approval.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan approval request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list approval requests: %w", err)
	}
	return out, nil
}

const selectColumns = `
	SELECT id, source_event_id, user_id, manager_id, request_type, reason, status, requested_at, decided_at
	FROM approval_requests`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (approval.Request, error) {
	var (
		rawID, rawEvent, rawUser string
		rawManager               sql.NullString
		reqType, status          string
		req                      approval.Request
		decidedAt                sql.NullTime
	)
	err := row.Scan(&rawID, &rawEvent, &rawUser, &rawManager, &reqType, &req.Reason, &status, &req.RequestedAt, &decidedAt)
	if err != nil {
		return approval.Request{}, err
	}

	if req.ID, err = id.ParseApprovalID(rawID); err != nil {
		return approval.Request{}, fmt.Errorf("corrupt approval id %q: %w", rawID, err)
	}
	if req.SourceEventID, err = id.ParseEventID(rawEvent); err != nil {
		return approval.Request{}, fmt.Errorf("corrupt event id %q: %w", rawEvent, err)
	}
	if req.UserID, err = id.ParseUserID(rawUser); err != nil {
		return approval.Request{}, fmt.Errorf("corrupt user id %q: %w", rawUser, err)
	}
	if rawManager.Valid {
		managerID, err := id.ParseUserID(rawManager.String)
		if err != nil {
			return approval.Request{}, fmt.Errorf("corrupt manager id %q: %w", rawManager.String, err)
		}
		req.ManagerID = &managerID
	}
	req.RequestType = approval.Type(reqType)
	req.Status = approval.Status(status)
	if decidedAt.Valid {
		at := decidedAt.Time
		req.DecidedAt = &at
	}
	return req, nil
}
