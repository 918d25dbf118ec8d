package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"timeclock/internal/workplace"
	id "timeclock/pkg/domain"
	"timeclock/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresRecordStore persists punch records in PostgreSQL.
type PostgresRecordStore struct {
	db *sql.DB
}

func NewPostgresRecordStore(db *sql.DB) *PostgresRecordStore {
	return &PostgresRecordStore{db: db}
}

func (s *PostgresRecordStore) Create(ctx context.Context, rec workplace.Record) error {
	var workplaceID any
	if rec.WorkplaceID != nil {
		workplaceID = rec.WorkplaceID.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO temporary_workplace_records
			(id, user_id, punch_date, punch_type, punch_time, latitude, longitude, accuracy_m, reason, photo_ref, notes, is_reusable, workplace_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, rec.ID.String(), rec.UserID.String(), rec.Date, rec.PunchType.String(), rec.PunchTime,
		rec.Fix.Latitude, rec.Fix.Longitude, rec.Fix.AccuracyMeters,
		rec.Reason, nullString(rec.PhotoRef), rec.Notes, rec.IsReusable, workplaceID, rec.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create workplace record: %w", err)
	}
	return nil
}

func (s *PostgresRecordStore) FindByID(ctx context.Context, recordID id.RecordID) (workplace.Record, error) {
	row := s.db.QueryRowContext(ctx, recordColumns+` WHERE id = $1`, recordID.String())
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return workplace.Record{}, sentinel.ErrNotFound
		}
		return workplace.Record{}, fmt.Errorf("find workplace record: %w", err)
	}
	return rec, nil
}

func (s *PostgresRecordStore) ListByUser(ctx context.Context, userID id.UserID) ([]workplace.Record, error) {
	rows, err := s.db.QueryContext(ctx, recordColumns+` WHERE user_id = $1 ORDER BY created_at, id`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list workplace records: %w", err)
	}
	defer rows.Close()

	var out []workplace.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workplace record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list workplace records: %w", err)
	}
	return out, nil
}

const recordColumns = `
	SELECT id, user_id, punch_date, punch_type, punch_time, latitude, longitude, accuracy_m, reason, photo_ref, notes, is_reusable, workplace_id, created_at
	FROM temporary_workplace_records`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (workplace.Record, error) {
	var (
		rawID, rawUser, rawType string
		rawPhoto, rawWorkplace  sql.NullString
		rec                     workplace.Record
	)
	err := row.Scan(&rawID, &rawUser, &rec.Date, &rawType, &rec.PunchTime,
		&rec.Fix.Latitude, &rec.Fix.Longitude, &rec.Fix.AccuracyMeters,
		&rec.Reason, &rawPhoto, &rec.Notes, &rec.IsReusable, &rawWorkplace, &rec.CreatedAt)
	if err != nil {
		return workplace.Record{}, err
	}

	if rec.ID, err = id.ParseRecordID(rawID); err != nil {
		return workplace.Record{}, fmt.Errorf("corrupt record id %q: %w", rawID, err)
	}
	if rec.UserID, err = id.ParseUserID(rawUser); err != nil {
		return workplace.Record{}, fmt.Errorf("corrupt user id %q: %w", rawUser, err)
	}
	if rec.PunchType, err = id.ParsePunchType(rawType); err != nil {
		return workplace.Record{}, fmt.Errorf("corrupt punch type: %w", err)
	}
	rec.PhotoRef = rawPhoto.String
	if rawWorkplace.Valid {
		workplaceID, err := id.ParseWorkplaceID(rawWorkplace.String)
		if err != nil {
			return workplace.Record{}, fmt.Errorf("corrupt workplace id %q: %w", rawWorkplace.String, err)
		}
		rec.WorkplaceID = &workplaceID
	}
	return rec, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// PostgresWorkplaceStore persists reusable workplaces in PostgreSQL. The
// (user_id, name) unique constraint backs the one-name-per-user rule.
type PostgresWorkplaceStore struct {
	db *sql.DB
}

func NewPostgresWorkplaceStore(db *sql.DB) *PostgresWorkplaceStore {
	return &PostgresWorkplaceStore{db: db}
}

func (s *PostgresWorkplaceStore) Create(ctx context.Context, wp workplace.ReusableWorkplace) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reusable_workplaces (id, user_id, name, latitude, longitude, reason, is_active, usage_count, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, wp.ID.String(), wp.UserID.String(), wp.Name, wp.Latitude, wp.Longitude,
		wp.Reason, wp.IsActive, wp.UsageCount, wp.LastUsedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create reusable workplace: %w", err)
	}
	return nil
}

func (s *PostgresWorkplaceStore) FindByID(ctx context.Context, workplaceID id.WorkplaceID) (workplace.ReusableWorkplace, error) {
	row := s.db.QueryRowContext(ctx, workplaceColumns+` WHERE id = $1`, workplaceID.String())
	wp, err := scanWorkplace(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return workplace.ReusableWorkplace{}, sentinel.ErrNotFound
		}
		return workplace.ReusableWorkplace{}, fmt.Errorf("find reusable workplace: %w", err)
	}
	return wp, nil
}

func (s *PostgresWorkplaceStore) Touch(ctx context.Context, workplaceID id.WorkplaceID, usedAt time.Time) (workplace.ReusableWorkplace, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reusable_workplaces SET usage_count = usage_count + 1, last_used_at = $2 WHERE id = $1
	`, workplaceID.String(), usedAt)
	if err != nil {
		return workplace.ReusableWorkplace{}, fmt.Errorf("touch reusable workplace: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return workplace.ReusableWorkplace{}, fmt.Errorf("touch reusable workplace: %w", err)
	}
	if n == 0 {
		return workplace.ReusableWorkplace{}, sentinel.ErrNotFound
	}
	return s.FindByID(ctx, workplaceID)
}

func (s *PostgresWorkplaceStore) ListActiveByUser(ctx context.Context, userID id.UserID) ([]workplace.ReusableWorkplace, error) {
	rows, err := s.db.QueryContext(ctx, workplaceColumns+` WHERE user_id = $1 AND is_active ORDER BY name`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list reusable workplaces: %w", err)
	}
	defer rows.Close()

	var out []workplace.ReusableWorkplace
	for rows.Next() {
		wp, err := scanWorkplace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reusable workplace: %w", err)
		}
		out = append(out, wp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reusable workplaces: %w", err)
	}
	return out, nil
}

func (s *PostgresWorkplaceStore) Deactivate(ctx context.Context, workplaceID id.WorkplaceID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reusable_workplaces SET is_active = FALSE WHERE id = $1
	`, workplaceID.String())
	if err != nil {
		return fmt.Errorf("deactivate reusable workplace: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate reusable workplace: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const workplaceColumns = `
	SELECT id, user_id, name, latitude, longitude, reason, is_active, usage_count, last_used_at
	FROM reusable_workplaces`

func scanWorkplace(row rowScanner) (workplace.ReusableWorkplace, error) {
	var (
		rawID, rawUser string
		wp             workplace.ReusableWorkplace
		lastUsedAt     sql.NullTime
	)
	err := row.Scan(&rawID, &rawUser, &wp.Name, &wp.Latitude, &wp.Longitude,
		&wp.Reason, &wp.IsActive, &wp.UsageCount, &lastUsedAt)
	if err != nil {
		return workplace.ReusableWorkplace{}, err
	}

	if wp.ID, err = id.ParseWorkplaceID(rawID); err != nil {
		return workplace.ReusableWorkplace{}, fmt.Errorf("corrupt workplace id %q: %w", rawID, err)
	}
	if wp.UserID, err = id.ParseUserID(rawUser); err != nil {
		return workplace.ReusableWorkplace{}, fmt.Errorf("corrupt user id %q: %w", rawUser, err)
	}
	if lastUsedAt.Valid {
		at := lastUsedAt.Time
		wp.LastUsedAt = &at
	}
	return wp, nil
}
