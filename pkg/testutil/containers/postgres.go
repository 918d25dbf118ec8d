//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema is the full engine schema, applied once when the container starts.
const schema = `
CREATE TABLE IF NOT EXISTS geofence_zones (
	seq             BIGSERIAL,
	id              UUID PRIMARY KEY,
	name            TEXT NOT NULL,
	center_lat      DOUBLE PRECISION NOT NULL,
	center_lng      DOUBLE PRECISION NOT NULL,
	radius_meters   DOUBLE PRECISION NOT NULL CHECK (radius_meters > 0),
	address         TEXT NOT NULL DEFAULT '',
	is_active       BOOLEAN NOT NULL DEFAULT TRUE,
	allowed_methods TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS verification_sessions (
	id            UUID PRIMARY KEY,
	user_id       UUID NOT NULL,
	event_id      UUID NOT NULL,
	session_type  TEXT NOT NULL,
	state         TEXT NOT NULL,
	max_attempts  INT NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	completed_at  TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS verification_sessions_open_key
	ON verification_sessions (user_id, event_id)
	WHERE state NOT IN ('completed', 'failed', 'cancelled');

CREATE TABLE IF NOT EXISTS verification_attempts (
	id                 UUID PRIMARY KEY,
	session_id         UUID NOT NULL REFERENCES verification_sessions(id),
	attempt_number     INT NOT NULL,
	captured_image_ref TEXT NOT NULL,
	success            BOOLEAN NOT NULL,
	confidence_percent DOUBLE PRECISION NOT NULL,
	failure_reason     TEXT NOT NULL DEFAULT '',
	captured_at        TIMESTAMPTZ NOT NULL,
	latitude           DOUBLE PRECISION NOT NULL,
	longitude          DOUBLE PRECISION NOT NULL,
	accuracy_m         DOUBLE PRECISION NOT NULL DEFAULT 0,
	UNIQUE (session_id, attempt_number)
);

CREATE TABLE IF NOT EXISTS temporary_workplace_records (
	id           UUID PRIMARY KEY,
	user_id      UUID NOT NULL,
	punch_date   DATE NOT NULL,
	punch_type   TEXT NOT NULL,
	punch_time   TIMESTAMPTZ NOT NULL,
	latitude     DOUBLE PRECISION NOT NULL,
	longitude    DOUBLE PRECISION NOT NULL,
	accuracy_m   DOUBLE PRECISION NOT NULL DEFAULT 0,
	reason       TEXT NOT NULL DEFAULT '',
	photo_ref    TEXT,
	notes        TEXT NOT NULL DEFAULT '',
	is_reusable  BOOLEAN NOT NULL DEFAULT FALSE,
	workplace_id UUID,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS reusable_workplaces (
	id           UUID PRIMARY KEY,
	user_id      UUID NOT NULL,
	name         TEXT NOT NULL,
	latitude     DOUBLE PRECISION NOT NULL,
	longitude    DOUBLE PRECISION NOT NULL,
	reason       TEXT NOT NULL DEFAULT '',
	is_active    BOOLEAN NOT NULL DEFAULT TRUE,
	usage_count  INT NOT NULL DEFAULT 0,
	last_used_at TIMESTAMPTZ,
	UNIQUE (user_id, name)
);

CREATE TABLE IF NOT EXISTS approval_requests (
	id              UUID PRIMARY KEY,
	source_event_id UUID NOT NULL,
	user_id         UUID NOT NULL,
	manager_id      UUID,
	request_type    TEXT NOT NULL,
	reason          TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'pending',
	requested_at    TIMESTAMPTZ NOT NULL,
	decided_at      TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS audit_events (
	id         BIGSERIAL PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL,
	user_id    UUID,
	subject    TEXT NOT NULL DEFAULT '',
	action     TEXT NOT NULL,
	outcome    TEXT NOT NULL DEFAULT '',
	reason     TEXT NOT NULL DEFAULT '',
	request_id TEXT NOT NULL DEFAULT ''
);
`

// PostgresContainer wraps a testcontainers Postgres instance with an open DB.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	URL       string
}

// NewPostgresContainer starts Postgres and applies the engine schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("timeclock_test"),
		tcpostgres.WithUsername("timeclock"),
		tcpostgres.WithPassword("timeclock"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, DB: db, URL: url}
}

// TruncateTables clears the given tables between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	stmt := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", "))
	if _, err := p.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
