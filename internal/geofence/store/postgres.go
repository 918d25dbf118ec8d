package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"timeclock/internal/geofence"
	id "timeclock/pkg/domain"
	"timeclock/pkg/platform/sentinel"
)

// PostgresZoneStore persists zones in PostgreSQL. The seq column records
// insertion order; ListActive preserves it for deterministic tie-breaking.
type PostgresZoneStore struct {
	db *sql.DB
}

func NewPostgresZoneStore(db *sql.DB) *PostgresZoneStore {
	return &PostgresZoneStore{db: db}
}

func (s *PostgresZoneStore) Save(ctx context.Context, zone geofence.Zone) error {
	methods := make([]string, 0, len(zone.AllowedMethods))
	for m := range zone.AllowedMethods {
		methods = append(methods, m)
	}

	query := `
		INSERT INTO geofence_zones (id, name, center_lat, center_lng, radius_meters, address, is_active, allowed_methods)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			center_lat = EXCLUDED.center_lat,
			center_lng = EXCLUDED.center_lng,
			radius_meters = EXCLUDED.radius_meters,
			address = EXCLUDED.address,
			is_active = EXCLUDED.is_active,
			allowed_methods = EXCLUDED.allowed_methods
	`
	_, err := s.db.ExecContext(ctx, query,
		zone.ID.String(), zone.Name, zone.CenterLat, zone.CenterLng,
		zone.RadiusMeters, zone.Address, zone.IsActive, pq.Array(methods),
	)
	if err != nil {
		return fmt.Errorf("save zone: %w", err)
	}
	return nil
}

func (s *PostgresZoneStore) FindByID(ctx context.Context, zoneID id.ZoneID) (geofence.Zone, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, center_lat, center_lng, radius_meters, address, is_active, allowed_methods
		FROM geofence_zones WHERE id = $1
	`, zoneID.String())

	zone, err := scanZone(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return geofence.Zone{}, sentinel.ErrNotFound
		}
		return geofence.Zone{}, fmt.Errorf("find zone: %w", err)
	}
	return zone, nil
}

func (s *PostgresZoneStore) ListActive(ctx context.Context) ([]geofence.Zone, error) {
	return s.list(ctx, `
		SELECT id, name, center_lat, center_lng, radius_meters, address, is_active, allowed_methods
		FROM geofence_zones WHERE is_active ORDER BY seq
	`)
}

func (s *PostgresZoneStore) ListAll(ctx context.Context) ([]geofence.Zone, error) {
	return s.list(ctx, `
		SELECT id, name, center_lat, center_lng, radius_meters, address, is_active, allowed_methods
		FROM geofence_zones ORDER BY seq
	`)
}

func (s *PostgresZoneStore) list(ctx context.Context, query string) ([]geofence.Zone, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	defer rows.Close()

	var zones []geofence.Zone
	for rows.Next() {
		zone, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		zones = append(zones, zone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	return zones, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanZone(row rowScanner) (geofence.Zone, error) {
	var (
		rawID   string
		zone    geofence.Zone
		methods pq.StringArray
	)
	err := row.Scan(&rawID, &zone.Name, &zone.CenterLat, &zone.CenterLng,
		&zone.RadiusMeters, &zone.Address, &zone.IsActive, &methods)
	if err != nil {
		return geofence.Zone{}, err
	}

	zoneID, err := id.ParseZoneID(rawID)
	if err != nil {
		return geofence.Zone{}, fmt.Errorf("corrupt zone id %q: %w", rawID, err)
	}
	zone.ID = zoneID

	if len(methods) > 0 {
		zone.AllowedMethods = make(map[string]struct{}, len(methods))
		for _, m := range methods {
			zone.AllowedMethods[m] = struct{}{}
		}
	}
	return zone, nil
}
