// Package store provides zone registry persistence. The engine only ever
// reads from it; writes belong to the administrative surface.
package store

import (
	"context"

	"timeclock/internal/geofence"
	id "timeclock/pkg/domain"
)

// ZoneStore is interface-driven to keep the matching logic testable and to
// allow swapping in-memory and Postgres persistence without rewiring
// business code.
type ZoneStore interface {
	// Save creates or replaces a zone.
	Save(ctx context.Context, zone geofence.Zone) error
	// FindByID returns a single zone.
	FindByID(ctx context.Context, zoneID id.ZoneID) (geofence.Zone, error)
	// ListActive returns active zones in insertion order. The engine depends
	// on that order for deterministic tie-breaking.
	ListActive(ctx context.Context) ([]geofence.Zone, error)
	// ListAll returns every zone, active or not, in insertion order.
	ListAll(ctx context.Context) ([]geofence.Zone, error)
}
