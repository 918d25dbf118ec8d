// Package geofence decides whether a location fix lies inside a registered
// work zone. Matching is pure computation; zone storage lives in the store
// subpackage and is owned by the administrative surface.
package geofence

import (
	"time"

	id "timeclock/pkg/domain"
)

// LocationFix is a point reported by an external location provider.
// Immutable once captured.
type LocationFix struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
	CapturedAt     time.Time
}

// Zone is a circular work area. Inactive zones are excluded from matching.
type Zone struct {
	ID             id.ZoneID
	Name           string
	CenterLat      float64
	CenterLng      float64
	RadiusMeters   float64
	Address        string
	IsActive       bool
	AllowedMethods map[string]struct{}
}

// Match is the classification of a fix against the zone registry.
type Match struct {
	// Zone is the nearest active zone, or nil when no active zones exist.
	Zone *Zone
	// DistanceMeters is the great-circle distance to that zone's center.
	DistanceMeters float64
	// WithinZone reports whether the fix lies inside the zone radius
	// (boundary inclusive).
	WithinZone bool
}
