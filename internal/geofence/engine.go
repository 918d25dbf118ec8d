package geofence

import "math"

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6_371_000

// Engine classifies location fixes against the zone registry. It holds no
// state and is safe for unrestricted concurrent use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Match finds the nearest active zone for the fix. Ties are broken by zone
// slice order, so results are deterministic for a given registry snapshot.
// The zones slice is never mutated.
func (e *Engine) Match(fix LocationFix, zones []Zone) Match {
	var (
		nearest     *Zone
		minDistance float64
	)

	for i := range zones {
		zone := &zones[i]
		if !zone.IsActive {
			continue
		}
		d := Distance(fix.Latitude, fix.Longitude, zone.CenterLat, zone.CenterLng)
		if nearest == nil || d < minDistance {
			nearest = zone
			minDistance = d
		}
	}

	if nearest == nil {
		return Match{}
	}

	return Match{
		Zone:           nearest,
		DistanceMeters: minDistance,
		WithinZone:     minDistance <= nearest.RadiusMeters,
	}
}

// Distance computes the great-circle distance in meters between two
// coordinates using the haversine formula. It is symmetric in its arguments.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lng2 - lng1)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)

	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
