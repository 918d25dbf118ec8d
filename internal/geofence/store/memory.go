package store

import (
	"context"
	"sync"

	"timeclock/internal/geofence"
	id "timeclock/pkg/domain"
	"timeclock/pkg/platform/sentinel"
)

// InMemoryZoneStore keeps zones in a slice to preserve insertion order, with
// an index for lookups. Suitable for tests and single-process deployments.
type InMemoryZoneStore struct {
	mu    sync.RWMutex
	zones []geofence.Zone
	index map[id.ZoneID]int
}

func NewInMemoryZoneStore() *InMemoryZoneStore {
	return &InMemoryZoneStore{index: make(map[id.ZoneID]int)}
}

func (s *InMemoryZoneStore) Save(_ context.Context, zone geofence.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos, ok := s.index[zone.ID]; ok {
		s.zones[pos] = zone
		return nil
	}
	s.index[zone.ID] = len(s.zones)
	s.zones = append(s.zones, zone)
	return nil
}

func (s *InMemoryZoneStore) FindByID(_ context.Context, zoneID id.ZoneID) (geofence.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pos, ok := s.index[zoneID]; ok {
		return s.zones[pos], nil
	}
	return geofence.Zone{}, sentinel.ErrNotFound
}

func (s *InMemoryZoneStore) ListActive(_ context.Context) ([]geofence.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]geofence.Zone, 0, len(s.zones))
	for _, zone := range s.zones {
		if zone.IsActive {
			out = append(out, zone)
		}
	}
	return out, nil
}

func (s *InMemoryZoneStore) ListAll(_ context.Context) ([]geofence.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]geofence.Zone{}, s.zones...), nil
}
