package device

import (
	"context"
	"sync"

	id "timeclock/pkg/domain"
	"timeclock/pkg/platform/sentinel"
)

// Store persists enrolled devices.
type Store interface {
	Create(ctx context.Context, d Device) error
	FindByID(ctx context.Context, deviceID id.DeviceID) (Device, error)
	Update(ctx context.Context, d Device) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Device, error)
}

// MemoryStore is an in-memory Store for tests and development.
type MemoryStore struct {
	mu      sync.Mutex
	devices map[id.DeviceID]Device
	order   []id.DeviceID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{devices: make(map[id.DeviceID]Device)}
}

func (s *MemoryStore) Create(ctx context.Context, d Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.devices[d.ID]; exists {
		return sentinel.ErrConflict
	}
	s.devices[d.ID] = cloneDevice(d)
	s.order = append(s.order, d.ID)
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, deviceID id.DeviceID) (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, exists := s.devices[deviceID]
	if !exists {
		return Device{}, sentinel.ErrNotFound
	}
	return cloneDevice(d), nil
}

func (s *MemoryStore) Update(ctx context.Context, d Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.devices[d.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.devices[d.ID] = cloneDevice(d)
	return nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID id.UserID) ([]Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Device
	for _, deviceID := range s.order {
		d := s.devices[deviceID]
		if d.UserID == userID {
			out = append(out, cloneDevice(d))
		}
	}
	return out, nil
}

func cloneDevice(d Device) Device {
	if d.LastSeenAt != nil {
		at := *d.LastSeenAt
		d.LastSeenAt = &at
	}
	return d
}
