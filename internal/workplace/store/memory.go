package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"timeclock/internal/workplace"
	id "timeclock/pkg/domain"
	"timeclock/pkg/platform/sentinel"
)

// MemoryRecordStore is an in-memory RecordStore for tests and development.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[id.RecordID]workplace.Record
	order   []id.RecordID
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[id.RecordID]workplace.Record)}
}

func (s *MemoryRecordStore) Create(ctx context.Context, rec workplace.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return sentinel.ErrConflict
	}
	s.records[rec.ID] = cloneRecord(rec)
	s.order = append(s.order, rec.ID)
	return nil
}

func (s *MemoryRecordStore) FindByID(ctx context.Context, recordID id.RecordID) (workplace.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[recordID]
	if !exists {
		return workplace.Record{}, sentinel.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemoryRecordStore) ListByUser(ctx context.Context, userID id.UserID) ([]workplace.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []workplace.Record
	for _, recordID := range s.order {
		rec := s.records[recordID]
		if rec.UserID == userID {
			out = append(out, cloneRecord(rec))
		}
	}
	return out, nil
}

func cloneRecord(rec workplace.Record) workplace.Record {
	if rec.WorkplaceID != nil {
		workplaceID := *rec.WorkplaceID
		rec.WorkplaceID = &workplaceID
	}
	return rec
}

// MemoryWorkplaceStore is an in-memory WorkplaceStore for tests and
// development.
type MemoryWorkplaceStore struct {
	mu         sync.Mutex
	workplaces map[id.WorkplaceID]workplace.ReusableWorkplace
	order      []id.WorkplaceID
}

func NewMemoryWorkplaceStore() *MemoryWorkplaceStore {
	return &MemoryWorkplaceStore{workplaces: make(map[id.WorkplaceID]workplace.ReusableWorkplace)}
}

func (s *MemoryWorkplaceStore) Create(ctx context.Context, wp workplace.ReusableWorkplace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.workplaces[wp.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.workplaces {
		if existing.UserID == wp.UserID && strings.EqualFold(existing.Name, wp.Name) {
			return sentinel.ErrConflict
		}
	}
	s.workplaces[wp.ID] = cloneWorkplace(wp)
	s.order = append(s.order, wp.ID)
	return nil
}

func (s *MemoryWorkplaceStore) FindByID(ctx context.Context, workplaceID id.WorkplaceID) (workplace.ReusableWorkplace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wp, exists := s.workplaces[workplaceID]
	if !exists {
		return workplace.ReusableWorkplace{}, sentinel.ErrNotFound
	}
	return cloneWorkplace(wp), nil
}

func (s *MemoryWorkplaceStore) Touch(ctx context.Context, workplaceID id.WorkplaceID, usedAt time.Time) (workplace.ReusableWorkplace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wp, exists := s.workplaces[workplaceID]
	if !exists {
		return workplace.ReusableWorkplace{}, sentinel.ErrNotFound
	}
	wp.UsageCount++
	wp.LastUsedAt = &usedAt
	s.workplaces[workplaceID] = wp
	return cloneWorkplace(wp), nil
}

func (s *MemoryWorkplaceStore) ListActiveByUser(ctx context.Context, userID id.UserID) ([]workplace.ReusableWorkplace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []workplace.ReusableWorkplace
	for _, workplaceID := range s.order {
		wp := s.workplaces[workplaceID]
		if wp.UserID == userID && wp.IsActive {
			out = append(out, cloneWorkplace(wp))
		}
	}
	return out, nil
}

func (s *MemoryWorkplaceStore) Deactivate(ctx context.Context, workplaceID id.WorkplaceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wp, exists := s.workplaces[workplaceID]
	if !exists {
		return sentinel.ErrNotFound
	}
	wp.IsActive = false
	s.workplaces[workplaceID] = wp
	return nil
}

func cloneWorkplace(wp workplace.ReusableWorkplace) workplace.ReusableWorkplace {
	if wp.LastUsedAt != nil {
		at := *wp.LastUsedAt
		wp.LastUsedAt = &at
	}
	return wp
}
