package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"timeclock/internal/approval"
	id "timeclock/pkg/domain"
	"timeclock/pkg/platform/sentinel"
)

// MemoryRequestStore is an in-memory RequestStore for tests and development.
type MemoryRequestStore struct {
	mu       sync.Mutex
	requests map[id.ApprovalID]approval.Request
	order    []id.ApprovalID
}

func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{requests: make(map[id.ApprovalID]approval.Request)}
}

func (s *MemoryRequestStore) Create(ctx context.Context, req approval.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requests[req.ID] = cloneRequest(req)
	s.order = append(s.order, req.ID)
	return nil
}

func (s *MemoryRequestStore) FindByID(ctx context.Context, requestID id.ApprovalID) (approval.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, exists := s.requests[requestID]
	if !exists {
		return approval.Request{}, sentinel.ErrNotFound
	}
	return cloneRequest(req), nil
}

func (s *MemoryRequestStore) Decide(ctx context.Context, requestID id.ApprovalID, status approval.Status, managerID id.UserID, decidedAt time.Time) (approval.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, exists := s.requests[requestID]
	if !exists {
		return approval.Request{}, sentinel.ErrNotFound
	}
	if req.Status != approval.StatusPending {
		return approval.Request{}, sentinel.ErrAlreadyDecided
	}

	req.Status = status
	req.ManagerID = &managerID
	req.DecidedAt = &decidedAt
	s.requests[requestID] = req
	return cloneRequest(req), nil
}

func (s *MemoryRequestStore) List(ctx context.Context, filter approval.Filter) ([]approval.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []approval.Request
	for _, requestID := range s.order {
		req := s.requests[requestID]
		if filter.Matches(req) {
			out = append(out, cloneRequest(req))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RequestedAt.Before(out[j].RequestedAt)
	})
	return out, nil
}

func cloneRequest(req approval.Request) approval.Request {
	if req.ManagerID != nil {
		managerID := *req.ManagerID
		req.ManagerID = &managerID
	}
	if req.DecidedAt != nil {
		at := *req.DecidedAt
		req.DecidedAt = &at
	}
	return req
}
