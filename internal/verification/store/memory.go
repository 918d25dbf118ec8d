package store

import (
	"context"
	"sync"

	"timeclock/internal/verification"
	id "timeclock/pkg/domain"
	"timeclock/pkg/platform/sentinel"
)

type openKey struct {
	userID  id.UserID
	eventID id.EventID
}

// MemorySessionStore is an in-memory SessionStore for tests and development.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]verification.Session
	open     map[openKey]id.SessionID
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[id.SessionID]verification.Session),
		open:     make(map[openKey]id.SessionID),
	}
}

func (s *MemorySessionStore) Create(ctx context.Context, sess verification.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := openKey{userID: sess.UserID, eventID: sess.EventID}
	if _, exists := s.open[key]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.sessions[sess.ID]; exists {
		return sentinel.ErrConflict
	}

	s.sessions[sess.ID] = cloneSession(sess)
	if !sess.State.IsTerminal() {
		s.open[key] = sess.ID
	}
	return nil
}

func (s *MemorySessionStore) Update(ctx context.Context, sess verification.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; !exists {
		return sentinel.ErrNotFound
	}

	s.sessions[sess.ID] = cloneSession(sess)
	key := openKey{userID: sess.UserID, eventID: sess.EventID}
	if sess.State.IsTerminal() {
		if s.open[key] == sess.ID {
			delete(s.open, key)
		}
	} else {
		s.open[key] = sess.ID
	}
	return nil
}

func (s *MemorySessionStore) FindByID(ctx context.Context, sessionID id.SessionID) (verification.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[sessionID]
	if !exists {
		return verification.Session{}, sentinel.ErrNotFound
	}
	return cloneSession(sess), nil
}

func (s *MemorySessionStore) FindOpen(ctx context.Context, userID id.UserID, eventID id.EventID) (verification.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionID, exists := s.open[openKey{userID: userID, eventID: eventID}]
	if !exists {
		return verification.Session{}, sentinel.ErrNotFound
	}
	return cloneSession(s.sessions[sessionID]), nil
}

func cloneSession(sess verification.Session) verification.Session {
	if sess.Attempts != nil {
		attempts := make([]verification.Attempt, len(sess.Attempts))
		copy(attempts, sess.Attempts)
		sess.Attempts = attempts
	}
	if sess.CompletedAt != nil {
		at := *sess.CompletedAt
		sess.CompletedAt = &at
	}
	if sess.Result != nil {
		res := *sess.Result
		sess.Result = &res
	}
	return sess
}
