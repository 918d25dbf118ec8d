package notify

import (
	"context"
	"sync"
)

// Sink delivers events to their destination.
type Sink interface {
	Publish(ctx context.Context, events []Event) error
}

// MemorySink collects published events in process. Used in tests and as the
// default sink when no broker is configured.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Publish(_ context.Context, events []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

// Events returns a copy of everything published so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event{}, s.events...)
}
