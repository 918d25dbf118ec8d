package audit

import (
	"context"
	"errors"

	id "timeclock/pkg/domain"
)

// ErrInboxFull means an audit event was dropped because the worker fell
// behind. Emitters log and carry on; audit writes never block a punch.
var ErrInboxFull = errors.New("audit inbox full")

// Inbox adapts a channel to the Store append path so emitters hand events to
// the worker instead of writing to the database inline. Reads go straight to
// the backing store.
type Inbox struct {
	ch    chan Event
	store Store
}

func NewInbox(store Store, size int) *Inbox {
	if size <= 0 {
		size = 1024
	}
	return &Inbox{ch: make(chan Event, size), store: store}
}

func (i *Inbox) Append(_ context.Context, event Event) error {
	select {
	case i.ch <- event:
		return nil
	default:
		return ErrInboxFull
	}
}

func (i *Inbox) ListByUser(ctx context.Context, userID id.UserID) ([]Event, error) {
	return i.store.ListByUser(ctx, userID)
}

func (i *Inbox) ListBySubject(ctx context.Context, subject string) ([]Event, error) {
	return i.store.ListBySubject(ctx, subject)
}

// Chan exposes the drain side for the worker.
func (i *Inbox) Chan() <-chan Event { return i.ch }

// Worker consumes audit events from a channel and persists them.
type Worker struct {
	store Store
	inbox <-chan Event
}

func NewWorker(store Store, inbox <-chan Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}
