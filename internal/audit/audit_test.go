package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/audit"
	"timeclock/internal/audit/store/memory"
	id "timeclock/pkg/domain"
)

func TestPublisherStampsTimestamp(t *testing.T) {
	store := memory.New()
	pub := audit.NewPublisher(store)
	userID := id.NewUserID()

	err := pub.Emit(context.Background(), audit.Event{
		UserID: userID,
		Action: audit.ActionSessionStarted,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisherKeepsExplicitTimestamp(t *testing.T) {
	store := memory.New()
	pub := audit.NewPublisher(store)
	userID := id.NewUserID()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	err := pub.Emit(context.Background(), audit.Event{
		Timestamp: at,
		UserID:    userID,
		Action:    audit.ActionPunchRecorded,
	})
	require.NoError(t, err)

	events, _ := pub.List(context.Background(), userID)
	require.Len(t, events, 1)
	assert.Equal(t, at, events[0].Timestamp)
}

func TestListBySubjectFiltersAcrossUsers(t *testing.T) {
	store := memory.New()
	pub := audit.NewPublisher(store)
	ctx := context.Background()
	sessionID := id.NewSessionID().String()

	require.NoError(t, pub.Emit(ctx, audit.Event{UserID: id.NewUserID(), Subject: sessionID, Action: audit.ActionSessionStarted}))
	require.NoError(t, pub.Emit(ctx, audit.Event{UserID: id.NewUserID(), Subject: "other", Action: audit.ActionSessionStarted}))
	require.NoError(t, pub.Emit(ctx, audit.Event{UserID: id.NewUserID(), Subject: sessionID, Action: audit.ActionSessionCancelled}))

	events, err := pub.ListBySubject(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionSessionStarted, events[0].Action)
	assert.Equal(t, audit.ActionSessionCancelled, events[1].Action)
}

func TestInboxDropsWhenFull(t *testing.T) {
	inbox := audit.NewInbox(memory.New(), 1)
	ctx := context.Background()

	require.NoError(t, inbox.Append(ctx, audit.Event{Action: audit.ActionPunchRecorded}))
	assert.ErrorIs(t, inbox.Append(ctx, audit.Event{Action: audit.ActionPunchRecorded}), audit.ErrInboxFull)
}

func TestPublisherThroughInboxAndWorker(t *testing.T) {
	store := memory.New()
	inbox := audit.NewInbox(store, 8)
	worker := audit.NewWorker(store, inbox.Chan())
	pub := audit.NewPublisher(inbox)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	userID := id.NewUserID()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{UserID: userID, Action: audit.ActionSessionStarted}))

	require.Eventually(t, func() bool {
		events, err := store.ListByUser(context.Background(), userID)
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestWorkerPersistsFromInbox(t *testing.T) {
	store := memory.New()
	inbox := make(chan audit.Event, 1)
	worker := audit.NewWorker(store, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	userID := id.NewUserID()
	inbox <- audit.Event{Timestamp: time.Now(), UserID: userID, Action: audit.ActionApprovalRequested}

	require.Eventually(t, func() bool {
		events, err := store.ListByUser(context.Background(), userID)
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
