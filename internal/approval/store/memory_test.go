package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/approval"
	id "timeclock/pkg/domain"
	"timeclock/pkg/platform/sentinel"
)

func pendingRequest(reqType approval.Type, at time.Time) approval.Request {
	return approval.Request{
		ID:            id.NewApprovalID(),
		SourceEventID: id.NewEventID(),
		UserID:        id.NewUserID(),
		RequestType:   reqType,
		Reason:        "worked from client site",
		Status:        approval.StatusPending,
		RequestedAt:   at,
	}
}

func TestMemoryRequestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create rejects duplicate id", func(t *testing.T) {
		store := NewMemoryRequestStore()
		req := pendingRequest(approval.TypeTemporaryWorkplace, time.Now())
		require.NoError(t, store.Create(ctx, req))
		assert.ErrorIs(t, store.Create(ctx, req), sentinel.ErrConflict)
	})

	t.Run("decide settles pending exactly once", func(t *testing.T) {
		store := NewMemoryRequestStore()
		req := pendingRequest(approval.TypeOvertime, time.Now())
		require.NoError(t, store.Create(ctx, req))

		managerID := id.NewUserID()
		decided, err := store.Decide(ctx, req.ID, approval.StatusApproved, managerID, time.Now())
		require.NoError(t, err)
		assert.Equal(t, approval.StatusApproved, decided.Status)
		require.NotNil(t, decided.ManagerID)
		assert.Equal(t, managerID, *decided.ManagerID)
		require.NotNil(t, decided.DecidedAt)

		_, err = store.Decide(ctx, req.ID, approval.StatusRejected, managerID, time.Now())
		assert.ErrorIs(t, err, sentinel.ErrAlreadyDecided)
	})

	t.Run("decide unknown id", func(t *testing.T) {
		store := NewMemoryRequestStore()
		_, err := store.Decide(ctx, id.NewApprovalID(), approval.StatusApproved, id.NewUserID(), time.Now())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("list filters by type status user and window", func(t *testing.T) {
		store := NewMemoryRequestStore()
		base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

		overtime := pendingRequest(approval.TypeOvertime, base)
		late := pendingRequest(approval.TypeLate, base.Add(time.Hour))
		workplace := pendingRequest(approval.TypeTemporaryWorkplace, base.Add(2*time.Hour))
		for _, req := range []approval.Request{overtime, late, workplace} {
			require.NoError(t, store.Create(ctx, req))
		}
		_, err := store.Decide(ctx, late.ID, approval.StatusRejected, id.NewUserID(), base.Add(3*time.Hour))
		require.NoError(t, err)

		byType := approval.TypeOvertime
		got, err := store.List(ctx, approval.Filter{RequestType: &byType})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, overtime.ID, got[0].ID)

		pending := approval.StatusPending
		got, err = store.List(ctx, approval.Filter{Status: &pending})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = store.List(ctx, approval.Filter{UserID: &workplace.UserID})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, workplace.ID, got[0].ID)

		from := base.Add(30 * time.Minute)
		to := base.Add(90 * time.Minute)
		got, err = store.List(ctx, approval.Filter{From: &from, To: &to})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, late.ID, got[0].ID)
	})

	t.Run("list orders oldest first", func(t *testing.T) {
		store := NewMemoryRequestStore()
		base := time.Now()
		newer := pendingRequest(approval.TypeLate, base.Add(time.Hour))
		older := pendingRequest(approval.TypeLate, base)
		require.NoError(t, store.Create(ctx, newer))
		require.NoError(t, store.Create(ctx, older))

		got, err := store.List(ctx, approval.Filter{})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, older.ID, got[0].ID)
	})
}

func TestMemoryRequestStoreConcurrentDecide(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRequestStore()
	req := pendingRequest(approval.TypeOvertime, time.Now())
	require.NoError(t, store.Create(ctx, req))

	const workers = 20
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Decide(ctx, req.ID, approval.StatusApproved, id.NewUserID(), time.Now())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok int
	for err := range results {
		if err == nil {
			ok++
		} else {
			require.ErrorIs(t, err, sentinel.ErrAlreadyDecided)
		}
	}
	assert.Equal(t, 1, ok, "exactly one decision must win")
}
