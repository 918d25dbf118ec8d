package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/workplace"
	id "timeclock/pkg/domain"
	"timeclock/pkg/platform/sentinel"
)

func newRecord(userID id.UserID) workplace.Record {
	return workplace.Record{
		ID:        id.NewRecordID(),
		UserID:    userID,
		Date:      time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC),
		PunchType: id.PunchClockIn,
		PunchTime: time.Date(2026, 5, 11, 9, 2, 0, 0, time.UTC),
		Reason:    "client visit",
		CreatedAt: time.Date(2026, 5, 11, 9, 2, 1, 0, time.UTC),
	}
}

func newWorkplace(userID id.UserID, name string) workplace.ReusableWorkplace {
	return workplace.ReusableWorkplace{
		ID:         id.NewWorkplaceID(),
		UserID:     userID,
		Name:       name,
		Latitude:   35.6812,
		Longitude:  139.7671,
		Reason:     "client site",
		IsActive:   true,
		UsageCount: 1,
	}
}

func TestMemoryRecordStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		s := NewMemoryRecordStore()
		rec := newRecord(id.NewUserID())
		require.NoError(t, s.Create(ctx, rec))

		got, err := s.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.Reason, got.Reason)
	})

	t.Run("unknown record", func(t *testing.T) {
		s := NewMemoryRecordStore()
		_, err := s.FindByID(ctx, id.NewRecordID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("list by user oldest first", func(t *testing.T) {
		s := NewMemoryRecordStore()
		userID := id.NewUserID()

		first := newRecord(userID)
		second := newRecord(userID)
		second.PunchTime = first.PunchTime.Add(8 * time.Hour)
		require.NoError(t, s.Create(ctx, first))
		require.NoError(t, s.Create(ctx, second))
		require.NoError(t, s.Create(ctx, newRecord(id.NewUserID())))

		got, err := s.ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, first.ID, got[0].ID)
		assert.Equal(t, second.ID, got[1].ID)
	})
}

func TestMemoryWorkplaceStore(t *testing.T) {
	ctx := context.Background()

	t.Run("name unique per user, case-insensitive", func(t *testing.T) {
		s := NewMemoryWorkplaceStore()
		userID := id.NewUserID()
		require.NoError(t, s.Create(ctx, newWorkplace(userID, "Client HQ")))

		err := s.Create(ctx, newWorkplace(userID, "client hq"))
		assert.ErrorIs(t, err, sentinel.ErrConflict)

		// Same name under a different user is fine.
		assert.NoError(t, s.Create(ctx, newWorkplace(id.NewUserID(), "Client HQ")))
	})

	t.Run("touch bumps usage and stamps last used", func(t *testing.T) {
		s := NewMemoryWorkplaceStore()
		wp := newWorkplace(id.NewUserID(), "Client HQ")
		require.NoError(t, s.Create(ctx, wp))

		usedAt := time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC)
		got, err := s.Touch(ctx, wp.ID, usedAt)
		require.NoError(t, err)
		assert.Equal(t, 2, got.UsageCount)
		require.NotNil(t, got.LastUsedAt)
		assert.True(t, got.LastUsedAt.Equal(usedAt))

		_, err = s.Touch(ctx, id.NewWorkplaceID(), usedAt)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("deactivate hides from active list", func(t *testing.T) {
		s := NewMemoryWorkplaceStore()
		userID := id.NewUserID()
		wp := newWorkplace(userID, "Client HQ")
		require.NoError(t, s.Create(ctx, wp))
		require.NoError(t, s.Create(ctx, newWorkplace(userID, "Branch Office")))

		require.NoError(t, s.Deactivate(ctx, wp.ID))

		active, err := s.ListActiveByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "Branch Office", active[0].Name)

		// The row itself survives for history.
		got, err := s.FindByID(ctx, wp.ID)
		require.NoError(t, err)
		assert.False(t, got.IsActive)
	})

	t.Run("stored value isolated from caller mutation", func(t *testing.T) {
		s := NewMemoryWorkplaceStore()
		wp := newWorkplace(id.NewUserID(), "Client HQ")
		require.NoError(t, s.Create(ctx, wp))

		wp.Name = "mutated"
		got, err := s.FindByID(ctx, wp.ID)
		require.NoError(t, err)
		assert.Equal(t, "Client HQ", got.Name)
	})
}
