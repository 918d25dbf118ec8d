package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/geofence"
	id "timeclock/pkg/domain"
	"timeclock/pkg/platform/sentinel"
)

func zone(name string, active bool) geofence.Zone {
	return geofence.Zone{
		ID:           id.NewZoneID(),
		Name:         name,
		CenterLat:    37.7749,
		CenterLng:    -122.4194,
		RadiusMeters: 100,
		IsActive:     active,
	}
}

func TestInMemoryZoneStore(t *testing.T) {
	ctx := context.Background()

	t.Run("FindByID of missing zone returns not found", func(t *testing.T) {
		s := NewInMemoryZoneStore()
		_, err := s.FindByID(ctx, id.NewZoneID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("ListActive preserves insertion order and skips inactive", func(t *testing.T) {
		s := NewInMemoryZoneStore()
		a := zone("A", true)
		b := zone("B", false)
		c := zone("C", true)
		require.NoError(t, s.Save(ctx, a))
		require.NoError(t, s.Save(ctx, b))
		require.NoError(t, s.Save(ctx, c))

		active, err := s.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, "A", active[0].Name)
		assert.Equal(t, "C", active[1].Name)
	})

	t.Run("Save with existing id replaces in place", func(t *testing.T) {
		s := NewInMemoryZoneStore()
		a := zone("A", true)
		require.NoError(t, s.Save(ctx, a))

		a.RadiusMeters = 250
		require.NoError(t, s.Save(ctx, a))

		got, err := s.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 250.0, got.RadiusMeters)

		all, err := s.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1, "replacing must not append a duplicate")
	})

	t.Run("deactivating a zone removes it from matching input", func(t *testing.T) {
		s := NewInMemoryZoneStore()
		a := zone("A", true)
		require.NoError(t, s.Save(ctx, a))

		a.IsActive = false
		require.NoError(t, s.Save(ctx, a))

		active, err := s.ListActive(ctx)
		require.NoError(t, err)
		assert.Empty(t, active)
	})
}

func TestInMemoryZoneStore_Concurrent(t *testing.T) {
	s := NewInMemoryZoneStore()
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(n int) {
			defer wg.Done()
			err := s.Save(ctx, zone(fmt.Sprintf("zone-%d", n), true))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, writers)
}
