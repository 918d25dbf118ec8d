package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/audit"
	auditmem "timeclock/internal/audit/store/memory"
	"timeclock/internal/geofence/store"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
)

func validSave() SaveRequest {
	return SaveRequest{
		Name:         "HQ",
		CenterLat:    37.7749,
		CenterLng:    -122.4194,
		RadiusMeters: 150,
		Address:      "1 Main St",
		IsActive:     true,
	}
}

func TestSaveZone(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a zone with a fresh id", func(t *testing.T) {
		zones := store.NewInMemoryZoneStore()
		svc := New(zones)

		zone, err := svc.Save(ctx, validSave())
		require.NoError(t, err)
		assert.False(t, zone.ID.IsNil())
		assert.True(t, zone.IsActive)

		active, err := zones.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "HQ", active[0].Name)
	})

	t.Run("update keeps the id and replaces fields", func(t *testing.T) {
		zones := store.NewInMemoryZoneStore()
		svc := New(zones)

		zone, err := svc.Save(ctx, validSave())
		require.NoError(t, err)

		req := validSave()
		req.ID = &zone.ID
		req.RadiusMeters = 400
		updated, err := svc.Save(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, zone.ID, updated.ID)
		assert.Equal(t, 400.0, updated.RadiusMeters)

		all, err := zones.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("update of unknown zone returns not found", func(t *testing.T) {
		svc := New(store.NewInMemoryZoneStore())

		ghost := id.NewZoneID()
		req := validSave()
		req.ID = &ghost
		_, err := svc.Save(ctx, req)
		assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	t.Run("rejects blank names and bad geometry", func(t *testing.T) {
		svc := New(store.NewInMemoryZoneStore())

		req := validSave()
		req.Name = "   "
		_, err := svc.Save(ctx, req)
		assert.Equal(t, dErrors.CodeInvalidInput, dErrors.CodeOf(err))

		req = validSave()
		req.CenterLat = 91
		_, err = svc.Save(ctx, req)
		assert.Equal(t, dErrors.CodeInvalidInput, dErrors.CodeOf(err))

		req = validSave()
		req.RadiusMeters = 0
		_, err = svc.Save(ctx, req)
		assert.Equal(t, dErrors.CodeInvalidInput, dErrors.CodeOf(err))
	})

	t.Run("allowed methods become a set", func(t *testing.T) {
		svc := New(store.NewInMemoryZoneStore())

		req := validSave()
		req.AllowedMethods = []string{"face", "Face", " PIN "}
		zone, err := svc.Save(ctx, req)
		require.NoError(t, err)
		assert.Len(t, zone.AllowedMethods, 2)
		_, ok := zone.AllowedMethods["face"]
		assert.True(t, ok)
		_, ok = zone.AllowedMethods["pin"]
		assert.True(t, ok)
	})

	t.Run("saving emits an audit event", func(t *testing.T) {
		events := auditmem.New()
		svc := New(store.NewInMemoryZoneStore(),
			WithAuditPublisher(audit.NewPublisher(events)))

		zone, err := svc.Save(ctx, validSave())
		require.NoError(t, err)

		recorded, err := events.ListBySubject(ctx, zone.ID.String())
		require.NoError(t, err)
		require.Len(t, recorded, 1)
		assert.Equal(t, audit.ActionZoneSaved, recorded[0].Action)
		assert.Equal(t, "active", recorded[0].Outcome)
	})
}

func TestDeactivateZone(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the zone from matching", func(t *testing.T) {
		zones := store.NewInMemoryZoneStore()
		svc := New(zones)

		zone, err := svc.Save(ctx, validSave())
		require.NoError(t, err)

		retired, err := svc.Deactivate(ctx, zone.ID)
		require.NoError(t, err)
		assert.False(t, retired.IsActive)

		active, err := zones.ListActive(ctx)
		require.NoError(t, err)
		assert.Empty(t, active)
	})

	t.Run("is idempotent", func(t *testing.T) {
		svc := New(store.NewInMemoryZoneStore())

		zone, err := svc.Save(ctx, validSave())
		require.NoError(t, err)

		_, err = svc.Deactivate(ctx, zone.ID)
		require.NoError(t, err)
		again, err := svc.Deactivate(ctx, zone.ID)
		require.NoError(t, err)
		assert.False(t, again.IsActive)
	})

	t.Run("unknown zone returns not found", func(t *testing.T) {
		svc := New(store.NewInMemoryZoneStore())
		_, err := svc.Deactivate(ctx, id.NewZoneID())
		assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}
