package punch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	approvalsvc "timeclock/internal/approval/service"
	approvalstore "timeclock/internal/approval/store"
	"timeclock/internal/geofence"
	geofencestore "timeclock/internal/geofence/store"
	"timeclock/internal/notify"
	"timeclock/internal/policy"
	"timeclock/internal/verification"
	verificationsvc "timeclock/internal/verification/service"
	verificationstore "timeclock/internal/verification/store"
	"timeclock/internal/workplace"
	workplacesvc "timeclock/internal/workplace/service"
	workplacestore "timeclock/internal/workplace/store"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
)

type staticProvider struct{}

func (staticProvider) Verify(context.Context, string, verification.Sample) (verification.Outcome, error) {
	return verification.Outcome{Success: true, ConfidencePercent: 99}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Enqueue(event notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Event(nil), n.events...)
}

type fixture struct {
	svc      *Service
	zones    *geofencestore.InMemoryZoneStore
	sessions *verificationstore.MemorySessionStore
	records  *workplacestore.MemoryRecordStore
	wpSvc    *workplacesvc.Service
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pol := policy.Default()
	f := &fixture{
		zones:    geofencestore.NewInMemoryZoneStore(),
		sessions: verificationstore.NewMemorySessionStore(),
		records:  workplacestore.NewMemoryRecordStore(),
		notifier: &recordingNotifier{},
	}
	f.wpSvc = workplacesvc.New(f.records, workplacestore.NewMemoryWorkplaceStore(), pol,
		workplacesvc.WithApprovals(approvalsvc.New(approvalstore.NewMemoryRequestStore())),
	)
	verifier := verificationsvc.New(f.sessions, staticProvider{}, pol)
	f.svc = New(f.zones, verifier, f.wpSvc, WithNotifier(f.notifier))
	return f
}

func (f *fixture) addZone(t *testing.T, lat, lng, radius float64) geofence.Zone {
	t.Helper()
	zone := geofence.Zone{
		ID: id.NewZoneID(), Name: "Main Office",
		CenterLat: lat, CenterLng: lng, RadiusMeters: radius,
		IsActive: true,
	}
	require.NoError(t, f.zones.Save(context.Background(), zone))
	return zone
}

func punchReq(userID id.UserID, lat, lng float64) Request {
	return Request{
		UserID:    userID,
		EventID:   id.NewEventID(),
		PunchType: id.PunchClockIn,
		Fix: &geofence.LocationFix{
			Latitude: lat, Longitude: lng, AccuracyMeters: 10,
			CapturedAt: time.Now().UTC(),
		},
		Reason: "client visit",
	}
}

func TestPunch(t *testing.T) {
	ctx := context.Background()

	t.Run("in-zone punch opens a verification session", func(t *testing.T) {
		f := newFixture(t)
		zone := f.addZone(t, 37.7749, -122.4194, 100)

		result, err := f.svc.Punch(ctx, punchReq(id.NewUserID(), 37.7749, -122.4194))
		require.NoError(t, err)

		assert.False(t, result.Accepted)
		assert.True(t, result.WithinZone)
		require.NotNil(t, result.Zone)
		assert.Equal(t, zone.ID, result.Zone.ID)
		assert.InDelta(t, 0, result.DistanceMeters, 0.5)
		require.NotNil(t, result.SessionID)
		assert.Nil(t, result.RecordID)

		sess, err := f.sessions.FindByID(ctx, *result.SessionID)
		require.NoError(t, err)
		assert.Equal(t, verification.StateCapturing, sess.State)
	})

	t.Run("out-of-zone punch captures a workplace record", func(t *testing.T) {
		f := newFixture(t)
		f.addZone(t, 37.7749, -122.4194, 100)
		userID := id.NewUserID()

		// Roughly 200m north of the zone center.
		result, err := f.svc.Punch(ctx, punchReq(userID, 37.7767, -122.4194))
		require.NoError(t, err)

		assert.True(t, result.Accepted)
		assert.False(t, result.WithinZone)
		assert.Greater(t, result.DistanceMeters, 100.0)
		assert.Nil(t, result.SessionID)
		require.NotNil(t, result.RecordID)
		require.NotNil(t, result.PendingApprovalID)

		records, err := f.records.ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, records, 1)

		events := f.notifier.Events()
		require.Len(t, events, 1)
		assert.Equal(t, notify.EventPunchRecorded, events[0].Type)
		assert.Equal(t, result.RecordID.String(), events[0].Subject)
	})

	t.Run("no active zones routes out of zone", func(t *testing.T) {
		f := newFixture(t)

		result, err := f.svc.Punch(ctx, punchReq(id.NewUserID(), 37.7749, -122.4194))
		require.NoError(t, err)
		assert.True(t, result.Accepted)
		assert.Nil(t, result.Zone)
		assert.False(t, result.WithinZone)
	})

	t.Run("missing fix rejects without writing", func(t *testing.T) {
		f := newFixture(t)
		f.addZone(t, 37.7749, -122.4194, 100)
		userID := id.NewUserID()

		req := punchReq(userID, 0, 0)
		req.Fix = nil
		_, err := f.svc.Punch(ctx, req)
		assert.ErrorIs(t, err, ErrLocationUnavailable)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

		records, _ := f.records.ListByUser(ctx, userID)
		assert.Empty(t, records)
		assert.Empty(t, f.notifier.Events())
	})

	t.Run("policy violation on the workplace path propagates", func(t *testing.T) {
		f := newFixture(t)
		userID := id.NewUserID()

		req := punchReq(userID, 37.7749, -122.4194)
		req.Reason = ""
		_, err := f.svc.Punch(ctx, req)
		assert.ErrorIs(t, err, workplace.ErrMissingReason)

		records, _ := f.records.ListByUser(ctx, userID)
		assert.Empty(t, records)
		assert.Empty(t, f.notifier.Events())
	})

	t.Run("unknown reusable workplace fails before capture", func(t *testing.T) {
		f := newFixture(t)
		userID := id.NewUserID()

		req := punchReq(userID, 37.7749, -122.4194)
		ghost := id.NewWorkplaceID()
		req.ReusableWorkplaceID = &ghost
		_, err := f.svc.Punch(ctx, req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

		records, _ := f.records.ListByUser(ctx, userID)
		assert.Empty(t, records)
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newFixture(t)

		req := punchReq(id.NewUserID(), 37.7749, -122.4194)
		req.PunchType = "lunch"
		_, err := f.svc.Punch(ctx, req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		req = punchReq(id.NewUserID(), 37.7749, -122.4194)
		req.UserID = id.UserID{}
		_, err = f.svc.Punch(ctx, req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
