package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"timeclock/internal/audit"
	auditmem "timeclock/internal/audit/store/memory"
	"timeclock/internal/geofence"
	"timeclock/internal/notify"
	"timeclock/internal/policy"
	"timeclock/internal/verification"
	"timeclock/internal/verification/mocks"
	"timeclock/internal/verification/store"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
	"timeclock/pkg/platform/circuit"
)

type recordingNotifier struct {
	events []notify.Event
}

func (n *recordingNotifier) Enqueue(event notify.Event) {
	n.events = append(n.events, event)
}

type fixture struct {
	svc      *Service
	provider *mocks.MockProvider
	store    *store.MemorySessionStore
	auditor  *auditmem.Store
	notifier *recordingNotifier
}

func newFixture(t *testing.T, pol policy.Attendance, opts ...Option) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		provider: mocks.NewMockProvider(ctrl),
		store:    store.NewMemorySessionStore(),
		auditor:  auditmem.New(),
		notifier: &recordingNotifier{},
	}
	opts = append([]Option{
		WithAuditPublisher(audit.NewPublisher(f.auditor)),
		WithNotifier(f.notifier),
	}, opts...)
	f.svc = New(f.store, f.provider, pol, opts...)
	return f
}

func sample(ref string) verification.Sample {
	return verification.Sample{
		ImageRef:   ref,
		Fix:        geofence.LocationFix{Latitude: 37.7749, Longitude: -122.4194, AccuracyMeters: 12},
		CapturedAt: time.Now(),
	}
}

func TestStart(t *testing.T) {
	ctx := context.Background()

	t.Run("opens a capturing session", func(t *testing.T) {
		f := newFixture(t, policy.Default())

		sess, err := f.svc.Start(ctx, StartRequest{
			UserID: id.NewUserID(), EventID: id.NewEventID(), PunchType: id.PunchClockIn,
		})
		require.NoError(t, err)
		assert.Equal(t, verification.StateCapturing, sess.State)
		assert.Equal(t, 3, sess.MaxAttempts)

		events, _ := f.auditor.ListByUser(ctx, sess.UserID)
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionSessionStarted, events[0].Action)
	})

	t.Run("explicit attempt limit overrides policy", func(t *testing.T) {
		f := newFixture(t, policy.Default())
		sess, err := f.svc.Start(ctx, StartRequest{
			UserID: id.NewUserID(), EventID: id.NewEventID(), PunchType: id.PunchClockIn, MaxAttempts: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, 5, sess.MaxAttempts)
	})

	t.Run("second start resumes the open session", func(t *testing.T) {
		f := newFixture(t, policy.Default())
		req := StartRequest{UserID: id.NewUserID(), EventID: id.NewEventID(), PunchType: id.PunchClockOut}

		first, err := f.svc.Start(ctx, req)
		require.NoError(t, err)
		second, err := f.svc.Start(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("rejects missing identifiers", func(t *testing.T) {
		f := newFixture(t, policy.Default())
		_, err := f.svc.Start(ctx, StartRequest{PunchType: id.PunchClockIn})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects unknown punch type", func(t *testing.T) {
		f := newFixture(t, policy.Default())
		_, err := f.svc.Start(ctx, StartRequest{UserID: id.NewUserID(), EventID: id.NewEventID()})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestSubmitSample(t *testing.T) {
	ctx := context.Background()

	t.Run("success completes the session", func(t *testing.T) {
		f := newFixture(t, policy.Default())
		sess, _ := f.svc.Start(ctx, StartRequest{UserID: id.NewUserID(), EventID: id.NewEventID(), PunchType: id.PunchClockIn})

		f.provider.EXPECT().
			Verify(gomock.Any(), sess.UserID.String(), gomock.Any()).
			Return(verification.Outcome{Success: true, ConfidencePercent: 98.2}, nil)

		got, err := f.svc.SubmitSample(ctx, sess.ID, sample("img://one"))
		require.NoError(t, err)
		assert.Equal(t, verification.StateCompleted, got.State)
		require.NotNil(t, got.Result)
		assert.Equal(t, "img://one", got.Result.FinalImageRef)
		assert.InDelta(t, 98.2, got.Result.AvgConfidence, 0.001)

		events, _ := f.auditor.ListBySubject(ctx, sess.ID.String())
		require.Len(t, events, 2)
		assert.Equal(t, audit.ActionSessionCompleted, events[1].Action)
	})

	t.Run("judged failure consumes a slot and stays retryable", func(t *testing.T) {
		f := newFixture(t, policy.Default())
		sess, _ := f.svc.Start(ctx, StartRequest{UserID: id.NewUserID(), EventID: id.NewEventID(), PunchType: id.PunchClockIn})

		f.provider.EXPECT().
			Verify(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(verification.Outcome{Success: false, FailureReason: "face mismatch"}, nil)

		got, err := f.svc.SubmitSample(ctx, sess.ID, sample("img://one"))
		require.NoError(t, err)
		assert.Equal(t, verification.StateCapturing, got.State)
		assert.Len(t, got.Attempts, 1)
	})

	t.Run("exhausting attempts fails the session and notifies", func(t *testing.T) {
		f := newFixture(t, policy.Default())
		sess, _ := f.svc.Start(ctx, StartRequest{UserID: id.NewUserID(), EventID: id.NewEventID(), PunchType: id.PunchClockIn})

		f.provider.EXPECT().
			Verify(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(verification.Outcome{Success: false, FailureReason: "face mismatch"}, nil).
			Times(3)

		var got verification.Session
		var err error
		for i := 0; i < 2; i++ {
			got, err = f.svc.SubmitSample(ctx, sess.ID, sample("img://x"))
			require.NoError(t, err)
		}
		got, err = f.svc.SubmitSample(ctx, sess.ID, sample("img://x"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.Equal(t, verification.StateFailed, got.State)
		assert.Len(t, got.Attempts, 3)

		require.Len(t, f.notifier.events, 1)
		assert.Equal(t, notify.EventVerificationFailed, f.notifier.events[0].Type)
		assert.Equal(t, "3", f.notifier.events[0].Payload["attempts"])

		// A fourth sample is rejected outright.
		_, err = f.svc.SubmitSample(ctx, sess.ID, sample("img://x"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("provider outage does not consume a slot", func(t *testing.T) {
		f := newFixture(t, policy.Default())
		sess, _ := f.svc.Start(ctx, StartRequest{UserID: id.NewUserID(), EventID: id.NewEventID(), PunchType: id.PunchClockIn})

		f.provider.EXPECT().
			Verify(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(verification.Outcome{}, verification.ErrProviderUnavailable)

		_, err := f.svc.SubmitSample(ctx, sess.ID, sample("img://x"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

		got, err := f.svc.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, verification.StateCapturing, got.State)
		assert.Empty(t, got.Attempts)

		// Retry succeeds with all slots intact.
		f.provider.EXPECT().
			Verify(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(verification.Outcome{Success: true, ConfidencePercent: 91}, nil)
		got, err = f.svc.SubmitSample(ctx, sess.ID, sample("img://y"))
		require.NoError(t, err)
		assert.Equal(t, verification.StateCompleted, got.State)
		assert.Len(t, got.Attempts, 1)
	})

	t.Run("provider timeout maps to unavailable", func(t *testing.T) {
		f := newFixture(t, policy.Default())
		sess, _ := f.svc.Start(ctx, StartRequest{UserID: id.NewUserID(), EventID: id.NewEventID(), PunchType: id.PunchClockIn})

		f.provider.EXPECT().
			Verify(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(verification.Outcome{}, context.DeadlineExceeded)

		_, err := f.svc.SubmitSample(ctx, sess.ID, sample("img://x"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
		assert.ErrorIs(t, err, verification.ErrProviderUnavailable)
	})

	t.Run("open breaker short-circuits without calling the provider", func(t *testing.T) {
		breaker := circuit.New("test-provider",
			circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour))
		f := newFixture(t, policy.Default(), WithBreaker(breaker))
		sess, _ := f.svc.Start(ctx, StartRequest{UserID: id.NewUserID(), EventID: id.NewEventID(), PunchType: id.PunchClockIn})

		f.provider.EXPECT().
			Verify(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(verification.Outcome{}, errors.New("connection refused")).
			Times(1)

		_, err := f.svc.SubmitSample(ctx, sess.ID, sample("img://x"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

		// Breaker is open now; no further provider calls happen.
		_, err = f.svc.SubmitSample(ctx, sess.ID, sample("img://x"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newFixture(t, policy.Default())
		_, err := f.svc.SubmitSample(ctx, id.NewSessionID(), sample("img://x"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancelled session frees the event for a new session", func(t *testing.T) {
		f := newFixture(t, policy.Default())
		req := StartRequest{UserID: id.NewUserID(), EventID: id.NewEventID(), PunchType: id.PunchClockIn}
		sess, _ := f.svc.Start(ctx, req)

		got, err := f.svc.Cancel(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, verification.StateCancelled, got.State)

		fresh, err := f.svc.Start(ctx, req)
		require.NoError(t, err)
		assert.NotEqual(t, sess.ID, fresh.ID)
	})

	t.Run("cancel keeps attempts in the audit trail", func(t *testing.T) {
		f := newFixture(t, policy.Default())
		sess, _ := f.svc.Start(ctx, StartRequest{UserID: id.NewUserID(), EventID: id.NewEventID(), PunchType: id.PunchClockIn})

		f.provider.EXPECT().
			Verify(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(verification.Outcome{Success: false, FailureReason: "mismatch"}, nil)
		_, err := f.svc.SubmitSample(ctx, sess.ID, sample("img://x"))
		require.NoError(t, err)

		got, err := f.svc.Cancel(ctx, sess.ID)
		require.NoError(t, err)
		assert.Len(t, got.Attempts, 1)

		events, _ := f.auditor.ListBySubject(ctx, sess.ID.String())
		assert.Equal(t, audit.ActionSessionCancelled, events[len(events)-1].Action)
	})

	t.Run("cancel after settle conflicts", func(t *testing.T) {
		f := newFixture(t, policy.Default())
		sess, _ := f.svc.Start(ctx, StartRequest{UserID: id.NewUserID(), EventID: id.NewEventID(), PunchType: id.PunchClockIn})

		f.provider.EXPECT().
			Verify(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(verification.Outcome{Success: true, ConfidencePercent: 95}, nil)
		_, err := f.svc.SubmitSample(ctx, sess.ID, sample("img://x"))
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, sess.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newFixture(t, policy.Default())
		_, err := f.svc.Cancel(ctx, id.NewSessionID())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
