//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"timeclock/internal/verification"
	"timeclock/internal/verification/store"
	id "timeclock/pkg/domain"
	"timeclock/pkg/platform/sentinel"
	"timeclock/pkg/testutil/containers"
)

type RedisSessionStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisSessionStore
}

func TestRedisSessionStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisSessionStoreSuite))
}

func (s *RedisSessionStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = store.NewRedisSessionStore(s.redis.Client)
}

func (s *RedisSessionStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisSessionStoreSuite) newSession() verification.Session {
	sess := verification.NewSession(id.NewUserID(), id.NewEventID(), id.PunchClockOut, 3, time.Now().UTC())
	sess, _ = sess.WithCaptureStarted()
	return sess
}

func (s *RedisSessionStoreSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()
	sess := s.newSession()

	s.Require().NoError(s.store.Create(ctx, sess))

	got, err := s.store.FindByID(ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(sess.ID, got.ID)
	s.Equal(sess.UserID, got.UserID)
	s.Equal(verification.StateCapturing, got.State)
}

func (s *RedisSessionStoreSuite) TestOpenClaimBlocksSecondSession() {
	ctx := context.Background()
	first := s.newSession()
	s.Require().NoError(s.store.Create(ctx, first))

	second := verification.NewSession(first.UserID, first.EventID, id.PunchClockOut, 3, time.Now())
	second, _ = second.WithCaptureStarted()
	s.ErrorIs(s.store.Create(ctx, second), sentinel.ErrConflict)

	open, err := s.store.FindOpen(ctx, first.UserID, first.EventID)
	s.Require().NoError(err)
	s.Equal(first.ID, open.ID)
}

func (s *RedisSessionStoreSuite) TestTerminalUpdateReleasesClaim() {
	ctx := context.Background()
	sess := s.newSession()
	s.Require().NoError(s.store.Create(ctx, sess))

	cancelled, err := sess.WithCancelled(time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Update(ctx, cancelled))

	_, err = s.store.FindOpen(ctx, sess.UserID, sess.EventID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	next := verification.NewSession(sess.UserID, sess.EventID, id.PunchClockOut, 3, time.Now())
	next, _ = next.WithCaptureStarted()
	s.NoError(s.store.Create(ctx, next))
}

func (s *RedisSessionStoreSuite) TestFindMissingReturnsNotFound() {
	_, err := s.store.FindByID(context.Background(), id.NewSessionID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisSessionStoreSuite) TestUpdateMissingReturnsNotFound() {
	s.ErrorIs(s.store.Update(context.Background(), s.newSession()), sentinel.ErrNotFound)
}
