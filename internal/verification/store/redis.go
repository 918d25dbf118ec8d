package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"timeclock/internal/verification"
	id "timeclock/pkg/domain"
	"timeclock/pkg/platform/sentinel"
)

// sessionTTL bounds how long an abandoned session lingers in Redis.
const sessionTTL = 24 * time.Hour

// RedisSessionStore keeps sessions in Redis. The open-session invariant is
// enforced with SET NX on a per-(user, event) claim key, so Create stays
// atomic without transactions.
type RedisSessionStore struct {
	rdb redis.Cmdable
}

func NewRedisSessionStore(rdb redis.Cmdable) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func sessionKey(sessionID id.SessionID) string {
	return "verification:session:" + sessionID.String()
}

func openClaimKey(userID id.UserID, eventID id.EventID) string {
	return "verification:open:" + userID.String() + ":" + eventID.String()
}

func (s *RedisSessionStore) Create(ctx context.Context, sess verification.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if !sess.State.IsTerminal() {
		ok, err := s.rdb.SetNX(ctx, openClaimKey(sess.UserID, sess.EventID), sess.ID.String(), sessionTTL).Result()
		if err != nil {
			return fmt.Errorf("claim open session: %w", err)
		}
		if !ok {
			return sentinel.ErrConflict
		}
	}

	if err := s.rdb.Set(ctx, sessionKey(sess.ID), payload, sessionTTL).Err(); err != nil {
		// Best effort: release the claim so the pair is not wedged.
		s.rdb.Del(ctx, openClaimKey(sess.UserID, sess.EventID))
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Update(ctx context.Context, sess verification.Session) error {
	exists, err := s.rdb.Exists(ctx, sessionKey(sess.ID)).Result()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if exists == 0 {
		return sentinel.ErrNotFound
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(sess.ID), payload, sessionTTL).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	if sess.State.IsTerminal() {
		if err := s.rdb.Del(ctx, openClaimKey(sess.UserID, sess.EventID)).Err(); err != nil {
			return fmt.Errorf("release open claim: %w", err)
		}
	}
	return nil
}

func (s *RedisSessionStore) FindByID(ctx context.Context, sessionID id.SessionID) (verification.Session, error) {
	payload, err := s.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return verification.Session{}, sentinel.ErrNotFound
		}
		return verification.Session{}, fmt.Errorf("find session: %w", err)
	}

	var sess verification.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return verification.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return sess, nil
}

func (s *RedisSessionStore) FindOpen(ctx context.Context, userID id.UserID, eventID id.EventID) (verification.Session, error) {
	raw, err := s.rdb.Get(ctx, openClaimKey(userID, eventID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return verification.Session{}, sentinel.ErrNotFound
		}
		return verification.Session{}, fmt.Errorf("find open session: %w", err)
	}

	sessionID, err := id.ParseSessionID(raw)
	if err != nil {
		return verification.Session{}, fmt.Errorf("corrupt open claim %q: %w", raw, err)
	}
	return s.FindByID(ctx, sessionID)
}
