// Package service orchestrates verification sessions: opening them, running
// provider-judged attempts, and closing them out.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"timeclock/internal/audit"
	"timeclock/internal/notify"
	"timeclock/internal/policy"
	"timeclock/internal/verification"
	"timeclock/internal/verification/metrics"
	"timeclock/internal/verification/store"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
	"timeclock/pkg/platform/circuit"
	"timeclock/pkg/platform/sentinel"
	"timeclock/pkg/requestcontext"
)

// AuditPublisher emits audit events for session lifecycle changes.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Notifier buffers a notification for asynchronous delivery.
type Notifier interface {
	Enqueue(event notify.Event)
}

// Service runs the verification session state machine against a store and an
// injected provider.
type Service struct {
	store    store.SessionStore
	provider verification.Provider
	policy   policy.Attendance
	breaker  *circuit.Breaker
	logger   *slog.Logger
	auditor  AuditPublisher
	notifier Notifier
	metrics  *metrics.Metrics

	// mu serializes transitions per session so concurrent submissions
	// cannot double-consume an attempt slot.
	mu sessionLocks
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Service) {
		s.breaker = b
	}
}

// New constructs a Service.
func New(sessions store.SessionStore, provider verification.Provider, pol policy.Attendance, opts ...Option) *Service {
	s := &Service{
		store:    sessions,
		provider: provider,
		policy:   pol,
		breaker:  circuit.New("verification-provider"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartRequest opens a session for one clock event.
type StartRequest struct {
	UserID    id.UserID
	EventID   id.EventID
	PunchType id.PunchType
	// MaxAttempts overrides the policy default when positive.
	MaxAttempts int
}

// Start opens a verification session and moves it straight into capturing.
// At most one session may be open per (user, event) pair; a second Start
// returns the already-open session instead of an error so interrupted
// clients can resume.
func (s *Service) Start(ctx context.Context, req StartRequest) (verification.Session, error) {
	if req.UserID.IsNil() || req.EventID.IsNil() {
		return verification.Session{}, dErrors.New(dErrors.CodeInvalidInput, "user and event are required")
	}
	if !req.PunchType.IsValid() {
		return verification.Session{}, dErrors.New(dErrors.CodeInvalidInput, "unknown punch type")
	}

	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = s.policy.MaxVerificationAttempts
	}

	sess := verification.NewSession(req.UserID, req.EventID, req.PunchType, maxAttempts, requestcontext.Now(ctx))
	sess, err := sess.WithCaptureStarted()
	if err != nil {
		return verification.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "open session")
	}

	if err := s.store.Create(ctx, sess); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			open, findErr := s.store.FindOpen(ctx, req.UserID, req.EventID)
			if findErr == nil {
				return open, nil
			}
			return verification.Session{}, dErrors.New(dErrors.CodeConflict, "a verification session is already open for this event")
		}
		return verification.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "create session")
	}

	if s.metrics != nil {
		s.metrics.IncrementSessionStarted()
	}
	s.emitAudit(ctx, sess, audit.ActionSessionStarted, "")
	s.logger.InfoContext(ctx, "verification session started",
		"session_id", sess.ID, "user_id", sess.UserID, "punch_type", sess.SessionType)
	return sess, nil
}

// SubmitSample runs one verification attempt. The sample goes to the
// provider; a judged failure consumes an attempt slot, while a provider
// outage or timeout leaves the session retryable with all slots intact.
func (s *Service) SubmitSample(ctx context.Context, sessionID id.SessionID, sample verification.Sample) (verification.Session, error) {
	unlock := s.mu.lock(sessionID)
	defer unlock()

	sess, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return verification.Session{}, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return verification.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "load session")
	}

	sess, err = sess.WithSampleSubmitted()
	if err != nil {
		return verification.Session{}, dErrors.New(dErrors.CodeConflict, "session is not accepting samples")
	}
	if err := s.store.Update(ctx, sess); err != nil {
		return verification.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "update session")
	}

	outcome, err := s.judge(ctx, sess.UserID, sample)
	if err != nil {
		// Back out to capturing; the slot is not consumed.
		if sess, err2 := sess.WithCaptureResumed(); err2 == nil {
			if updateErr := s.store.Update(ctx, sess); updateErr != nil {
				s.logger.ErrorContext(ctx, "failed to resume capture after provider outage",
					"session_id", sess.ID, "error", updateErr)
			}
		}
		if s.metrics != nil {
			s.metrics.IncrementProviderUnavailable()
		}
		return verification.Session{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "verification provider unavailable")
	}

	attempt := verification.Attempt{
		ID:               id.NewAttemptID(),
		CapturedImageRef: sample.ImageRef,
		Outcome:          outcome,
		CapturedAt:       sample.CapturedAt,
		Fix:              sample.Fix,
	}
	if attempt.CapturedAt.IsZero() {
		attempt.CapturedAt = requestcontext.Now(ctx)
	}

	sess, err = sess.WithOutcome(attempt, requestcontext.Now(ctx))
	if err != nil {
		return verification.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "record attempt")
	}
	if err := s.store.Update(ctx, sess); err != nil {
		return verification.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "update session")
	}

	if s.metrics != nil {
		s.metrics.IncrementAttempt(outcome.Success)
	}

	switch sess.State {
	case verification.StateCompleted:
		if s.metrics != nil {
			s.metrics.IncrementSessionTerminal(string(sess.State))
		}
		s.emitAudit(ctx, sess, audit.ActionSessionCompleted, "")
		s.logger.InfoContext(ctx, "verification session completed",
			"session_id", sess.ID, "attempts", len(sess.Attempts))
	case verification.StateFailed:
		if s.metrics != nil {
			s.metrics.IncrementSessionTerminal(string(sess.State))
		}
		s.emitAudit(ctx, sess, audit.ActionSessionFailed, attempt.Outcome.FailureReason)
		s.notifyFailed(ctx, sess)
		s.logger.WarnContext(ctx, "verification session failed",
			"session_id", sess.ID, "attempts", len(sess.Attempts))
		return sess, dErrors.New(dErrors.CodeConflict, "verification attempts exhausted; re-registration required")
	}
	return sess, nil
}

// Cancel abandons a non-terminal session. Recorded attempts stay in the
// audit trail.
func (s *Service) Cancel(ctx context.Context, sessionID id.SessionID) (verification.Session, error) {
	unlock := s.mu.lock(sessionID)
	defer unlock()

	sess, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return verification.Session{}, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return verification.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "load session")
	}

	sess, err = sess.WithCancelled(requestcontext.Now(ctx))
	if err != nil {
		return verification.Session{}, dErrors.New(dErrors.CodeConflict, "session already settled")
	}
	if err := s.store.Update(ctx, sess); err != nil {
		return verification.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "update session")
	}

	if s.metrics != nil {
		s.metrics.IncrementSessionTerminal(string(sess.State))
	}
	s.emitAudit(ctx, sess, audit.ActionSessionCancelled, "")
	return sess, nil
}

// Get returns a session with its attempts.
func (s *Service) Get(ctx context.Context, sessionID id.SessionID) (verification.Session, error) {
	sess, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return verification.Session{}, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return verification.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "load session")
	}
	return sess, nil
}

// judge calls the provider under the breaker with the policy timeout.
func (s *Service) judge(ctx context.Context, userID id.UserID, sample verification.Sample) (verification.Outcome, error) {
	if !s.breaker.Allow() {
		return verification.Outcome{}, verification.ErrProviderUnavailable
	}

	callCtx, cancel := context.WithTimeout(ctx, s.policy.ProviderTimeout)
	defer cancel()

	start := time.Now()
	outcome, err := s.provider.Verify(callCtx, userID.String(), sample)
	if s.metrics != nil {
		s.metrics.ObserveProviderCall(start)
	}
	if err != nil {
		_, change := s.breaker.RecordFailure()
		if change.Opened {
			s.logger.WarnContext(ctx, "verification provider circuit opened", "error", err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return verification.Outcome{}, verification.ErrProviderUnavailable
		}
		return verification.Outcome{}, err
	}
	s.breaker.RecordSuccess()
	return outcome, nil
}

func (s *Service) emitAudit(ctx context.Context, sess verification.Session, action audit.Action, reason string) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		UserID:    sess.UserID,
		Subject:   sess.ID.String(),
		Action:    action,
		Outcome:   string(sess.State),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", action, "session_id", sess.ID, "error", err)
	}
}

func (s *Service) notifyFailed(ctx context.Context, sess verification.Session) {
	if s.notifier == nil {
		return
	}
	s.notifier.Enqueue(notify.Event{
		Type:    notify.EventVerificationFailed,
		UserID:  sess.UserID,
		Subject: sess.ID.String(),
		Payload: map[string]string{
			"attempts":   strconv.Itoa(len(sess.Attempts)),
			"punch_type": sess.SessionType.String(),
		},
	})
}

// sessionLocks is a keyed mutex over session ids.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[id.SessionID]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func (l *sessionLocks) lock(sessionID id.SessionID) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[id.SessionID]*sessionLock)
	}
	entry, ok := l.locks[sessionID]
	if !ok {
		entry = &sessionLock{}
		l.locks[sessionID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, sessionID)
		}
		l.mu.Unlock()
	}
}
