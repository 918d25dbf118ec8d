// Package verification implements the identity-verification session: a
// bounded sequence of provider-checked attempts tied to one clock event.
//
// Session state is plain data; transitions are pure functions on Session
// values. The service layer owns persistence, provider calls, and the
// one-open-session invariant.
package verification

import (
	"time"

	"timeclock/internal/geofence"
	id "timeclock/pkg/domain"
	"timeclock/pkg/platform/sentinel"
)

// State is the session position in the verification flow.
type State string

const (
	// StatePending is the just-created session before capture begins.
	StatePending State = "pending"
	// StateCapturing awaits a photo/biometric sample for the current attempt.
	StateCapturing State = "capturing"
	// StateVerifying has a sample in flight to the provider.
	StateVerifying State = "verifying"
	// StateCompleted is terminal success.
	StateCompleted State = "completed"
	// StateFailed is terminal failure after exhausting all attempts.
	StateFailed State = "failed"
	// StateCancelled is a caller-abandoned session. Its attempts stay in the
	// audit trail but are not user-visible failures.
	StateCancelled State = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Outcome is what the provider said about one attempt.
type Outcome struct {
	Success           bool
	ConfidencePercent float64
	FailureReason     string
}

// Attempt is one recorded verification try. Immutable once appended.
type Attempt struct {
	ID               id.AttemptID
	SessionID        id.SessionID
	AttemptNumber    int
	CapturedImageRef string
	Outcome          Outcome
	CapturedAt       time.Time
	Fix              geofence.LocationFix
}

// Result summarizes a completed session.
type Result struct {
	FinalImageRef string
	TotalAttempts int
	// AvgConfidence averages the confidence of successful attempts only.
	AvgConfidence float64
}

// Session is the retry-limited verification run for one clock event.
type Session struct {
	ID          id.SessionID
	UserID      id.UserID
	EventID     id.EventID
	SessionType id.PunchType
	State       State
	Attempts    []Attempt
	MaxAttempts int
	StartedAt   time.Time
	CompletedAt *time.Time
	Result      *Result
}

// NewSession builds a pending session with zero attempts.
func NewSession(userID id.UserID, eventID id.EventID, punchType id.PunchType, maxAttempts int, now time.Time) Session {
	return Session{
		ID:          id.NewSessionID(),
		UserID:      userID,
		EventID:     eventID,
		SessionType: punchType,
		State:       StatePending,
		MaxAttempts: maxAttempts,
		StartedAt:   now,
	}
}

// WithCaptureStarted transitions pending -> capturing.
func (s Session) WithCaptureStarted() (Session, error) {
	if s.State != StatePending {
		return s, sentinel.ErrInvalidState
	}
	s.State = StateCapturing
	return s, nil
}

// WithSampleSubmitted transitions capturing -> verifying.
func (s Session) WithSampleSubmitted() (Session, error) {
	if s.State != StateCapturing {
		return s, sentinel.ErrInvalidState
	}
	s.State = StateVerifying
	return s, nil
}

// WithCaptureResumed transitions verifying -> capturing without recording an
// attempt. Used when the provider was unreachable: the attempt slot is not
// consumed and the caller may retry without penalty.
func (s Session) WithCaptureResumed() (Session, error) {
	if s.State != StateVerifying {
		return s, sentinel.ErrInvalidState
	}
	s.State = StateCapturing
	return s, nil
}

// WithOutcome appends the attempt the provider just judged and advances the
// machine: success completes the session, failure either resumes capture or,
// on the final slot, fails the session.
func (s Session) WithOutcome(attempt Attempt, now time.Time) (Session, error) {
	if s.State != StateVerifying {
		return s, sentinel.ErrInvalidState
	}
	if len(s.Attempts) >= s.MaxAttempts {
		return s, sentinel.ErrInvalidState
	}

	attempt.SessionID = s.ID
	attempt.AttemptNumber = len(s.Attempts) + 1

	// Copy-on-append keeps prior Session values immutable.
	attempts := make([]Attempt, len(s.Attempts), len(s.Attempts)+1)
	copy(attempts, s.Attempts)
	s.Attempts = append(attempts, attempt)

	if attempt.Outcome.Success {
		s.State = StateCompleted
		s.CompletedAt = &now
		s.Result = &Result{
			FinalImageRef: attempt.CapturedImageRef,
			TotalAttempts: len(s.Attempts),
			AvgConfidence: avgSuccessConfidence(s.Attempts),
		}
		return s, nil
	}

	if len(s.Attempts) >= s.MaxAttempts {
		s.State = StateFailed
		s.CompletedAt = &now
		s.Result = &Result{TotalAttempts: len(s.Attempts)}
		return s, nil
	}

	s.State = StateCapturing
	return s, nil
}

// WithCancelled transitions any non-terminal state to cancelled.
func (s Session) WithCancelled(now time.Time) (Session, error) {
	if s.State.IsTerminal() {
		return s, sentinel.ErrInvalidState
	}
	s.State = StateCancelled
	s.CompletedAt = &now
	return s, nil
}

func avgSuccessConfidence(attempts []Attempt) float64 {
	var sum float64
	var n int
	for _, a := range attempts {
		if a.Outcome.Success {
			sum += a.Outcome.ConfidencePercent
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
