package handler

import (
	"time"

	"timeclock/internal/verification"
)

// SessionResponse is the wire shape of a verification session.
type SessionResponse struct {
	ID          string            `json:"id"`
	EventID     string            `json:"event_id"`
	SessionType string            `json:"session_type"`
	State       string            `json:"state"`
	MaxAttempts int               `json:"max_attempts"`
	Attempts    []AttemptResponse `json:"attempts"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Result      *ResultResponse   `json:"result,omitempty"`
}

// AttemptResponse is one recorded attempt on the wire.
type AttemptResponse struct {
	AttemptNumber     int       `json:"attempt_number"`
	Success           bool      `json:"success"`
	ConfidencePercent float64   `json:"confidence_percent"`
	FailureReason     string    `json:"failure_reason,omitempty"`
	CapturedAt        time.Time `json:"captured_at"`
}

// ResultResponse summarizes a completed session on the wire.
type ResultResponse struct {
	FinalImageRef string  `json:"final_image_ref"`
	TotalAttempts int     `json:"total_attempts"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// FromSession maps the domain session onto the wire shape.
func FromSession(sess verification.Session) SessionResponse {
	resp := SessionResponse{
		ID:          sess.ID.String(),
		EventID:     sess.EventID.String(),
		SessionType: sess.SessionType.String(),
		State:       string(sess.State),
		MaxAttempts: sess.MaxAttempts,
		Attempts:    make([]AttemptResponse, 0, len(sess.Attempts)),
		StartedAt:   sess.StartedAt,
		CompletedAt: sess.CompletedAt,
	}
	for _, attempt := range sess.Attempts {
		resp.Attempts = append(resp.Attempts, AttemptResponse{
			AttemptNumber:     attempt.AttemptNumber,
			Success:           attempt.Outcome.Success,
			ConfidencePercent: attempt.Outcome.ConfidencePercent,
			FailureReason:     attempt.Outcome.FailureReason,
			CapturedAt:        attempt.CapturedAt,
		})
	}
	if sess.Result != nil {
		resp.Result = &ResultResponse{
			FinalImageRef: sess.Result.FinalImageRef,
			TotalAttempts: sess.Result.TotalAttempts,
			AvgConfidence: sess.Result.AvgConfidence,
		}
	}
	return resp
}
