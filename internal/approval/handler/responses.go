package handler

import (
	"time"

	"timeclock/internal/approval"
	dErrors "timeclock/pkg/domain-errors"
)

// RequestResponse is the wire shape of an approval request.
type RequestResponse struct {
	ID            string     `json:"id"`
	SourceEventID string     `json:"source_event_id"`
	UserID        string     `json:"user_id"`
	ManagerID     string     `json:"manager_id,omitempty"`
	Type          string     `json:"type"`
	Reason        string     `json:"reason"`
	Status        string     `json:"status"`
	RequestedAt   time.Time  `json:"requested_at"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
}

// BulkDecideResponse reports per-item bulk outcomes in caller order.
type BulkDecideResponse struct {
	Succeeded []string          `json:"succeeded"`
	Failed    []BulkItemFailure `json:"failed"`
}

// BulkItemFailure is one failed bulk item.
type BulkItemFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// FromRequest maps the domain request onto the wire shape.
func FromRequest(req approval.Request) RequestResponse {
	resp := RequestResponse{
		ID:            req.ID.String(),
		SourceEventID: req.SourceEventID.String(),
		UserID:        req.UserID.String(),
		Type:          string(req.RequestType),
		Reason:        req.Reason,
		Status:        string(req.Status),
		RequestedAt:   req.RequestedAt,
		DecidedAt:     req.DecidedAt,
	}
	if req.ManagerID != nil {
		resp.ManagerID = req.ManagerID.String()
	}
	return resp
}

// FromBulkResult maps the domain bulk result onto the wire shape.
func FromBulkResult(result approval.BulkResult) BulkDecideResponse {
	resp := BulkDecideResponse{
		Succeeded: make([]string, 0, len(result.Succeeded)),
		Failed:    make([]BulkItemFailure, 0, len(result.Failed)),
	}
	for _, succeededID := range result.Succeeded {
		resp.Succeeded = append(resp.Succeeded, succeededID.String())
	}
	for _, failure := range result.Failed {
		resp.Failed = append(resp.Failed, BulkItemFailure{
			ID:    failure.ID.String(),
			Error: string(dErrors.CodeOf(failure.Err)),
		})
	}
	return resp
}
