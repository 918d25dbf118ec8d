package handler

import (
	"net/url"
	"strings"
	"time"

	"timeclock/internal/approval"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
)

// DecideRequest is the HTTP request body for POST /approvals/{id}/decision.
type DecideRequest struct {
	Approve bool `json:"approve"`
}

// BulkDecideRequest is the HTTP request body for POST /approvals/bulk-decision.
type BulkDecideRequest struct {
	IDs     []string `json:"ids"`
	Approve bool     `json:"approve"`

	parsedIDs []id.ApprovalID
}

// Validate validates and parses the request. Id order is preserved; bulk
// decisions apply in caller order.
func (r *BulkDecideRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.IDs) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "ids must not be empty")
	}
	r.parsedIDs = make([]id.ApprovalID, 0, len(r.IDs))
	for _, raw := range r.IDs {
		approvalID, err := id.ParseApprovalID(strings.TrimSpace(raw))
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "ids contains an invalid id")
		}
		r.parsedIDs = append(r.parsedIDs, approvalID)
	}
	return nil
}

// ParsedIDs returns the validated approval ids.
func (r *BulkDecideRequest) ParsedIDs() []id.ApprovalID { return r.parsedIDs }

// filterFromQuery builds the read-only projection filter from query
// parameters: status, type, user_id, from, to (RFC 3339).
func filterFromQuery(query url.Values) (approval.Filter, error) {
	var filter approval.Filter

	if raw := query.Get("status"); raw != "" {
		status := approval.Status(raw)
		if status != approval.StatusPending && status != approval.StatusApproved && status != approval.StatusRejected {
			return filter, dErrors.New(dErrors.CodeInvalidInput, "unknown status filter")
		}
		filter.Status = &status
	}
	if raw := query.Get("type"); raw != "" {
		reqType := approval.Type(raw)
		if !reqType.IsValid() {
			return filter, dErrors.New(dErrors.CodeInvalidInput, "unknown type filter")
		}
		filter.RequestType = &reqType
	}
	if raw := query.Get("user_id"); raw != "" {
		userID, err := id.ParseUserID(raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeInvalidInput, "user_id is not a valid id")
		}
		filter.UserID = &userID
	}
	if raw := query.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeInvalidInput, "from must be RFC 3339")
		}
		filter.From = &from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeInvalidInput, "to must be RFC 3339")
		}
		filter.To = &to
	}
	return filter, nil
}
