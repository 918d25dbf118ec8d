package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/approval"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
	"timeclock/pkg/platform/httputil"
	"timeclock/pkg/requestcontext"
)

// Service defines the approval operations the handler needs.
type Service interface {
	Decide(ctx context.Context, requestID id.ApprovalID, managerID id.UserID, approve bool) (approval.Request, error)
	BulkDecide(ctx context.Context, requestIDs []id.ApprovalID, managerID id.UserID, approve bool) (approval.BulkResult, error)
	List(ctx context.Context, filter approval.Filter) ([]approval.Request, error)
}

// Handler wires the manager approval endpoints to the approval service. All
// routes are mounted behind the manager-role middleware.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an approval handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts approval endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/approvals", h.HandleList)
	r.Post("/approvals/{approvalID}/decision", h.HandleDecide)
	r.Post("/approvals/bulk-decision", h.HandleBulkDecide)
}

// HandleList handles GET /approvals. It is a read-only projection with no
// side effects.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := filterFromQuery(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	requests, err := h.service.List(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]RequestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, FromRequest(req))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": out})
}

// HandleDecide handles POST /approvals/{approvalID}/decision.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	managerID := requestcontext.UserID(ctx)
	if managerID == (id.UserID{}) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	approvalID, err := id.ParseApprovalID(chi.URLParam(r, "approvalID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "approval id is not a valid id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[*DecideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	decided, err := h.service.Decide(ctx, approvalID, managerID, req.Approve)
	if err != nil {
		h.logger.WarnContext(ctx, "approval decision rejected",
			"request_id", requestID,
			"approval_id", approvalID,
			"manager_id", managerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "approval decided",
		"request_id", requestID,
		"approval_id", approvalID,
		"manager_id", managerID,
		"status", decided.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, FromRequest(decided))
}

// HandleBulkDecide handles POST /approvals/bulk-decision. Partial success is
// the designed behavior: per-item failures come back alongside the ids that
// succeeded, and the response is 200 either way.
func (h *Handler) HandleBulkDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	managerID := requestcontext.UserID(ctx)
	if managerID == (id.UserID{}) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[*BulkDecideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.BulkDecide(ctx, req.ParsedIDs(), managerID, req.Approve)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "bulk decision applied",
		"request_id", requestID,
		"manager_id", managerID,
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromBulkResult(result))
}
