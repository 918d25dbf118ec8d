package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/punch"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
	"timeclock/pkg/platform/httputil"
	"timeclock/pkg/requestcontext"
)

// Service defines the punch operations the handler needs.
type Service interface {
	Punch(ctx context.Context, req punch.Request) (punch.Result, error)
}

// Handler wires the punch endpoint to the punch service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a punch handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts punch endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/punch", h.HandlePunch)
}

// HandlePunch handles POST /punch requests.
func (h *Handler) HandlePunch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	userID := requestcontext.UserID(ctx)
	if userID == (id.UserID{}) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[*PunchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Punch(ctx, punch.Request{
		UserID:              userID,
		EventID:             req.ParsedEventID(),
		PunchType:           req.ParsedPunchType(),
		Fix:                 req.DomainFix(),
		MaxAttempts:         req.MaxAttempts,
		Reason:              req.Reason,
		PhotoRef:            req.PhotoRef,
		Notes:               req.Notes,
		SaveAsReusable:      req.SaveAsReusable,
		ReusableName:        req.ReusableName,
		ReusableWorkplaceID: req.ParsedWorkplaceID(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "punch rejected",
			"request_id", requestID,
			"user_id", userID,
			"punch_type", req.PunchType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "punch handled",
		"request_id", requestID,
		"user_id", userID,
		"within_zone", result.WithinZone,
		"accepted", result.Accepted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}
