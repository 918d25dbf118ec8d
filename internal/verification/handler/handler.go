package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/verification"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
	"timeclock/pkg/platform/httputil"
	"timeclock/pkg/requestcontext"
)

// Service defines the verification operations the handler needs.
type Service interface {
	SubmitSample(ctx context.Context, sessionID id.SessionID, sample verification.Sample) (verification.Session, error)
	Cancel(ctx context.Context, sessionID id.SessionID) (verification.Session, error)
	Get(ctx context.Context, sessionID id.SessionID) (verification.Session, error)
}

// Handler wires verification session endpoints to the verification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/verification/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Post("/samples", h.HandleSubmitSample)
		r.Post("/cancel", h.HandleCancel)
	})
}

// sessionForCaller loads the session and hides other users' sessions.
func (h *Handler) sessionForCaller(ctx context.Context, r *http.Request) (verification.Session, id.SessionID, error) {
	userID := requestcontext.UserID(ctx)
	if userID == (id.UserID{}) {
		return verification.Session{}, id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		return verification.Session{}, id.SessionID{}, dErrors.New(dErrors.CodeInvalidInput, "session id is not a valid id")
	}

	sess, err := h.service.Get(ctx, sessionID)
	if err != nil {
		return verification.Session{}, id.SessionID{}, err
	}
	if sess.UserID != userID {
		return verification.Session{}, id.SessionID{}, dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	return sess, sessionID, nil
}

// HandleGet handles GET /verification/sessions/{sessionID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _, err := h.sessionForCaller(ctx, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSession(sess))
}

// HandleSubmitSample handles POST /verification/sessions/{sessionID}/samples.
// An exhausted session is not a transport error: the terminal failed state
// comes back in the body for the client to act on.
func (h *Handler) HandleSubmitSample(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	_, sessionID, err := h.sessionForCaller(ctx, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[*SubmitSampleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	sess, err := h.service.SubmitSample(ctx, sessionID, req.DomainSample())
	if err != nil {
		if sess.State == verification.StateFailed {
			h.logger.WarnContext(ctx, "verification attempts exhausted",
				"request_id", requestID,
				"session_id", sessionID,
			)
			httputil.WriteJSON(w, http.StatusOK, FromSession(sess))
			return
		}
		h.logger.WarnContext(ctx, "sample submission failed",
			"request_id", requestID,
			"session_id", sessionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "sample judged",
		"request_id", requestID,
		"session_id", sessionID,
		"state", sess.State,
		"attempts", len(sess.Attempts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromSession(sess))
}

// HandleCancel handles POST /verification/sessions/{sessionID}/cancel.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	_, sessionID, err := h.sessionForCaller(ctx, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sess, err := h.service.Cancel(ctx, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "session cancelled",
		"request_id", requestID,
		"session_id", sessionID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromSession(sess))
}
