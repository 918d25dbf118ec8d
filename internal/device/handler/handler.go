package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"timeclock/internal/device"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
	"timeclock/pkg/platform/httputil"
	authmw "timeclock/pkg/platform/middleware/auth"
	"timeclock/pkg/requestcontext"
)

// Service defines the device operations the handler needs.
type Service interface {
	Enroll(ctx context.Context, req device.EnrollRequest) (device.Device, string, error)
	Authenticate(ctx context.Context, deviceID id.DeviceID, secret, userAgent string) (device.Device, bool, error)
	Revoke(ctx context.Context, userID id.UserID, deviceID id.DeviceID) error
	ListByUser(ctx context.Context, userID id.UserID) ([]device.Device, error)
}

// TokenIssuer signs access tokens for authenticated devices.
type TokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, role, deviceID string, expiresIn time.Duration) (string, error)
}

// Handler wires device enrollment and credential-exchange endpoints.
type Handler struct {
	service Service
	tokens  TokenIssuer
	logger  *slog.Logger
}

// New constructs a device handler.
func New(service Service, tokens TokenIssuer, logger *slog.Logger) *Handler {
	return &Handler{service: service, tokens: tokens, logger: logger}
}

// Register mounts the authenticated device endpoints on the router. The
// token exchange is public and registered separately via RegisterPublic.
func (h *Handler) Register(r chi.Router) {
	r.Post("/devices", h.HandleEnroll)
	r.Get("/devices", h.HandleList)
	r.Delete("/devices/{deviceID}", h.HandleRevoke)
}

// RegisterPublic mounts the credential exchange, which authenticates with the
// device secret rather than a bearer token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/devices/token", h.HandleToken)
}

// HandleEnroll handles POST /devices. The response includes the device secret
// exactly once; clients must store it, there is no retrieval endpoint.
func (h *Handler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[*EnrollRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	d, secret, err := h.service.Enroll(ctx, device.EnrollRequest{
		UserID:    userID,
		Name:      req.Name,
		UserAgent: requestcontext.UserAgent(ctx),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "device enrolled",
		"request_id", requestID,
		"user_id", userID,
		"device_id", d.ID,
	)

	resp := FromDevice(d)
	resp.Secret = secret
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

// HandleToken handles POST /devices/token.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[*TokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	d, drift, err := h.service.Authenticate(ctx, req.ParsedDeviceID(), req.Secret, requestcontext.UserAgent(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "device token exchange rejected",
			"request_id", requestID,
			"device_id", req.ParsedDeviceID(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	token, err := h.tokens.GenerateAccessToken(uuid.UUID(d.UserID), authmw.RoleEmployee, d.ID.String(), device.TokenLifetime)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "sign access token"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken:      token,
		TokenType:        "Bearer",
		ExpiresIn:        int64(device.TokenLifetime.Seconds()),
		FingerprintDrift: drift,
	})
}

// HandleList handles GET /devices.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	devices, err := h.service.ListByUser(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]DeviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, FromDevice(d))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"devices": out})
}

// HandleRevoke handles DELETE /devices/{deviceID}.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	deviceID, err := id.ParseDeviceID(chi.URLParam(r, "deviceID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "device id is not a valid id"))
		return
	}

	if err := h.service.Revoke(ctx, userID, deviceID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "device revoked",
		"request_id", requestID,
		"user_id", userID,
		"device_id", deviceID,
	)
	w.WriteHeader(http.StatusNoContent)
}
