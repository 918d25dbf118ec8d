package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/workplace"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
	"timeclock/pkg/platform/httputil"
	"timeclock/pkg/requestcontext"
)

// Service defines the workplace operations the handler needs. Punch capture
// itself goes through the punch endpoint; this surface manages what it left
// behind.
type Service interface {
	ListReusable(ctx context.Context, userID id.UserID) ([]workplace.ReusableWorkplace, error)
	DeactivateReusable(ctx context.Context, userID id.UserID, workplaceID id.WorkplaceID) error
	ListRecords(ctx context.Context, userID id.UserID) ([]workplace.Record, error)
}

// Handler wires reusable-workplace management endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a workplace handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts workplace endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/workplaces", h.HandleListReusable)
	r.Delete("/workplaces/{workplaceID}", h.HandleDeactivate)
	r.Get("/workplace-records", h.HandleListRecords)
}

// WorkplaceResponse is the wire shape of a saved workplace.
type WorkplaceResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Reason     string     `json:"reason"`
	UsageCount int        `json:"usage_count"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// RecordResponse is the wire shape of a temporary workplace record.
type RecordResponse struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	PunchType   string    `json:"punch_type"`
	PunchTime   time.Time `json:"punch_time"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Reason      string    `json:"reason"`
	PhotoRef    string    `json:"photo_ref,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	IsReusable  bool      `json:"is_reusable"`
	WorkplaceID string    `json:"workplace_id,omitempty"`
}

func callerID(ctx context.Context) (id.UserID, error) {
	userID := requestcontext.UserID(ctx)
	if userID == (id.UserID{}) {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return userID, nil
}

// HandleListReusable handles GET /workplaces.
func (h *Handler) HandleListReusable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := callerID(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	workplaces, err := h.service.ListReusable(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]WorkplaceResponse, 0, len(workplaces))
	for _, wp := range workplaces {
		out = append(out, WorkplaceResponse{
			ID:         wp.ID.String(),
			Name:       wp.Name,
			Latitude:   wp.Latitude,
			Longitude:  wp.Longitude,
			Reason:     wp.Reason,
			UsageCount: wp.UsageCount,
			LastUsedAt: wp.LastUsedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"workplaces": out})
}

// HandleDeactivate handles DELETE /workplaces/{workplaceID}.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := callerID(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	workplaceID, err := id.ParseWorkplaceID(chi.URLParam(r, "workplaceID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "workplace id is not a valid id"))
		return
	}

	if err := h.service.DeactivateReusable(ctx, userID, workplaceID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "workplace deactivated",
		"request_id", requestID,
		"user_id", userID,
		"workplace_id", workplaceID,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleListRecords handles GET /workplace-records.
func (h *Handler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := callerID(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.service.ListRecords(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]RecordResponse, 0, len(records))
	for _, rec := range records {
		resp := RecordResponse{
			ID:         rec.ID.String(),
			Date:       rec.Date,
			PunchType:  rec.PunchType.String(),
			PunchTime:  rec.PunchTime,
			Latitude:   rec.Fix.Latitude,
			Longitude:  rec.Fix.Longitude,
			Reason:     rec.Reason,
			PhotoRef:   rec.PhotoRef,
			Notes:      rec.Notes,
			IsReusable: rec.IsReusable,
		}
		if rec.WorkplaceID != nil {
			resp.WorkplaceID = rec.WorkplaceID.String()
		}
		out = append(out, resp)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"records": out})
}
