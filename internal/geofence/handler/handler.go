// Package handler exposes the administrative zone endpoints. Routes here are
// mounted behind the admin-token middleware, not user authentication.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/geofence"
	"timeclock/internal/geofence/registry"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
	"timeclock/pkg/platform/httputil"
	"timeclock/pkg/requestcontext"
)

// Service defines the registry operations the handler needs.
type Service interface {
	Save(ctx context.Context, req registry.SaveRequest) (geofence.Zone, error)
	Deactivate(ctx context.Context, zoneID id.ZoneID) (geofence.Zone, error)
	List(ctx context.Context) ([]geofence.Zone, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the zone admin endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/zones", h.HandleList)
	r.Post("/zones", h.HandleCreate)
	r.Put("/zones/{zoneID}", h.HandleUpdate)
	r.Delete("/zones/{zoneID}", h.HandleDeactivate)
}

// ZoneResponse is the wire shape of a zone.
type ZoneResponse struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	CenterLat      float64  `json:"center_lat"`
	CenterLng      float64  `json:"center_lng"`
	RadiusMeters   float64  `json:"radius_m"`
	Address        string   `json:"address,omitempty"`
	IsActive       bool     `json:"is_active"`
	AllowedMethods []string `json:"allowed_methods,omitempty"`
}

// FromZone maps a domain zone to its wire shape.
func FromZone(z geofence.Zone) ZoneResponse {
	resp := ZoneResponse{
		ID:           z.ID.String(),
		Name:         z.Name,
		CenterLat:    z.CenterLat,
		CenterLng:    z.CenterLng,
		RadiusMeters: z.RadiusMeters,
		Address:      z.Address,
		IsActive:     z.IsActive,
	}
	for m := range z.AllowedMethods {
		resp.AllowedMethods = append(resp.AllowedMethods, m)
	}
	return resp
}

// HandleList handles GET /zones.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	zones, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]ZoneResponse, 0, len(zones))
	for _, z := range zones {
		out = append(out, FromZone(z))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"zones": out})
}

// HandleCreate handles POST /zones.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.saveZone(w, r, nil)
}

// HandleUpdate handles PUT /zones/{zoneID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	zoneID, err := id.ParseZoneID(chi.URLParam(r, "zoneID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "zone id is not a valid id"))
		return
	}
	h.saveZone(w, r, &zoneID)
}

func (h *Handler) saveZone(w http.ResponseWriter, r *http.Request, zoneID *id.ZoneID) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[*ZoneRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	save := req.SaveRequest()
	save.ID = zoneID

	zone, err := h.service.Save(ctx, save)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if zoneID == nil {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, FromZone(zone))
}

// HandleDeactivate handles DELETE /zones/{zoneID}.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	zoneID, err := id.ParseZoneID(chi.URLParam(r, "zoneID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "zone id is not a valid id"))
		return
	}
	zone, err := h.service.Deactivate(r.Context(), zoneID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromZone(zone))
}
