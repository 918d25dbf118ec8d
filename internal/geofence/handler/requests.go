package handler

import (
	"timeclock/internal/geofence/registry"
	dErrors "timeclock/pkg/domain-errors"
)

// ZoneRequest is the admin payload for creating or updating a zone.
type ZoneRequest struct {
	Name           string   `json:"name"`
	CenterLat      float64  `json:"center_lat"`
	CenterLng      float64  `json:"center_lng"`
	RadiusMeters   float64  `json:"radius_m"`
	Address        string   `json:"address"`
	IsActive       *bool    `json:"is_active"`
	AllowedMethods []string `json:"allowed_methods"`
}

// Validate implements httputil.Validatable. Range checks live in the registry
// service; this only rejects shapes the service cannot express.
func (r *ZoneRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	return nil
}

// SaveRequest maps the payload onto the registry's request. Zones default to
// active unless the payload says otherwise.
func (r *ZoneRequest) SaveRequest() registry.SaveRequest {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return registry.SaveRequest{
		Name:           r.Name,
		CenterLat:      r.CenterLat,
		CenterLng:      r.CenterLng,
		RadiusMeters:   r.RadiusMeters,
		Address:        r.Address,
		IsActive:       active,
		AllowedMethods: r.AllowedMethods,
	}
}
