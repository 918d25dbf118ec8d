package handler

import (
	"timeclock/internal/punch"
)

// PunchResponse is the HTTP response body for POST /punch.
type PunchResponse struct {
	Accepted          bool    `json:"accepted"`
	WithinZone        bool    `json:"within_zone"`
	DistanceMeters    float64 `json:"distance_m"`
	ZoneID            string  `json:"zone_id,omitempty"`
	ZoneName          string  `json:"zone_name,omitempty"`
	SessionID         string  `json:"session_id,omitempty"`
	RecordID          string  `json:"record_id,omitempty"`
	PendingApprovalID string  `json:"pending_approval_id,omitempty"`
}

// FromResult maps the domain result onto the wire shape.
func FromResult(result punch.Result) PunchResponse {
	resp := PunchResponse{
		Accepted:       result.Accepted,
		WithinZone:     result.WithinZone,
		DistanceMeters: result.DistanceMeters,
	}
	if result.Zone != nil {
		resp.ZoneID = result.Zone.ID.String()
		resp.ZoneName = result.Zone.Name
	}
	if result.SessionID != nil {
		resp.SessionID = result.SessionID.String()
	}
	if result.RecordID != nil {
		resp.RecordID = result.RecordID.String()
	}
	if result.PendingApprovalID != nil {
		resp.PendingApprovalID = result.PendingApprovalID.String()
	}
	return resp
}
