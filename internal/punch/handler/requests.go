package handler

import (
	"strings"
	"time"

	"timeclock/internal/geofence"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
)

// PunchRequest is the HTTP request body for POST /punch.
type PunchRequest struct {
	EventID   string       `json:"event_id"`
	PunchType string       `json:"punch_type"`
	Fix       *LocationFix `json:"fix"`

	Reason              string `json:"reason,omitempty"`
	PhotoRef            string `json:"photo_ref,omitempty"`
	Notes               string `json:"notes,omitempty"`
	SaveAsReusable      bool   `json:"save_as_reusable,omitempty"`
	ReusableName        string `json:"reusable_name,omitempty"`
	ReusableWorkplaceID string `json:"reusable_workplace_id,omitempty"`
	MaxAttempts         int    `json:"max_attempts,omitempty"`

	parsedEventID     id.EventID
	parsedPunchType   id.PunchType
	parsedWorkplaceID *id.WorkplaceID
}

// LocationFix mirrors the domain fix on the wire.
type LocationFix struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracy_m"`
	CapturedAt     time.Time `json:"captured_at"`
}

// Validate validates and parses the request.
func (r *PunchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.EventID = strings.TrimSpace(r.EventID)
	if r.EventID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "event_id is required")
	}
	eventID, err := id.ParseEventID(r.EventID)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "event_id is not a valid id")
	}
	r.parsedEventID = eventID

	punchType, err := id.ParsePunchType(r.PunchType)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "punch_type must be clock-in or clock-out")
	}
	r.parsedPunchType = punchType

	if raw := strings.TrimSpace(r.ReusableWorkplaceID); raw != "" {
		workplaceID, err := id.ParseWorkplaceID(raw)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "reusable_workplace_id is not a valid id")
		}
		r.parsedWorkplaceID = &workplaceID
	}

	if r.MaxAttempts < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "max_attempts must not be negative")
	}
	return nil
}

// DomainFix converts the wire fix; nil stays nil so the service can reject
// the punch as location-unavailable.
func (r *PunchRequest) DomainFix() *geofence.LocationFix {
	if r.Fix == nil {
		return nil
	}
	return &geofence.LocationFix{
		Latitude:       r.Fix.Latitude,
		Longitude:      r.Fix.Longitude,
		AccuracyMeters: r.Fix.AccuracyMeters,
		CapturedAt:     r.Fix.CapturedAt,
	}
}

func (r *PunchRequest) ParsedEventID() id.EventID          { return r.parsedEventID }
func (r *PunchRequest) ParsedPunchType() id.PunchType      { return r.parsedPunchType }
func (r *PunchRequest) ParsedWorkplaceID() *id.WorkplaceID { return r.parsedWorkplaceID }
