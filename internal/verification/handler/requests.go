package handler

import (
	"strings"
	"time"

	"timeclock/internal/geofence"
	"timeclock/internal/verification"
	dErrors "timeclock/pkg/domain-errors"
)

// SubmitSampleRequest is the HTTP request body for submitting a capture.
type SubmitSampleRequest struct {
	ImageRef   string       `json:"image_ref"`
	Fix        *LocationFix `json:"fix,omitempty"`
	CapturedAt time.Time    `json:"captured_at,omitempty"`
}

// LocationFix mirrors the domain fix on the wire.
type LocationFix struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracy_m"`
	CapturedAt     time.Time `json:"captured_at"`
}

// Validate validates the request.
func (r *SubmitSampleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.ImageRef = strings.TrimSpace(r.ImageRef)
	if r.ImageRef == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "image_ref is required")
	}
	return nil
}

// DomainSample converts the wire sample.
func (r *SubmitSampleRequest) DomainSample() verification.Sample {
	sample := verification.Sample{
		ImageRef:   r.ImageRef,
		CapturedAt: r.CapturedAt,
	}
	if r.Fix != nil {
		sample.Fix = geofence.LocationFix{
			Latitude:       r.Fix.Latitude,
			Longitude:      r.Fix.Longitude,
			AccuracyMeters: r.Fix.AccuracyMeters,
			CapturedAt:     r.Fix.CapturedAt,
		}
	}
	return sample
}
