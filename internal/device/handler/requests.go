package handler

import (
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
)

// EnrollRequest registers the calling user's device. Name is optional; when
// blank the display name is derived from the request's User-Agent header.
type EnrollRequest struct {
	Name string `json:"name"`
}

// Validate implements httputil.Validatable.
func (r *EnrollRequest) Validate() error {
	if len(r.Name) > 120 {
		return dErrors.New(dErrors.CodeInvalidInput, "device name too long")
	}
	return nil
}

// TokenRequest exchanges a device credential for a short-lived access token.
type TokenRequest struct {
	DeviceID string `json:"device_id"`
	Secret   string `json:"secret"`

	parsedDeviceID id.DeviceID
}

// Validate implements httputil.Validatable.
func (r *TokenRequest) Validate() error {
	deviceID, err := id.ParseDeviceID(r.DeviceID)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "device_id is not a valid id")
	}
	if r.Secret == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "secret is required")
	}
	r.parsedDeviceID = deviceID
	return nil
}

// ParsedDeviceID returns the device id parsed during Validate.
func (r *TokenRequest) ParsedDeviceID() id.DeviceID { return r.parsedDeviceID }
