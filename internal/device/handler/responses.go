package handler

import (
	"time"

	"timeclock/internal/device"
)

// DeviceResponse is the wire shape of an enrolled device. The secret is only
// present in the enrollment response and is never stored in plaintext.
type DeviceResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	EnrolledAt  time.Time  `json:"enrolled_at"`
	LastSeenAt  *time.Time `json:"last_seen_at,omitempty"`
	IsActive    bool       `json:"is_active"`
	Secret      string     `json:"secret,omitempty"`
}

// TokenResponse carries a device-issued access token.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	FingerprintDrift bool   `json:"fingerprint_drift,omitempty"`
}

// FromDevice maps a domain device to its wire shape.
func FromDevice(d device.Device) DeviceResponse {
	return DeviceResponse{
		ID:          d.ID.String(),
		Name:        d.DisplayName,
		Fingerprint: d.Fingerprint,
		EnrolledAt:  d.EnrolledAt,
		LastSeenAt:  d.LastSeenAt,
		IsActive:    d.IsActive,
	}
}
