// Package provider implements verification.Provider against an external face
// verification service over HTTP.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"timeclock/internal/verification"
)

type verifyRequest struct {
	UserID     string    `json:"user_id"`
	ImageRef   string    `json:"image_ref"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CapturedAt time.Time `json:"captured_at"`
}

type verifyResponse struct {
	Match             bool    `json:"match"`
	ConfidencePercent float64 `json:"confidence_percent"`
	FailureReason     string  `json:"failure_reason"`
}

// HTTPProvider calls a face verification endpoint. Transport failures and
// provider-side errors surface as verification.ErrProviderUnavailable so the
// session keeps its attempt slot.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (p *HTTPProvider) Verify(ctx context.Context, userID string, sample verification.Sample) (verification.Outcome, error) {
	payload, err := json.Marshal(verifyRequest{
		UserID:     userID,
		ImageRef:   sample.ImageRef,
		Latitude:   sample.Fix.Latitude,
		Longitude:  sample.Fix.Longitude,
		CapturedAt: sample.CapturedAt,
	})
	if err != nil {
		return verification.Outcome{}, fmt.Errorf("marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/verify", bytes.NewReader(payload))
	if err != nil {
		return verification.Outcome{}, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		// Timeouts, DNS failures, refused connections: the sample was never
		// judged, so the attempt slot must survive.
		return verification.Outcome{}, verification.ErrProviderUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return verification.Outcome{}, verification.ErrProviderUnavailable
	default:
		return verification.Outcome{}, fmt.Errorf("verify call failed with status %d", resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return verification.Outcome{}, verification.ErrProviderUnavailable
	}

	return verification.Outcome{
		Success:           body.Match,
		ConfidencePercent: body.ConfidencePercent,
		FailureReason:     body.FailureReason,
	}, nil
}
