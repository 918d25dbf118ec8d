package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/geofence"
	"timeclock/internal/verification"
)

func sample() verification.Sample {
	return verification.Sample{
		ImageRef:   "s3://captured/1.jpg",
		Fix:        geofence.LocationFix{Latitude: 37.7749, Longitude: -122.4194},
		CapturedAt: time.Now(),
	}
}

func TestVerifySuccess(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req verifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "s3://captured/1.jpg", req.ImageRef)

		_ = json.NewEncoder(w).Encode(verifyResponse{Match: true, ConfidencePercent: 97.5})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "test-key", time.Second)
	outcome, err := p.Verify(context.Background(), "user-1", sample())
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, 97.5, outcome.ConfidencePercent)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestVerifyRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(verifyResponse{Match: false, FailureReason: "no face detected"})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "", time.Second)
	outcome, err := p.Verify(context.Background(), "user-1", sample())
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "no face detected", outcome.FailureReason)
}

func TestVerifyProviderUnavailable(t *testing.T) {
	for name, status := range map[string]int{
		"server error": http.StatusInternalServerError,
		"rate limited": http.StatusTooManyRequests,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))
			defer srv.Close()

			p := NewHTTPProvider(srv.URL, "", time.Second)
			_, err := p.Verify(context.Background(), "user-1", sample())
			assert.ErrorIs(t, err, verification.ErrProviderUnavailable)
		})
	}

	t.Run("unreachable host", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		p := NewHTTPProvider(srv.URL, "", time.Second)
		_, err := p.Verify(context.Background(), "user-1", sample())
		assert.ErrorIs(t, err, verification.ErrProviderUnavailable)
	})
}

func TestVerifyClientErrorIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "", time.Second)
	_, err := p.Verify(context.Background(), "user-1", sample())
	require.Error(t, err)
	assert.NotErrorIs(t, err, verification.ErrProviderUnavailable)
}
