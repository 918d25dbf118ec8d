package verification

//go:generate mockgen -source=provider.go -destination=mocks/mocks.go -package=mocks Provider

import (
	"context"
	"errors"
	"time"

	"timeclock/internal/geofence"
)

// ErrProviderUnavailable means the provider could not be reached or did not
// answer in time. The attempt slot is not consumed.
var ErrProviderUnavailable = errors.New("verification provider unavailable")

// Sample is one captured verification input submitted against a session.
type Sample struct {
	ImageRef   string
	Fix        geofence.LocationFix
	CapturedAt time.Time
}

// Provider judges a captured sample. Implementations wrap external face or
// liveness services; transport failures and timeouts must be reported as
// ErrProviderUnavailable so the caller can retry without losing an attempt.
type Provider interface {
	Verify(ctx context.Context, userID string, sample Sample) (Outcome, error)
}
