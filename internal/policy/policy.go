// Package policy holds the attendance policy knobs injected into the engine.
// Values are deployment configuration, never hard-coded into services.
package policy

import (
	"os"
	"strconv"
	"time"
)

// Attendance governs punch acceptance behavior.
type Attendance struct {
	// MaxVerificationAttempts bounds identity-check retries per session.
	MaxVerificationAttempts int
	// ProviderTimeout caps a single call to the verification provider. On
	// timeout the attempt is not counted and the session stays retryable.
	ProviderTimeout time.Duration
	// RequireReason makes the justification text mandatory for punches from
	// unregistered locations.
	RequireReason bool
	// RequirePhoto makes a photo mandatory for punches from unregistered
	// locations.
	RequirePhoto bool
	// RequireApproval routes temporary-workplace punches through manager
	// sign-off; when false such records stand as self-approved.
	RequireApproval bool
}

// Default returns the stock policy: three attempts, reason required, photo
// optional, manager approval required.
func Default() Attendance {
	return Attendance{
		MaxVerificationAttempts: 3,
		ProviderTimeout:         10 * time.Second,
		RequireReason:           true,
		RequirePhoto:            false,
		RequireApproval:         true,
	}
}

// FromEnv overlays environment overrides onto the default policy.
func FromEnv() Attendance {
	p := Default()
	if raw := os.Getenv("POLICY_MAX_VERIFICATION_ATTEMPTS"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.MaxVerificationAttempts = v
		}
	}
	if raw := os.Getenv("POLICY_PROVIDER_TIMEOUT"); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil && v > 0 {
			p.ProviderTimeout = v
		}
	}
	if raw := os.Getenv("POLICY_REQUIRE_REASON"); raw != "" {
		p.RequireReason = raw == "true"
	}
	if raw := os.Getenv("POLICY_REQUIRE_PHOTO"); raw != "" {
		p.RequirePhoto = raw == "true"
	}
	if raw := os.Getenv("POLICY_REQUIRE_APPROVAL"); raw != "" {
		p.RequireApproval = raw == "true"
	}
	return p
}
