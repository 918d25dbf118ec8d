package device

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent derives a human-readable display name from a User-Agent
// string, e.g. "Chrome on Mac OS X" or "Safari on iPhone".
func ParseUserAgent(raw string) string {
	if raw == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)

	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	platform := ua.OSInfo().Name
	if ua.Mobile() && ua.Platform() != "" {
		platform = ua.Platform()
	}
	if platform == "" {
		platform = "Unknown OS"
	}

	return strings.TrimSpace(browser + " on " + platform)
}

// ComputeFingerprint hashes the stable parts of the User-Agent: browser name,
// browser major version, and OS name. Minor and patch version bumps do not
// change the fingerprint; a major version change does.
func (s *Service) ComputeFingerprint(raw string) string {
	if !s.fingerprintEnabled {
		return ""
	}

	ua := useragent.New(raw)
	browser, version := ua.Browser()
	major, _, _ := strings.Cut(version, ".")

	canonical := strings.Join([]string{browser, major, ua.OSInfo().Name}, "|")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// CompareFingerprints reports whether the presented fingerprint matches the
// stored one and whether the mismatch counts as drift. With fingerprinting
// disabled, or no stored fingerprint, nothing is compared.
func (s *Service) CompareFingerprints(stored, presented string) (matched bool, drift bool) {
	if !s.fingerprintEnabled || stored == "" {
		return true, false
	}
	if stored == presented {
		return true, false
	}
	return false, true
}
