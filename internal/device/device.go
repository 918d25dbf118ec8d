package device

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"timeclock/internal/audit"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
	"timeclock/pkg/platform/secrets"
	"timeclock/pkg/platform/sentinel"
	"timeclock/pkg/requestcontext"
)

// AuditPublisher emits audit events for enrollment activity.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service enrolls and authenticates punch devices.
type Service struct {
	devices            Store
	logger             *slog.Logger
	auditor            AuditPublisher
	fingerprintEnabled bool
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

// WithFingerprinting toggles User-Agent fingerprinting. Disabled, devices
// carry no fingerprint and drift is never reported.
func WithFingerprinting(enabled bool) Option {
	return func(s *Service) {
		s.fingerprintEnabled = enabled
	}
}

// New constructs a Service.
func New(devices Store, opts ...Option) *Service {
	s := &Service{
		devices:            devices,
		logger:             slog.Default(),
		fingerprintEnabled: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnrollRequest registers a device for a user. Name overrides the display
// name derived from the User-Agent when set.
type EnrollRequest struct {
	UserID    id.UserID
	Name      string
	UserAgent string
}

// Enroll registers the device and returns it together with the plaintext
// secret. The secret is shown exactly once; only its hash is stored.
func (s *Service) Enroll(ctx context.Context, req EnrollRequest) (Device, string, error) {
	if req.UserID.IsNil() {
		return Device{}, "", dErrors.New(dErrors.CodeInvalidInput, "user is required")
	}

	secret, err := secrets.Generate()
	if err != nil {
		return Device{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "generate device secret")
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return Device{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "hash device secret")
	}

	displayName := strings.TrimSpace(req.Name)
	if displayName == "" {
		displayName = ParseUserAgent(req.UserAgent)
	}

	d := Device{
		ID:          id.NewDeviceID(),
		UserID:      req.UserID,
		DisplayName: displayName,
		Fingerprint: s.ComputeFingerprint(req.UserAgent),
		SecretHash:  hash,
		EnrolledAt:  requestcontext.Now(ctx),
		IsActive:    true,
	}
	if err := s.devices.Create(ctx, d); err != nil {
		return Device{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "store device")
	}

	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			UserID:    req.UserID,
			Subject:   d.ID.String(),
			Action:    audit.ActionDeviceEnrolled,
			Outcome:   "success",
			Reason:    displayName,
			RequestID: requestcontext.RequestID(ctx),
		})
	}
	s.logger.InfoContext(ctx, "device enrolled",
		"device_id", d.ID, "user_id", req.UserID, "display_name", displayName)
	return d, secret, nil
}

// Authenticate checks the device secret and compares the presented
// User-Agent fingerprint against the enrolled one. Drift does not fail
// authentication; it is surfaced for the caller to act on.
func (s *Service) Authenticate(ctx context.Context, deviceID id.DeviceID, secret, userAgent string) (Device, bool, error) {
	d, err := s.devices.FindByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Device{}, false, dErrors.New(dErrors.CodeNotFound, "device not found")
		}
		return Device{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "load device")
	}
	if !d.IsActive {
		return Device{}, false, dErrors.New(dErrors.CodeForbidden, "device is revoked")
	}
	if err := secrets.Verify(secret, d.SecretHash); err != nil {
		return Device{}, false, dErrors.New(dErrors.CodeUnauthorized, "invalid device secret")
	}

	_, drift := s.CompareFingerprints(d.Fingerprint, s.ComputeFingerprint(userAgent))
	if drift {
		s.logger.WarnContext(ctx, "device fingerprint drift",
			"device_id", d.ID, "user_id", d.UserID)
	}

	seenAt := requestcontext.Now(ctx)
	d.LastSeenAt = &seenAt
	if err := s.devices.Update(ctx, d); err != nil {
		s.logger.ErrorContext(ctx, "failed to stamp device last seen",
			"device_id", d.ID, "error", err)
	}
	return d, drift, nil
}

// Revoke deactivates a device. Only the owner's devices are visible.
func (s *Service) Revoke(ctx context.Context, userID id.UserID, deviceID id.DeviceID) error {
	d, err := s.devices.FindByID(ctx, deviceID)
	if err != nil || d.UserID != userID {
		return dErrors.New(dErrors.CodeNotFound, "device not found")
	}
	if !d.IsActive {
		return nil
	}
	d.IsActive = false
	if err := s.devices.Update(ctx, d); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "revoke device")
	}
	s.logger.InfoContext(ctx, "device revoked", "device_id", deviceID, "user_id", userID)
	return nil
}

// ListByUser returns all of a user's devices, enrolled order, revoked ones
// included.
func (s *Service) ListByUser(ctx context.Context, userID id.UserID) ([]Device, error) {
	devices, err := s.devices.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list devices")
	}
	return devices, nil
}

// Lifetime of an issued device token; kept here so transport and tests agree.
const TokenLifetime = 12 * time.Hour
