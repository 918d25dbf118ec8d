// Package registry manages the geofence zone catalogue behind the
// administrative surface. The matching engine only ever sees the zones this
// package admits.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"timeclock/internal/audit"
	"timeclock/internal/geofence"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
	"timeclock/pkg/platform/sentinel"
	pstrings "timeclock/pkg/platform/strings"
	"timeclock/pkg/requestcontext"
)

// ZoneStore persists zones. Implemented by store.InMemoryZoneStore and
// store.PostgresZoneStore.
type ZoneStore interface {
	Save(ctx context.Context, zone geofence.Zone) error
	FindByID(ctx context.Context, zoneID id.ZoneID) (geofence.Zone, error)
	ListAll(ctx context.Context) ([]geofence.Zone, error)
}

// AuditPublisher records zone changes to the audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	zones   ZoneStore
	logger  *slog.Logger
	auditor AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(auditor AuditPublisher) Option {
	return func(s *Service) { s.auditor = auditor }
}

func New(zones ZoneStore, opts ...Option) *Service {
	s := &Service{zones: zones, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveRequest creates a zone when ID is nil and updates it otherwise.
type SaveRequest struct {
	ID             *id.ZoneID
	Name           string
	CenterLat      float64
	CenterLng      float64
	RadiusMeters   float64
	Address        string
	IsActive       bool
	AllowedMethods []string
}

func (r SaveRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "zone name is required")
	}
	if r.CenterLat < -90 || r.CenterLat > 90 || r.CenterLng < -180 || r.CenterLng > 180 {
		return dErrors.New(dErrors.CodeInvalidInput, "zone center out of range")
	}
	if r.RadiusMeters <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "zone radius must be positive")
	}
	return nil
}

// Save admits a zone into the catalogue. Updates require the zone to exist.
func (s *Service) Save(ctx context.Context, req SaveRequest) (geofence.Zone, error) {
	if err := req.validate(); err != nil {
		return geofence.Zone{}, err
	}

	zone := geofence.Zone{
		Name:         strings.TrimSpace(req.Name),
		CenterLat:    req.CenterLat,
		CenterLng:    req.CenterLng,
		RadiusMeters: req.RadiusMeters,
		Address:      req.Address,
		IsActive:     req.IsActive,
	}
	if methods := pstrings.DedupeAndTrimLower(req.AllowedMethods); len(methods) > 0 {
		zone.AllowedMethods = make(map[string]struct{}, len(methods))
		for _, m := range methods {
			zone.AllowedMethods[m] = struct{}{}
		}
	}

	if req.ID != nil {
		if _, err := s.zones.FindByID(ctx, *req.ID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return geofence.Zone{}, dErrors.New(dErrors.CodeNotFound, "zone not found")
			}
			return geofence.Zone{}, dErrors.Wrap(err, dErrors.CodeInternal, "load zone")
		}
		zone.ID = *req.ID
	} else {
		zone.ID = id.NewZoneID()
	}

	if err := s.zones.Save(ctx, zone); err != nil {
		return geofence.Zone{}, dErrors.Wrap(err, dErrors.CodeInternal, "save zone")
	}

	s.emitAudit(ctx, zone)
	s.logger.InfoContext(ctx, "zone saved",
		"zone_id", zone.ID,
		"zone_name", zone.Name,
		"active", zone.IsActive,
	)
	return zone, nil
}

// Deactivate retires a zone from matching without deleting its history.
func (s *Service) Deactivate(ctx context.Context, zoneID id.ZoneID) (geofence.Zone, error) {
	zone, err := s.zones.FindByID(ctx, zoneID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return geofence.Zone{}, dErrors.New(dErrors.CodeNotFound, "zone not found")
		}
		return geofence.Zone{}, dErrors.Wrap(err, dErrors.CodeInternal, "load zone")
	}
	if !zone.IsActive {
		return zone, nil
	}

	zone.IsActive = false
	if err := s.zones.Save(ctx, zone); err != nil {
		return geofence.Zone{}, dErrors.Wrap(err, dErrors.CodeInternal, "save zone")
	}
	s.emitAudit(ctx, zone)
	return zone, nil
}

// List returns every registered zone, active or not.
func (s *Service) List(ctx context.Context) ([]geofence.Zone, error) {
	zones, err := s.zones.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list zones")
	}
	return zones, nil
}

func (s *Service) emitAudit(ctx context.Context, zone geofence.Zone) {
	if s.auditor == nil {
		return
	}
	outcome := "active"
	if !zone.IsActive {
		outcome = "inactive"
	}
	event := audit.Event{
		Subject:   zone.ID.String(),
		Action:    audit.ActionZoneSaved,
		Outcome:   outcome,
		Reason:    zone.Name,
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action, "subject", event.Subject, "error", err)
	}
}
