// Package punch orchestrates a clock event end to end: classify the location
// fix against the zone registry, then route in-zone punches into identity
// verification and out-of-zone punches into temporary workplace capture.
package punch

import (
	"context"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"timeclock/internal/geofence"
	"timeclock/internal/notify"
	"timeclock/internal/punch/metrics"
	"timeclock/internal/verification"
	verificationsvc "timeclock/internal/verification/service"
	"timeclock/internal/workplace"
	workplacesvc "timeclock/internal/workplace/service"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
)

// ErrLocationUnavailable means no usable fix accompanied the punch. The punch
// is rejected without writing anything; the caller may retry with a fresh fix.
var ErrLocationUnavailable = dErrors.New(dErrors.CodeUnavailable, "no usable location fix")

// ZoneSource reads the active zone registry. Zone writes are owned by the
// administrative surface.
type ZoneSource interface {
	ListActive(ctx context.Context) ([]geofence.Zone, error)
}

// Verifier starts identity verification for an in-zone punch.
type Verifier interface {
	Start(ctx context.Context, req verificationsvc.StartRequest) (verification.Session, error)
}

// WorkplaceRecorder captures out-of-zone punches.
type WorkplaceRecorder interface {
	SubmitPunch(ctx context.Context, req workplacesvc.SubmitRequest) (workplacesvc.SubmitResult, error)
	ListReusable(ctx context.Context, userID id.UserID) ([]workplace.ReusableWorkplace, error)
}

// Notifier publishes punch events for downstream alerting.
type Notifier interface {
	Enqueue(event notify.Event)
}

// Service is the punch entry point consumed by the transport layer.
type Service struct {
	zones      ZoneSource
	engine     *geofence.Engine
	verifier   Verifier
	workplaces WorkplaceRecorder
	logger     *slog.Logger
	notifier   Notifier
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(zones ZoneSource, verifier Verifier, workplaces WorkplaceRecorder, opts ...Option) *Service {
	s := &Service{
		zones:      zones,
		engine:     geofence.NewEngine(),
		verifier:   verifier,
		workplaces: workplaces,
		logger:     slog.Default(),
		tracer:     otel.Tracer("timeclock/internal/punch"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request is one clock event. Fix is nil when the location provider could
// not produce one. The reason, photo, and reusable fields matter only on the
// out-of-zone path and are ignored for in-zone punches.
type Request struct {
	UserID    id.UserID
	EventID   id.EventID
	PunchType id.PunchType
	Fix       *geofence.LocationFix
	// MaxAttempts overrides the verification-attempt policy when positive.
	MaxAttempts int

	Reason              string
	PhotoRef            string
	Notes               string
	SaveAsReusable      bool
	ReusableName        string
	ReusableWorkplaceID *id.WorkplaceID
}

// Result reports which route the punch took. Accepted means a durable
// attendance record was written this call; an in-zone punch instead opens a
// verification session and is accepted only once that session completes.
type Result struct {
	Accepted          bool
	Zone              *geofence.Zone
	DistanceMeters    float64
	WithinZone        bool
	SessionID         *id.SessionID
	RecordID          *id.RecordID
	PendingApprovalID *id.ApprovalID
}

// Punch classifies the fix and routes the event. It writes nothing when the
// request is invalid or the fix is unusable.
func (s *Service) Punch(ctx context.Context, req Request) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "punch.Punch",
		trace.WithAttributes(
			attribute.String("punch.user_id", req.UserID.String()),
			attribute.String("punch.type", req.PunchType.String()),
		))
	defer span.End()

	if req.UserID.IsNil() || req.EventID.IsNil() {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "user and event are required")
	}
	if !req.PunchType.IsValid() {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "unknown punch type")
	}
	if req.Fix == nil {
		if s.metrics != nil {
			s.metrics.IncrementLocationUnavailable()
		}
		span.SetStatus(codes.Error, "location unavailable")
		return Result{}, ErrLocationUnavailable
	}

	zones, err := s.gatherEvidence(ctx, req)
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}

	match := s.engine.Match(*req.Fix, zones)
	span.SetAttributes(
		attribute.Bool("punch.within_zone", match.WithinZone),
		attribute.Float64("punch.distance_meters", match.DistanceMeters),
	)
	if s.metrics != nil && match.Zone != nil {
		s.metrics.ObserveMatchDistance(match.DistanceMeters)
	}

	result := Result{
		Zone:           match.Zone,
		DistanceMeters: match.DistanceMeters,
		WithinZone:     match.WithinZone,
	}

	if match.WithinZone {
		sess, err := s.verifier.Start(ctx, verificationsvc.StartRequest{
			UserID:      req.UserID,
			EventID:     req.EventID,
			PunchType:   req.PunchType,
			MaxAttempts: req.MaxAttempts,
		})
		if err != nil {
			span.RecordError(err)
			return Result{}, err
		}
		result.SessionID = &sess.ID
		if s.metrics != nil {
			s.metrics.IncrementPunch("in_zone")
		}
		s.logger.InfoContext(ctx, "in-zone punch, verification started",
			"user_id", req.UserID, "session_id", sess.ID,
			"zone_id", match.Zone.ID, "distance_m", match.DistanceMeters)
		return result, nil
	}

	submitted, err := s.workplaces.SubmitPunch(ctx, workplacesvc.SubmitRequest{
		UserID:              req.UserID,
		EventID:             req.EventID,
		PunchType:           req.PunchType,
		Fix:                 *req.Fix,
		Reason:              req.Reason,
		PhotoRef:            req.PhotoRef,
		Notes:               req.Notes,
		SaveAsReusable:      req.SaveAsReusable,
		ReusableName:        req.ReusableName,
		ReusableWorkplaceID: req.ReusableWorkplaceID,
	})
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}

	result.Accepted = true
	result.RecordID = &submitted.Record.ID
	result.PendingApprovalID = submitted.PendingApprovalID
	if s.metrics != nil {
		s.metrics.IncrementPunch("out_of_zone")
	}
	if s.notifier != nil {
		s.notifier.Enqueue(notify.Event{
			Type:    notify.EventPunchRecorded,
			UserID:  req.UserID,
			Subject: submitted.Record.ID.String(),
			Payload: map[string]string{
				"punch_type": req.PunchType.String(),
				"distance_m": strconv.FormatFloat(match.DistanceMeters, 'f', 1, 64),
			},
		})
	}
	s.logger.InfoContext(ctx, "out-of-zone punch captured",
		"user_id", req.UserID, "record_id", submitted.Record.ID,
		"distance_m", match.DistanceMeters, "escalated", submitted.PendingApprovalID != nil)
	return result, nil
}

// gatherEvidence loads the zone registry and, when the punch references a
// saved workplace, checks up front that it is among the user's active ones.
// Both loads share a context so the first failure cancels the other.
func (s *Service) gatherEvidence(ctx context.Context, req Request) ([]geofence.Zone, error) {
	g, ctx := errgroup.WithContext(ctx)

	var zones []geofence.Zone
	g.Go(func() error {
		loaded, err := s.zones.ListActive(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load zone registry")
		}
		zones = loaded
		return nil
	})

	if req.ReusableWorkplaceID != nil {
		g.Go(func() error {
			saved, err := s.workplaces.ListReusable(ctx, req.UserID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "load reusable workplaces")
			}
			for _, wp := range saved {
				if wp.ID == *req.ReusableWorkplaceID {
					return nil
				}
			}
			return dErrors.New(dErrors.CodeNotFound, "reusable workplace not found")
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return zones, nil
}
