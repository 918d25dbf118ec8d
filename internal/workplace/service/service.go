// Package service implements temporary workplace punch handling: policy
// validation, record capture, reusable workplace bookkeeping, and manager
// escalation.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"timeclock/internal/approval"
	approvalsvc "timeclock/internal/approval/service"
	"timeclock/internal/audit"
	"timeclock/internal/geofence"
	"timeclock/internal/policy"
	"timeclock/internal/workplace"
	"timeclock/internal/workplace/metrics"
	"timeclock/internal/workplace/store"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
	"timeclock/pkg/platform/sentinel"
	"timeclock/pkg/requestcontext"
)

// ApprovalEnqueuer raises manager sign-off requests.
type ApprovalEnqueuer interface {
	Enqueue(ctx context.Context, req approvalsvc.EnqueueRequest) (approval.Request, error)
}

// AuditPublisher emits audit events for punch captures.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service captures punches from unregistered locations.
type Service struct {
	records    store.RecordStore
	workplaces store.WorkplaceStore
	approvals  ApprovalEnqueuer
	policy     policy.Attendance
	logger     *slog.Logger
	auditor    AuditPublisher
	metrics    *metrics.Metrics
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

func WithApprovals(approvals ApprovalEnqueuer) Option {
	return func(s *Service) {
		s.approvals = approvals
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(records store.RecordStore, workplaces store.WorkplaceStore, pol policy.Attendance, opts ...Option) *Service {
	s := &Service{
		records:    records,
		workplaces: workplaces,
		policy:     pol,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitRequest describes a punch from a location outside every active zone.
// The caller is responsible for having run geofence matching already; this
// service does not re-check it.
type SubmitRequest struct {
	UserID    id.UserID
	EventID   id.EventID
	PunchType id.PunchType
	Fix       geofence.LocationFix
	Reason    string
	PhotoRef  string
	Notes     string
	// SaveAsReusable creates a named workplace from this punch's location.
	SaveAsReusable bool
	ReusableName   string
	// ReusableWorkplaceID references an existing saved workplace instead.
	// Matching is by id only.
	ReusableWorkplaceID *id.WorkplaceID
}

// SubmitResult is the captured record plus whatever it spawned.
type SubmitResult struct {
	Record            workplace.Record
	Workplace         *workplace.ReusableWorkplace
	PendingApprovalID *id.ApprovalID
}

// SubmitPunch validates the punch against policy and captures it. All
// validation runs before the first write; a rejected punch leaves no record
// behind.
func (s *Service) SubmitPunch(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if req.UserID.IsNil() || req.EventID.IsNil() {
		return SubmitResult{}, dErrors.New(dErrors.CodeInvalidInput, "user and event are required")
	}
	if !req.PunchType.IsValid() {
		return SubmitResult{}, dErrors.New(dErrors.CodeInvalidInput, "unknown punch type")
	}
	if req.Fix.Latitude < -90 || req.Fix.Latitude > 90 || req.Fix.Longitude < -180 || req.Fix.Longitude > 180 {
		return SubmitResult{}, dErrors.New(dErrors.CodeInvalidInput, "location fix out of range")
	}
	if s.policy.RequireReason && strings.TrimSpace(req.Reason) == "" {
		s.countRejection("missing_reason")
		return SubmitResult{}, workplace.ErrMissingReason
	}
	if s.policy.RequirePhoto && req.PhotoRef == "" {
		s.countRejection("missing_photo")
		return SubmitResult{}, workplace.ErrMissingPhoto
	}

	var existing *workplace.ReusableWorkplace
	if req.ReusableWorkplaceID != nil {
		wp, err := s.workplaces.FindByID(ctx, *req.ReusableWorkplaceID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return SubmitResult{}, dErrors.New(dErrors.CodeNotFound, "reusable workplace not found")
			}
			return SubmitResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "load reusable workplace")
		}
		if wp.UserID != req.UserID {
			return SubmitResult{}, dErrors.New(dErrors.CodeNotFound, "reusable workplace not found")
		}
		if !wp.IsActive {
			return SubmitResult{}, dErrors.New(dErrors.CodeConflict, "reusable workplace is deactivated")
		}
		existing = &wp
	} else if req.SaveAsReusable && strings.TrimSpace(req.ReusableName) == "" {
		return SubmitResult{}, dErrors.New(dErrors.CodeInvalidInput, "a name is required to save this location for reuse")
	}

	now := requestcontext.Now(ctx)
	punchTime := req.Fix.CapturedAt
	if punchTime.IsZero() {
		punchTime = now
	}

	result := SubmitResult{}
	record := workplace.Record{
		ID:        id.NewRecordID(),
		UserID:    req.UserID,
		Date:      punchTime.Truncate(24 * time.Hour),
		PunchType: req.PunchType,
		PunchTime: punchTime,
		Fix:       req.Fix,
		Reason:    strings.TrimSpace(req.Reason),
		PhotoRef:  req.PhotoRef,
		Notes:     req.Notes,
		CreatedAt: now,
	}

	switch {
	case existing != nil:
		record.IsReusable = true
		record.WorkplaceID = &existing.ID
	case req.SaveAsReusable:
		wp := workplace.ReusableWorkplace{
			ID:         id.NewWorkplaceID(),
			UserID:     req.UserID,
			Name:       strings.TrimSpace(req.ReusableName),
			Latitude:   req.Fix.Latitude,
			Longitude:  req.Fix.Longitude,
			Reason:     record.Reason,
			IsActive:   true,
			UsageCount: 1,
			LastUsedAt: &punchTime,
		}
		if err := s.workplaces.Create(ctx, wp); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return SubmitResult{}, dErrors.New(dErrors.CodeConflict, "a workplace with that name already exists")
			}
			return SubmitResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "save reusable workplace")
		}
		record.IsReusable = true
		record.WorkplaceID = &wp.ID
		result.Workplace = &wp
		if s.metrics != nil {
			s.metrics.WorkplacesCreated.Inc()
		}
	}

	if err := s.records.Create(ctx, record); err != nil {
		return SubmitResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "create workplace record")
	}
	result.Record = record

	if existing != nil {
		touched, err := s.workplaces.Touch(ctx, existing.ID, punchTime)
		if err != nil {
			// The punch record stands; usage bookkeeping is best effort.
			s.logger.ErrorContext(ctx, "failed to touch reusable workplace",
				"workplace_id", existing.ID, "error", err)
		} else {
			result.Workplace = &touched
			s.emitAudit(ctx, req.UserID, touched.ID.String(), audit.ActionWorkplaceReused, touched.Name)
		}
		if s.metrics != nil {
			s.metrics.WorkplacesReused.Inc()
		}
	}

	if s.policy.RequireApproval && s.approvals != nil {
		approvalReq, err := s.approvals.Enqueue(ctx, approvalsvc.EnqueueRequest{
			ID:            id.NewApprovalID(),
			SourceEventID: req.EventID,
			UserID:        req.UserID,
			RequestType:   approval.TypeTemporaryWorkplace,
			Reason:        record.Reason,
		})
		if err != nil {
			return result, dErrors.Wrap(err, dErrors.CodeInternal, "escalate for approval")
		}
		result.PendingApprovalID = &approvalReq.ID
	}

	if s.metrics != nil {
		s.metrics.PunchesRecorded.WithLabelValues(record.PunchType.String()).Inc()
	}
	s.emitAudit(ctx, req.UserID, record.ID.String(), audit.ActionPunchRecorded, record.Reason)
	s.logger.InfoContext(ctx, "temporary workplace punch recorded",
		"record_id", record.ID, "user_id", req.UserID,
		"punch_type", record.PunchType, "reusable", record.IsReusable)
	return result, nil
}

// ListReusable returns the user's active saved workplaces.
func (s *Service) ListReusable(ctx context.Context, userID id.UserID) ([]workplace.ReusableWorkplace, error) {
	workplaces, err := s.workplaces.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list reusable workplaces")
	}
	return workplaces, nil
}

// DeactivateReusable retires a saved workplace. Existing punch records keep
// their reference; the workplace just stops being offered.
func (s *Service) DeactivateReusable(ctx context.Context, userID id.UserID, workplaceID id.WorkplaceID) error {
	wp, err := s.workplaces.FindByID(ctx, workplaceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "reusable workplace not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "load reusable workplace")
	}
	if wp.UserID != userID {
		return dErrors.New(dErrors.CodeNotFound, "reusable workplace not found")
	}

	if err := s.workplaces.Deactivate(ctx, workplaceID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "deactivate reusable workplace")
	}
	s.emitAudit(ctx, userID, workplaceID.String(), audit.ActionWorkplaceRetired, wp.Name)
	return nil
}

// ListRecords returns the user's temporary workplace punch history.
func (s *Service) ListRecords(ctx context.Context, userID id.UserID) ([]workplace.Record, error) {
	records, err := s.records.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list workplace records")
	}
	return records, nil
}

func (s *Service) countRejection(reason string) {
	if s.metrics != nil {
		s.metrics.PunchesRejected.WithLabelValues(reason).Inc()
	}
}

func (s *Service) emitAudit(ctx context.Context, userID id.UserID, subject string, action audit.Action, reason string) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		UserID:    userID,
		Subject:   subject,
		Action:    action,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", action, "subject", subject, "error", err)
	}
}
