// Package service implements the approval queue operations: enqueue,
// decide, bulk decide, and filtered listing.
package service

import (
	"context"
	"errors"
	"log/slog"

	"timeclock/internal/approval"
	"timeclock/internal/approval/metrics"
	"timeclock/internal/approval/store"
	"timeclock/internal/audit"
	"timeclock/internal/notify"
	id "timeclock/pkg/domain"
	dErrors "timeclock/pkg/domain-errors"
	"timeclock/pkg/platform/sentinel"
	"timeclock/pkg/requestcontext"
)

// AuditPublisher emits audit events for approval lifecycle changes.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Notifier buffers a notification for asynchronous delivery.
type Notifier interface {
	Enqueue(event notify.Event)
}

// Service owns the approval queue.
type Service struct {
	store    store.RequestStore
	logger   *slog.Logger
	auditor  AuditPublisher
	notifier Notifier
	metrics  *metrics.Metrics
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
func New(requests store.RequestStore, opts ...Option) *Service {
	s := &Service{store: requests, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnqueueRequest describes a new approval request.
type EnqueueRequest struct {
	// ID is caller-supplied so retried submissions stay idempotent. A nil id
	// gets a fresh one, losing idempotency for that call.
	ID            id.ApprovalID
	SourceEventID id.EventID
	UserID        id.UserID
	RequestType   approval.Type
	Reason        string
}

// Enqueue appends a pending request. Re-enqueuing an existing id is a no-op
// that returns the stored request.
func (s *Service) Enqueue(ctx context.Context, req EnqueueRequest) (approval.Request, error) {
	if req.SourceEventID.IsNil() || req.UserID.IsNil() {
		return approval.Request{}, dErrors.New(dErrors.CodeInvalidInput, "source event and user are required")
	}
	if !req.RequestType.IsValid() {
		return approval.Request{}, dErrors.New(dErrors.CodeInvalidInput, "unknown request type")
	}
	if req.ID.IsNil() {
		req.ID = id.NewApprovalID()
	}

	record := approval.Request{
		ID:            req.ID,
		SourceEventID: req.SourceEventID,
		UserID:        req.UserID,
		RequestType:   req.RequestType,
		Reason:        req.Reason,
		Status:        approval.StatusPending,
		RequestedAt:   requestcontext.Now(ctx),
	}

	if err := s.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			if s.metrics != nil {
				s.metrics.DuplicateSkips.Inc()
			}
			return s.store.FindByID(ctx, req.ID)
		}
		return approval.Request{}, dErrors.Wrap(err, dErrors.CodeInternal, "enqueue approval request")
	}

	if s.metrics != nil {
		s.metrics.Enqueued.WithLabelValues(string(record.RequestType)).Inc()
	}
	s.emitAudit(ctx, record, audit.ActionApprovalRequested, "")
	s.notifyEvent(record, notify.EventApprovalRequested)
	s.logger.InfoContext(ctx, "approval request enqueued",
		"approval_id", record.ID, "type", record.RequestType, "user_id", record.UserID)
	return record, nil
}

// Decide settles one pending request. managerID records who decided.
func (s *Service) Decide(ctx context.Context, requestID id.ApprovalID, managerID id.UserID, approve bool) (approval.Request, error) {
	if requestID.IsNil() {
		return approval.Request{}, dErrors.New(dErrors.CodeInvalidInput, "request id is required")
	}
	if managerID.IsNil() {
		return approval.Request{}, dErrors.New(dErrors.CodeInvalidInput, "manager id is required")
	}

	status := approval.StatusRejected
	if approve {
		status = approval.StatusApproved
	}

	record, err := s.store.Decide(ctx, requestID, status, managerID, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return approval.Request{}, dErrors.New(dErrors.CodeNotFound, "approval request not found")
		case errors.Is(err, sentinel.ErrAlreadyDecided):
			return approval.Request{}, dErrors.New(dErrors.CodeConflict, "approval request already decided")
		}
		return approval.Request{}, dErrors.Wrap(err, dErrors.CodeInternal, "decide approval request")
	}

	if s.metrics != nil {
		s.metrics.Decided.WithLabelValues(string(record.Status)).Inc()
	}
	s.emitAudit(ctx, record, audit.ActionApprovalDecided, record.Reason)
	s.notifyEvent(record, notify.EventApprovalDecided)
	s.logger.InfoContext(ctx, "approval request decided",
		"approval_id", record.ID, "status", record.Status, "manager_id", managerID)
	return record, nil
}

// BulkDecide applies Decide to each id independently, in the order given.
// One id failing does not roll back the others.
func (s *Service) BulkDecide(ctx context.Context, requestIDs []id.ApprovalID, managerID id.UserID, approve bool) (approval.BulkResult, error) {
	if managerID.IsNil() {
		return approval.BulkResult{}, dErrors.New(dErrors.CodeInvalidInput, "manager id is required")
	}

	var result approval.BulkResult
	for _, requestID := range requestIDs {
		if _, err := s.Decide(ctx, requestID, managerID, approve); err != nil {
			result.Failed = append(result.Failed, approval.BulkFailure{ID: requestID, Err: err})
			if s.metrics != nil {
				s.metrics.BulkItemsFailed.Inc()
			}
			continue
		}
		result.Succeeded = append(result.Succeeded, requestID)
	}
	return result, nil
}

// List returns requests matching the filter. Read-only; no side effects.
func (s *Service) List(ctx context.Context, filter approval.Filter) ([]approval.Request, error) {
	requests, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list approval requests")
	}
	return requests, nil
}

// Get returns one request by id.
func (s *Service) Get(ctx context.Context, requestID id.ApprovalID) (approval.Request, error) {
	record, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return approval.Request{}, dErrors.New(dErrors.CodeNotFound, "approval request not found")
		}
		return approval.Request{}, dErrors.Wrap(err, dErrors.CodeInternal, "find approval request")
	}
	return record, nil
}

func (s *Service) emitAudit(ctx context.Context, record approval.Request, action audit.Action, reason string) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		UserID:    record.UserID,
		Subject:   record.ID.String(),
		Action:    action,
		Outcome:   string(record.Status),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", action, "approval_id", record.ID, "error", err)
	}
}

func (s *Service) notifyEvent(record approval.Request, eventType notify.EventType) {
	if s.notifier == nil {
		return
	}
	s.notifier.Enqueue(notify.Event{
		Type:    eventType,
		UserID:  record.UserID,
		Subject: record.ID.String(),
		Payload: map[string]string{
			"type":   string(record.RequestType),
			"status": string(record.Status),
		},
	})
}
