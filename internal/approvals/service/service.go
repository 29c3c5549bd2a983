package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-approvals/internal/approvals/aggregation"
	approvaldb "ms-approvals/internal/approvals/db"
	eventdb "ms-approvals/internal/events/db"
	"ms-approvals/internal/logger"
	"ms-approvals/internal/models"
	"ms-approvals/internal/utils"
)

type ApprovalDBLayer interface {
	GetApprovalForGuardian(ctx context.Context, id, guardianID string) (*models.Approval, error)
	ListByGuardian(ctx context.Context, guardianID string) ([]models.Approval, error)
	ListPendingForEventGuardian(ctx context.Context, eventID, guardianID string) ([]models.Approval, error)
	GuardiansForEvent(ctx context.Context, eventID string) ([]string, error)
	UpdateDecision(ctx context.Context, id, guardianID string, expectedVersion int64, status models.ApprovalStatus, remarks *string, respondedAt time.Time) (bool, error)
	TransitionIfPending(ctx context.Context, id, guardianID string, status models.ApprovalStatus, remarks *string, respondedAt time.Time) (bool, error)
	CreateApprovals(ctx context.Context, approvals []models.Approval) (int, error)
	DeleteByEvent(ctx context.Context, eventID string) (int, error)
}

type EventDBLayer interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	GuardiansOfStudents(ctx context.Context, studentIDs []string) ([]models.GuardianStudent, error)
}

// ViewCache holds per-guardian read models. Get returns nil, nil on a miss.
// Invalidate advances the guardian's generation; Set stores only while the
// generation still matches and reports whether it did.
type ViewCache interface {
	Get(ctx context.Context, guardianID string) (*models.GuardianEventsView, error)
	Generation(ctx context.Context, guardianID string) (int64, error)
	Set(ctx context.Context, guardianID string, generation int64, view *models.GuardianEventsView) (bool, error)
	Invalidate(ctx context.Context, guardianID string) error
}

type EventPublisher interface {
	PublishJSON(topic, key string, payload interface{}) error
}

type Options struct {
	RespondedTopic  string
	PastEventsLimit int
}

type ApprovalService struct {
	DB        ApprovalDBLayer
	Events    EventDBLayer
	Cache     ViewCache
	Publisher EventPublisher
	Clock     utils.Clock
	Logger    *logger.Logger
	Options   Options
}

// NewApprovalService wires the engine. Cache and publisher may be nil.
func NewApprovalService(db ApprovalDBLayer, events EventDBLayer, cache ViewCache, publisher EventPublisher,
	clock utils.Clock, log *logger.Logger, opts Options) *ApprovalService {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	if opts.PastEventsLimit <= 0 {
		opts.PastEventsLimit = aggregation.DefaultPastLimit
	}
	return &ApprovalService{
		DB:        db,
		Events:    events,
		Cache:     cache,
		Publisher: publisher,
		Clock:     clock,
		Logger:    log,
		Options:   opts,
	}
}

// Respond records one guardian decision on one approval. Before the deadline the
// last write wins, including over an earlier APPROVED or DECLINED.
func (s *ApprovalService) Respond(ctx context.Context, approvalID, guardianID, decision string, remarks *string) (err error) {
	if err := requireID("approval id", approvalID); err != nil {
		return err
	}
	if err := requireID("guardian id", guardianID); err != nil {
		return err
	}
	status, err := parseDecision(decision)
	if err != nil {
		return err
	}
	if err := validateRemarks(remarks); err != nil {
		return err
	}

	var result *models.ApprovalRespondedMessage
	defer func() {
		if err == nil {
			s.afterWrite(ctx, guardianID, result)
		}
	}()

	approval, err := s.DB.GetApprovalForGuardian(ctx, approvalID, guardianID)
	if errors.Is(err, approvaldb.ErrApprovalNotFound) {
		s.Logger.Warn("APPROVAL", fmt.Sprintf("Respond: approval %s not found for guardian %s", approvalID, guardianID))
		return ErrNotFound
	}
	if err != nil {
		s.Logger.Error("DATABASE", fmt.Sprintf("Respond: failed to load approval %s: %v", approvalID, err))
		return fmt.Errorf("load approval %s: %w", approvalID, err)
	}

	event, err := s.loadEvent(ctx, approval.EventID)
	if err != nil {
		return err
	}

	now := s.Clock.Now()
	if aggregation.IsExpired(event.Deadline, now) {
		s.Logger.LogApproval("RESPOND", approvalID, fmt.Sprintf("rejected, deadline %s passed", event.Deadline.Format(time.RFC3339)))
		return ErrDeadlinePassed
	}

	ok, err := s.DB.UpdateDecision(ctx, approval.ID, guardianID, approval.Version, status, remarks, now)
	if err != nil {
		s.Logger.Error("DATABASE", fmt.Sprintf("Respond: failed to update approval %s: %v", approvalID, err))
		return fmt.Errorf("update approval %s: %w", approvalID, err)
	}
	if !ok {
		s.Logger.Warn("APPROVAL", fmt.Sprintf("Respond: approval %s changed concurrently (version %d)", approvalID, approval.Version))
		return ErrConflict
	}

	s.Logger.LogApproval("RESPOND", approvalID, string(status))
	result = &models.ApprovalRespondedMessage{
		EventID:     approval.EventID,
		GuardianID:  guardianID,
		ApprovalIDs: []string{approval.ID},
		Status:      status,
		Count:       1,
		RespondedAt: now,
	}
	return nil
}

// RespondAll applies one decision to every approval the guardian still has PENDING
// for the event. Already decided approvals are left alone. Zero is a valid count.
func (s *ApprovalService) RespondAll(ctx context.Context, eventID, guardianID, decision string, remarks *string) (count int, err error) {
	if err := requireID("event id", eventID); err != nil {
		return 0, err
	}
	if err := requireID("guardian id", guardianID); err != nil {
		return 0, err
	}
	status, err := parseDecision(decision)
	if err != nil {
		return 0, err
	}
	if err := validateRemarks(remarks); err != nil {
		return 0, err
	}

	// a storage fault part way through still leaves rows changed, so the view is dropped too
	var result *models.ApprovalRespondedMessage
	defer func() {
		if err == nil || count > 0 {
			s.afterWrite(ctx, guardianID, result)
		}
	}()

	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}

	now := s.Clock.Now()
	if aggregation.IsExpired(event.Deadline, now) {
		s.Logger.LogApproval("RESPOND_ALL", eventID, fmt.Sprintf("rejected for guardian %s, deadline passed", guardianID))
		return 0, ErrDeadlinePassed
	}

	pending, err := s.DB.ListPendingForEventGuardian(ctx, eventID, guardianID)
	if err != nil {
		s.Logger.Error("DATABASE", fmt.Sprintf("RespondAll: failed to list pending approvals for event %s: %v", eventID, err))
		return 0, fmt.Errorf("list pending approvals for event %s: %w", eventID, err)
	}

	var updated []string
	for _, approval := range pending {
		ok, err := s.DB.TransitionIfPending(ctx, approval.ID, guardianID, status, remarks, now)
		if err != nil {
			s.Logger.Error("DATABASE", fmt.Sprintf("RespondAll: failed to update approval %s after %d updates: %v", approval.ID, len(updated), err))
			return len(updated), fmt.Errorf("update approval %s: %w", approval.ID, err)
		}
		if !ok {
			s.Logger.Debug("APPROVAL", fmt.Sprintf("RespondAll: approval %s resolved concurrently, skipped", approval.ID))
			continue
		}
		updated = append(updated, approval.ID)
	}

	s.Logger.LogApproval("RESPOND_ALL", eventID, fmt.Sprintf("guardian %s: %d approvals set to %s", guardianID, len(updated), status))
	if len(updated) > 0 {
		result = &models.ApprovalRespondedMessage{
			EventID:     eventID,
			GuardianID:  guardianID,
			ApprovalIDs: updated,
			Status:      status,
			Count:       len(updated),
			RespondedAt: now,
			Bulk:        true,
		}
	}
	return len(updated), nil
}

// GetGuardianEventsView returns the bucketed view, from cache when warm
func (s *ApprovalService) GetGuardianEventsView(ctx context.Context, guardianID string) (*models.GuardianEventsView, error) {
	if err := requireID("guardian id", guardianID); err != nil {
		return nil, err
	}

	var generation int64
	storable := false
	if s.Cache != nil {
		view, err := s.Cache.Get(ctx, guardianID)
		if err != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("guardian view lookup failed for %s, recomputing: %v", guardianID, err))
		} else if view != nil {
			s.Logger.LogCache("HIT", guardianID, "guardian view served from cache")
			return view, nil
		}

		// read before listing so a write that lands mid-read blocks the store
		generation, err = s.Cache.Generation(ctx, guardianID)
		if err != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("guardian generation lookup failed for %s, view will not be cached: %v", guardianID, err))
		} else {
			storable = true
		}
	}

	approvals, err := s.DB.ListByGuardian(ctx, guardianID)
	if err != nil {
		s.Logger.Error("DATABASE", fmt.Sprintf("failed to list approvals for guardian %s: %v", guardianID, err))
		return nil, fmt.Errorf("list approvals for guardian %s: %w", guardianID, err)
	}

	view := aggregation.Categorize(approvals, s.Clock.Now(), s.Options.PastEventsLimit)

	if storable {
		stored, err := s.Cache.Set(ctx, guardianID, generation, &view)
		switch {
		case err != nil:
			s.Logger.Warn("CACHE", fmt.Sprintf("failed to cache guardian view for %s: %v", guardianID, err))
		case !stored:
			s.Logger.LogCache("SKIP", guardianID, "guardian changed during read, view not cached")
		default:
			s.Logger.LogCache("STORE", guardianID, "guardian view cached")
		}
	}
	return &view, nil
}

// GetApproval returns one approval owned by the guardian
func (s *ApprovalService) GetApproval(ctx context.Context, approvalID, guardianID string) (*models.Approval, error) {
	if err := requireID("approval id", approvalID); err != nil {
		return nil, err
	}
	if err := requireID("guardian id", guardianID); err != nil {
		return nil, err
	}
	approval, err := s.DB.GetApprovalForGuardian(ctx, approvalID, guardianID)
	if errors.Is(err, approvaldb.ErrApprovalNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.Logger.Error("DATABASE", fmt.Sprintf("failed to load approval %s: %v", approvalID, err))
		return nil, fmt.Errorf("load approval %s: %w", approvalID, err)
	}
	return approval, nil
}

func (s *ApprovalService) loadEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.Events.GetEvent(ctx, eventID)
	if errors.Is(err, eventdb.ErrEventNotFound) {
		s.Logger.Warn("APPROVAL", fmt.Sprintf("event %s not found", eventID))
		return nil, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
	}
	if err != nil {
		s.Logger.Error("DATABASE", fmt.Sprintf("failed to load event %s: %v", eventID, err))
		return nil, fmt.Errorf("load event %s: %w", eventID, err)
	}
	return event, nil
}

// afterWrite runs on every successful write: the guardian's cached view is dropped
// before the caller sees success, then the decision is announced.
func (s *ApprovalService) afterWrite(ctx context.Context, guardianID string, msg *models.ApprovalRespondedMessage) {
	s.invalidate(ctx, guardianID)
	if msg != nil {
		s.publish(guardianID, msg)
	}
}

func (s *ApprovalService) invalidate(ctx context.Context, guardianID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, guardianID); err != nil {
		s.Logger.Error("CACHE", fmt.Sprintf("failed to invalidate guardian view for %s: %v", guardianID, err))
		return
	}
	s.Logger.LogCache("INVALIDATE", guardianID, "guardian view dropped")
}

func (s *ApprovalService) publish(guardianID string, msg *models.ApprovalRespondedMessage) {
	if s.Publisher == nil || s.Options.RespondedTopic == "" {
		return
	}
	if err := s.Publisher.PublishJSON(s.Options.RespondedTopic, guardianID, msg); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("failed to publish decision for event %s: %v", msg.EventID, err))
		return
	}
	s.Logger.LogKafka("PUBLISH", s.Options.RespondedTopic, fmt.Sprintf("%d approvals %s", msg.Count, msg.Status))
}
