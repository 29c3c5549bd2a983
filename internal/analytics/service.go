package analytics

import (
	"context"
	"errors"
	"fmt"

	eventdb "ms-approvals/internal/events/db"
	"ms-approvals/internal/logger"
	"ms-approvals/internal/models"
)

// ErrEventNotFound is returned when the summarised event does not exist
var ErrEventNotFound = errors.New("event not found")

type EventLookup interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
}

type StatusCounter interface {
	CountByStatus(ctx context.Context, eventID string) ([]StatusCount, error)
}

// Service handles analytics operations
type Service struct {
	db     StatusCounter
	events EventLookup
	logger *logger.Logger
}

// NewService creates a new analytics service
func NewService(db StatusCounter, events EventLookup, log *logger.Logger) *Service {
	return &Service{db: db, events: events, logger: log}
}

// GetApprovalSummary returns the approved, pending and declined totals of one event
func (s *Service) GetApprovalSummary(ctx context.Context, eventID string) (*models.ApprovalSummary, error) {
	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		if errors.Is(err, eventdb.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		s.logger.Error("ANALYTICS", fmt.Sprintf("failed to load event %s: %v", eventID, err))
		return nil, fmt.Errorf("load event %s: %w", eventID, err)
	}

	counts, err := s.db.CountByStatus(ctx, eventID)
	if err != nil {
		s.logger.Error("ANALYTICS", fmt.Sprintf("failed to count approvals for event %s: %v", eventID, err))
		return nil, fmt.Errorf("count approvals for event %s: %w", eventID, err)
	}

	summary := &models.ApprovalSummary{EventID: eventID}
	for _, c := range counts {
		switch c.Status {
		case models.ApprovalStatusApproved:
			summary.ApprovedCount += c.Count
		case models.ApprovalStatusDeclined:
			summary.DeclinedCount += c.Count
		default:
			summary.PendingCount += c.Count
		}
		summary.Total += c.Count
	}
	if summary.Total > 0 {
		summary.RespondedRatio = float64(summary.ApprovedCount+summary.DeclinedCount) / float64(summary.Total)
	}

	s.logger.Debug("ANALYTICS", fmt.Sprintf("summary for event %s: %d/%d responded", eventID,
		summary.ApprovedCount+summary.DeclinedCount, summary.Total))
	return summary, nil
}
