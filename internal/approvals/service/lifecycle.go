package service

import (
	"context"
	"fmt"
	"sort"

	"ms-approvals/internal/models"
	"ms-approvals/internal/utils"
)

// PublishEventApprovals creates a PENDING approval for every (student, guardian)
// pair of the invited students. Tuples that already exist are kept as they are.
func (s *ApprovalService) PublishEventApprovals(ctx context.Context, eventID string, studentIDs []string) (int, error) {
	if err := requireID("event id", eventID); err != nil {
		return 0, err
	}

	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	if !event.RequiresApproval {
		s.Logger.LogApproval("PUBLISH", eventID, "event does not require approval, nothing to create")
		return 0, nil
	}

	links, err := s.Events.GuardiansOfStudents(ctx, dedupe(studentIDs))
	if err != nil {
		s.Logger.Error("DATABASE", fmt.Sprintf("failed to resolve guardians for event %s: %v", eventID, err))
		return 0, fmt.Errorf("resolve guardians for event %s: %w", eventID, err)
	}

	now := s.Clock.Now()
	approvals := make([]models.Approval, 0, len(links))
	var guardians []string
	for _, link := range links {
		approvals = append(approvals, models.Approval{
			ID:         utils.GenerateUUID(),
			EventID:    eventID,
			StudentID:  link.StudentID,
			GuardianID: link.GuardianID,
			Status:     models.ApprovalStatusPending,
			Version:    1,
			CreatedAt:  now,
		})
		guardians = append(guardians, link.GuardianID)
	}

	created, err := s.DB.CreateApprovals(ctx, approvals)
	if err != nil {
		s.Logger.Error("DATABASE", fmt.Sprintf("failed to create approvals for event %s: %v", eventID, err))
		return 0, fmt.Errorf("create approvals for event %s: %w", eventID, err)
	}

	for _, guardianID := range dedupe(guardians) {
		s.invalidate(ctx, guardianID)
	}
	s.Logger.LogApproval("PUBLISH", eventID, fmt.Sprintf("%d approvals created for %d students", created, len(studentIDs)))
	return created, nil
}

// RemoveEventApprovals deletes an event's approvals after the event itself was deleted
func (s *ApprovalService) RemoveEventApprovals(ctx context.Context, eventID string) (int, error) {
	if err := requireID("event id", eventID); err != nil {
		return 0, err
	}

	guardians, err := s.DB.GuardiansForEvent(ctx, eventID)
	if err != nil {
		s.Logger.Error("DATABASE", fmt.Sprintf("failed to list guardians for event %s: %v", eventID, err))
		return 0, fmt.Errorf("list guardians for event %s: %w", eventID, err)
	}

	removed, err := s.DB.DeleteByEvent(ctx, eventID)
	if err != nil {
		s.Logger.Error("DATABASE", fmt.Sprintf("failed to delete approvals for event %s: %v", eventID, err))
		return 0, fmt.Errorf("delete approvals for event %s: %w", eventID, err)
	}

	for _, guardianID := range guardians {
		s.invalidate(ctx, guardianID)
	}
	s.Logger.LogApproval("REMOVE", eventID, fmt.Sprintf("%d approvals removed", removed))
	return removed, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
