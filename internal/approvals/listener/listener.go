package listener

import (
	"context"
	"encoding/json"
	"fmt"

	"ms-approvals/internal/logger"
	"ms-approvals/internal/models"

	"github.com/segmentio/kafka-go"
)

// Lifecycle is the part of the approval service driven by event lifecycle messages
type Lifecycle interface {
	PublishEventApprovals(ctx context.Context, eventID string, studentIDs []string) (int, error)
	RemoveEventApprovals(ctx context.Context, eventID string) (int, error)
}

type Listener struct {
	Service Lifecycle
	Logger  *logger.Logger
}

func NewListener(svc Lifecycle, log *logger.Logger) *Listener {
	return &Listener{Service: svc, Logger: log}
}

// HandleEventPublished creates the PENDING approvals for a newly published event
func (l *Listener) HandleEventPublished(ctx context.Context, msg kafka.Message) error {
	var payload models.EventPublishedMessage
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return fmt.Errorf("decode event published message: %w", err)
	}
	if payload.EventID == "" {
		return fmt.Errorf("event published message without event_id")
	}

	l.Logger.LogKafka("RECEIVE", msg.Topic, fmt.Sprintf("event %s published for %d students", payload.EventID, len(payload.StudentIDs)))
	created, err := l.Service.PublishEventApprovals(ctx, payload.EventID, payload.StudentIDs)
	if err != nil {
		return fmt.Errorf("publish approvals for event %s: %w", payload.EventID, err)
	}
	l.Logger.Info("APPROVAL", fmt.Sprintf("created %d approvals for event %s", created, payload.EventID))
	return nil
}

// HandleEventDeleted drops every approval of a deleted event
func (l *Listener) HandleEventDeleted(ctx context.Context, msg kafka.Message) error {
	var payload models.EventDeletedMessage
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return fmt.Errorf("decode event deleted message: %w", err)
	}
	if payload.EventID == "" {
		return fmt.Errorf("event deleted message without event_id")
	}

	l.Logger.LogKafka("RECEIVE", msg.Topic, fmt.Sprintf("event %s deleted", payload.EventID))
	removed, err := l.Service.RemoveEventApprovals(ctx, payload.EventID)
	if err != nil {
		return fmt.Errorf("remove approvals for event %s: %w", payload.EventID, err)
	}
	l.Logger.Info("APPROVAL", fmt.Sprintf("removed %d approvals for event %s", removed, payload.EventID))
	return nil
}
