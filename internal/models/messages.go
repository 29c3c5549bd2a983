package models

import "time"

// EventPublishedMessage arrives when the administration module publishes an event
type EventPublishedMessage struct {
	EventID    string   `json:"event_id"`
	StudentIDs []string `json:"student_ids"`
}

type EventDeletedMessage struct {
	EventID string `json:"event_id"`
}

// ApprovalRespondedMessage is emitted after every successful guardian decision
type ApprovalRespondedMessage struct {
	EventID     string         `json:"event_id"`
	GuardianID  string         `json:"guardian_id"`
	ApprovalIDs []string       `json:"approval_ids"`
	Status      ApprovalStatus `json:"status"`
	Count       int            `json:"count"`
	RespondedAt time.Time      `json:"responded_at"`
	Bulk        bool           `json:"bulk"`
}
