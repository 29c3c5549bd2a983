package models

import (
	"time"

	"github.com/uptrace/bun"
)

type EventType string

const (
	EventTypeTrip        EventType = "TRIP"
	EventTypeWorkshop    EventType = "WORKSHOP"
	EventTypeCompetition EventType = "COMPETITION"
	EventTypeSports      EventType = "SPORTS"
	EventTypeCultural    EventType = "CULTURAL"
	EventTypeMeeting     EventType = "MEETING"
	EventTypeOther       EventType = "OTHER"
)

// Valid reports whether t is one of the known event types
func (t EventType) Valid() bool {
	switch t {
	case EventTypeTrip, EventTypeWorkshop, EventTypeCompetition, EventTypeSports,
		EventTypeCultural, EventTypeMeeting, EventTypeOther:
		return true
	}
	return false
}

// Event is owned by the administration module. The approval engine only reads it.
// Deadline may fall after StartDate; that is accepted as-is.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID               string     `bun:"id,pk" json:"id"`
	Title            string     `bun:"title,notnull" json:"title"`
	Description      *string    `bun:"description" json:"description,omitempty"`
	Type             EventType  `bun:"type,notnull" json:"type"`
	Location         *string    `bun:"location" json:"location,omitempty"`
	StartDate        time.Time  `bun:"start_date,notnull" json:"start_date"`
	EndDate          *time.Time `bun:"end_date" json:"end_date,omitempty"`
	FeeCents         *int64     `bun:"fee_cents" json:"fee_cents,omitempty"` // minor currency units
	Capacity         *int       `bun:"capacity" json:"capacity,omitempty"`
	Deadline         time.Time  `bun:"deadline,notnull" json:"deadline"`
	RequiresApproval bool       `bun:"requires_approval,notnull" json:"requires_approval"`
	CreatedAt        time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
