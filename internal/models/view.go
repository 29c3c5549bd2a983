package models

import "time"

// ApprovalEntry is a single approval joined with its student display name
type ApprovalEntry struct {
	ApprovalID  string         `json:"approval_id"`
	StudentID   string         `json:"student_id"`
	StudentName string         `json:"student_name"`
	Status      ApprovalStatus `json:"status"`
	Remarks     *string        `json:"remarks,omitempty"`
	RespondedAt *time.Time     `json:"responded_at,omitempty"`
}

// EventApprovals groups one guardian's approvals for a single event
type EventApprovals struct {
	Event         Event           `json:"event"`
	Approvals     []ApprovalEntry `json:"approvals"`
	ApprovedCount int             `json:"approved_count"`
	PendingCount  int             `json:"pending_count"`
	DeclinedCount int             `json:"declined_count"`
	IsExpired     bool            `json:"is_expired"`
}

type GuardianStats struct {
	TotalPending  int `json:"total_pending"`
	TotalApproved int `json:"total_approved"`
	TotalDeclined int `json:"total_declined"`
}

// GuardianEventsView is the read model served to guardians
type GuardianEventsView struct {
	PendingEvents  []EventApprovals `json:"pending_events"`
	UpcomingEvents []EventApprovals `json:"upcoming_events"`
	PastEvents     []EventApprovals `json:"past_events"`
	Stats          GuardianStats    `json:"stats"`
}

// ApprovalSummary is the administrator-facing tally for one event
type ApprovalSummary struct {
	EventID        string  `json:"event_id"`
	Total          int     `json:"total"`
	ApprovedCount  int     `json:"approved_count"`
	PendingCount   int     `json:"pending_count"`
	DeclinedCount  int     `json:"declined_count"`
	RespondedRatio float64 `json:"responded_ratio"`
}
