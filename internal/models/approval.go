package models

import (
	"time"

	"github.com/uptrace/bun"
)

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusDeclined ApprovalStatus = "DECLINED"
)

// IsDecision reports whether s is a status a guardian may choose
func (s ApprovalStatus) IsDecision() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusDeclined
}

// Approval is the consent record for one (event, student, guardian) tuple.
// RespondedAt is nil exactly while Status is PENDING.
type Approval struct {
	bun.BaseModel `bun:"table:approvals,alias:a"`

	ID          string         `bun:"id,pk" json:"id"`
	EventID     string         `bun:"event_id,notnull,unique:approval_tuple" json:"event_id"`
	StudentID   string         `bun:"student_id,notnull,unique:approval_tuple" json:"student_id"`
	GuardianID  string         `bun:"guardian_id,notnull,unique:approval_tuple" json:"guardian_id"`
	Status      ApprovalStatus `bun:"status,notnull" json:"status"`
	Remarks     *string        `bun:"remarks" json:"remarks,omitempty"`
	RespondedAt *time.Time     `bun:"responded_at" json:"responded_at,omitempty"`
	Version     int64          `bun:"version,notnull,default:1" json:"version"`
	CreatedAt   time.Time      `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Event   *Event   `bun:"rel:belongs-to,join:event_id=id" json:"-"`
	Student *Student `bun:"rel:belongs-to,join:student_id=id" json:"-"`
}

// ApprovalRequest is the body accepted by both respond endpoints
type ApprovalRequest struct {
	Decision string  `json:"decision"`
	Remarks  *string `json:"remarks,omitempty"`
}

type BulkResponse struct {
	Count int `json:"count"`
}
