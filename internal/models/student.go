package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Student and GuardianStudent belong to the profile module; read-only here.
type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID        string    `bun:"id,pk" json:"id"`
	FullName  string    `bun:"full_name,notnull" json:"full_name"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type GuardianStudent struct {
	bun.BaseModel `bun:"table:guardian_students,alias:gs"`

	GuardianID string `bun:"guardian_id,pk" json:"guardian_id"`
	StudentID  string `bun:"student_id,pk" json:"student_id"`
}
