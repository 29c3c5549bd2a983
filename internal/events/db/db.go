package db

import (
	"context"
	"database/sql"
	"errors"

	"ms-approvals/internal/models"

	"github.com/uptrace/bun"
)

// ErrEventNotFound is returned when no event has the requested id
var ErrEventNotFound = errors.New("event not found")

// DB is a read-only view of the events table owned by the administration module
type DB struct {
	Bun *bun.DB
}

// GetEvent → fetch one event by id
func (d *DB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("e.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GuardiansOfStudents resolves guardian ids for each student through guardian_students
func (d *DB) GuardiansOfStudents(ctx context.Context, studentIDs []string) ([]models.GuardianStudent, error) {
	var links []models.GuardianStudent
	if len(studentIDs) == 0 {
		return links, nil
	}
	err := d.Bun.NewSelect().
		Model(&links).
		Where("gs.student_id IN (?)", bun.In(studentIDs)).
		Order("gs.student_id", "gs.guardian_id").
		Scan(ctx)
	return links, err
}
