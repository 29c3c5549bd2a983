package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ms-approvals/internal/models"

	"github.com/uptrace/bun"
)

// ErrApprovalNotFound covers both a missing row and a row owned by another guardian
var ErrApprovalNotFound = errors.New("approval not found")

type DB struct {
	Bun *bun.DB
}

// ---------------- READS ----------------

// GetApprovalForGuardian → fetch one approval, scoped to its owning guardian
func (d *DB) GetApprovalForGuardian(ctx context.Context, id, guardianID string) (*models.Approval, error) {
	var approval models.Approval
	err := d.Bun.NewSelect().
		Model(&approval).
		Where("a.id = ?", id).
		Where("a.guardian_id = ?", guardianID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrApprovalNotFound
	}
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

// ListByGuardian → every approval a guardian holds, joined with event and student
func (d *DB) ListByGuardian(ctx context.Context, guardianID string) ([]models.Approval, error) {
	var approvals []models.Approval
	err := d.Bun.NewSelect().
		Model(&approvals).
		Relation("Event").
		Relation("Student").
		Where("a.guardian_id = ?", guardianID).
		Order("a.event_id", "a.student_id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return approvals, nil
}

// ListPendingForEventGuardian → the guardian's still-pending approvals for one event
func (d *DB) ListPendingForEventGuardian(ctx context.Context, eventID, guardianID string) ([]models.Approval, error) {
	var approvals []models.Approval
	err := d.Bun.NewSelect().
		Model(&approvals).
		Where("a.event_id = ?", eventID).
		Where("a.guardian_id = ?", guardianID).
		Where("a.status = ?", models.ApprovalStatusPending).
		Order("a.student_id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return approvals, nil
}

// GuardiansForEvent → distinct guardian ids holding approvals for an event
func (d *DB) GuardiansForEvent(ctx context.Context, eventID string) ([]string, error) {
	var guardianIDs []string
	err := d.Bun.NewSelect().
		Model((*models.Approval)(nil)).
		ColumnExpr("DISTINCT a.guardian_id").
		Where("a.event_id = ?", eventID).
		Order("a.guardian_id").
		Scan(ctx, &guardianIDs)
	if err != nil {
		return nil, err
	}
	return guardianIDs, nil
}

// ---------------- WRITES ----------------

// UpdateDecision writes a decision only if the row still carries expectedVersion.
// It reports false when another request changed the row first.
func (d *DB) UpdateDecision(ctx context.Context, id, guardianID string, expectedVersion int64,
	status models.ApprovalStatus, remarks *string, respondedAt time.Time) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Approval)(nil)).
		Set("status = ?", status).
		Set("remarks = ?", remarks).
		Set("responded_at = ?", respondedAt).
		Set("version = version + 1").
		Where("id = ?", id).
		Where("guardian_id = ?", guardianID).
		Where("version = ?", expectedVersion).
		Exec(ctx)
	return affectedOne(res, err)
}

// TransitionIfPending writes a decision only if the row is still PENDING
func (d *DB) TransitionIfPending(ctx context.Context, id, guardianID string,
	status models.ApprovalStatus, remarks *string, respondedAt time.Time) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Approval)(nil)).
		Set("status = ?", status).
		Set("remarks = ?", remarks).
		Set("responded_at = ?", respondedAt).
		Set("version = version + 1").
		Where("id = ?", id).
		Where("guardian_id = ?", guardianID).
		Where("status = ?", models.ApprovalStatusPending).
		Exec(ctx)
	return affectedOne(res, err)
}

// CreateApprovals inserts new tuples and skips any (event, student, guardian) that already exists
func (d *DB) CreateApprovals(ctx context.Context, approvals []models.Approval) (int, error) {
	if len(approvals) == 0 {
		return 0, nil
	}
	res, err := d.Bun.NewInsert().
		Model(&approvals).
		On("CONFLICT (event_id, student_id, guardian_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// DeleteByEvent removes every approval of an event
func (d *DB) DeleteByEvent(ctx context.Context, eventID string) (int, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Approval)(nil)).
		Where("event_id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func affectedOne(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
