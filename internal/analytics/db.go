package analytics

import (
	"context"

	"ms-approvals/internal/models"

	"github.com/uptrace/bun"
)

// DB handles analytics database operations
type DB struct {
	bun *bun.DB
}

// NewDB creates a new analytics DB handler
func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

// StatusCount is one row of the per-status tally
type StatusCount struct {
	Status models.ApprovalStatus `bun:"status"`
	Count  int                   `bun:"count"`
}

// CountByStatus tallies an event's approvals across all guardians
func (db *DB) CountByStatus(ctx context.Context, eventID string) ([]StatusCount, error) {
	var counts []StatusCount
	err := db.bun.NewSelect().
		Model((*models.Approval)(nil)).
		Column("a.status").
		ColumnExpr("COUNT(*) AS count").
		Where("a.event_id = ?", eventID).
		Group("a.status").
		Order("a.status").
		Scan(ctx, &counts)

	return counts, err
}
