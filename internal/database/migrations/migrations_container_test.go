package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	approvaldb "ms-approvals/internal/approvals/db"
	"ms-approvals/internal/logger"
	"ms-approvals/internal/models"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// Runs the real schema against PostgreSQL in Docker. Opt in with POSTGRES_IT=1.
func TestMigrationsAgainstPostgres(t *testing.T) {
	if testing.Short() || os.Getenv("POSTGRES_IT") != "1" {
		t.Skip("set POSTGRES_IT=1 to run container tests")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "approvals",
				"POSTGRES_PASSWORD": "approvals",
				"POSTGRES_DB":       "approvals",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://approvals:approvals@%s:%s/approvals?sslmode=disable", host, port.Port())
	sqldb, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	runner := NewRunner(bunDB, MigrateOptions{MigrationsDir: "../../../migrations"}, logger.New(io.Discard))
	t.Cleanup(func() { _ = runner.Close() })
	require.NoError(t, runner.RunMigrations())

	version, err := runner.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	now := time.Now().UTC().Truncate(time.Millisecond)
	event := models.Event{ID: "evt-1", Title: "Museum", Type: models.EventTypeTrip,
		StartDate: now.Add(48 * time.Hour), Deadline: now.Add(24 * time.Hour), RequiresApproval: true, CreatedAt: now}
	student := models.Student{ID: "s-1", FullName: "Ada", CreatedAt: now}
	_, err = bunDB.NewInsert().Model(&event).Exec(ctx)
	require.NoError(t, err)
	_, err = bunDB.NewInsert().Model(&student).Exec(ctx)
	require.NoError(t, err)

	store := &approvaldb.DB{Bun: bunDB}
	approval := models.Approval{ID: "a-1", EventID: "evt-1", StudentID: "s-1", GuardianID: "g-1",
		Status: models.ApprovalStatusPending, Version: 1, CreatedAt: now}

	created, err := store.CreateApprovals(ctx, []models.Approval{approval})
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	duplicate := approval
	duplicate.ID = "a-2"
	created, err = store.CreateApprovals(ctx, []models.Approval{duplicate})
	require.NoError(t, err)
	assert.Zero(t, created)

	ok, err := store.UpdateDecision(ctx, "a-1", "g-1", 1, models.ApprovalStatusApproved, nil, now)
	require.NoError(t, err)
	assert.True(t, ok)

	// responded_at must be set exactly when the status is not PENDING
	_, err = bunDB.NewUpdate().Model((*models.Approval)(nil)).
		Set("responded_at = NULL").
		Where("id = ?", "a-1").
		Exec(ctx)
	assert.Error(t, err)

	// deleting the event cascades to its approvals
	_, err = bunDB.NewDelete().Model((*models.Event)(nil)).Where("id = ?", "evt-1").Exec(ctx)
	require.NoError(t, err)
	count, err := bunDB.NewSelect().Model((*models.Approval)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
