//go:build integration

package documents

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"expiry-backend/internal/shared/storage/db"
)

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("expiry"),
		tcpostgres.WithUsername("expiry"),
		tcpostgres.WithPassword("expiry"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	conn, err := db.Connect(ctx, dsn, db.DefaultMigrateOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.RunMigrations(ctx, conn))
	return conn
}

func seedUser(t *testing.T, conn *sql.DB, id, mobile string) {
	t.Helper()
	_, err := conn.Exec(`INSERT INTO users (id, mobile_number) VALUES ($1, $2)`, id, mobile)
	require.NoError(t, err)
}

func TestPGRepoAgainstPostgres(t *testing.T) {
	conn := startPostgres(t)
	seedUser(t, conn, "u1", "+971500000001")
	seedUser(t, conn, "u2", "+971500000002")

	repo := &PGRepo{DB: conn}
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	issued := day(2020, 2, 29)
	late := sampleDoc("d-late", "u1", "Late", day(2031, 1, 1))
	late.IssueDate = &issued
	late.Notes = "drawer"
	late.CreatedAt, late.UpdatedAt = now, now
	early := sampleDoc("d-early", "u1", "Early", day(2025, 3, 1))
	early.CreatedAt, early.UpdatedAt = now, now
	require.NoError(t, repo.Create(ctx, late))
	require.NoError(t, repo.Create(ctx, early))

	docs, err := repo.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d-early", docs[0].ID)
	require.NotNil(t, docs[1].IssueDate)
	assert.Equal(t, issued, *docs[1].IssueDate)

	_, err = repo.GetByID(ctx, "u2", "d-late")
	assert.ErrorIs(t, err, ErrNotFound)

	cleared := ""
	updated, err := repo.Update(ctx, "u1", "d-late", Patch{Notes: &cleared}, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, updated.Notes)
	assert.Equal(t, "Late", updated.DocumentName)

	assert.ErrorIs(t, repo.Delete(ctx, "u2", "d-late"), ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "u1", "d-late"))
	docs, err = repo.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}
