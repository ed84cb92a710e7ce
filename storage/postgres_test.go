package storage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"pictobattle/domain"
	"pictobattle/migrations"
	"pictobattle/storage"
)

var archive *storage.PostgresArchive

func TestMain(m *testing.M) {
	if os.Getenv("SKIP_CONTAINERS") != "" {
		os.Exit(m.Run())
	}
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine3.22",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testusername"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		panic(err)
	}

	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	if err := migrations.Migrate(connString); err != nil {
		panic(err)
	}

	archive, err = storage.NewPostgresArchive(ctx, connString)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	archive.Close()
	postgresContainer.Terminate(ctx)
	os.Exit(code)
}

func TestPostgresArchive(t *testing.T) {
	if archive == nil {
		t.Skip("containers disabled")
	}
	ctx := context.Background()

	first := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
	second := time.Now().Truncate(time.Millisecond)

	t.Run("RecordGame", func(t *testing.T) {
		err := archive.RecordGame(ctx, "ABC123", []domain.ScoreEntry{
			{Name: "alice", Score: 300},
			{Name: "bob", Score: 100},
		}, first)
		require.NoError(t, err)

		err = archive.RecordGame(ctx, "ABC123", []domain.ScoreEntry{
			{Name: "bob", Score: 450},
			{Name: "alice", Score: 200},
			{Name: "carol", Score: 0},
		}, second)
		require.NoError(t, err)
	})

	t.Run("GameResults returns the latest game", func(t *testing.T) {
		results, err := archive.GameResults(ctx, "ABC123")
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.Equal(t, "bob", results[0].Name)
		assert.Equal(t, 1, results[0].Rank)
		assert.Equal(t, 450, results[0].Score)
		assert.Equal(t, "carol", results[2].Name)
		assert.Equal(t, second.UnixMilli(), results[0].EndedAt)
	})

	t.Run("GameResults unknown room", func(t *testing.T) {
		results, err := archive.GameResults(ctx, "NOPE00")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("RecordGame empty ranking", func(t *testing.T) {
		assert.NoError(t, archive.RecordGame(ctx, "EMPTY0", nil, second))
	})
}
