package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/safeguardai/console/internal/config"
	"github.com/safeguardai/console/internal/database"
	"github.com/safeguardai/console/internal/directory"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDatabase wraps a real PostgreSQL database for testing.
type TestDatabase struct {
	*database.Database
	container testcontainers.Container
}

// NewTestDatabase starts a PostgreSQL container, connects, and applies
// the embedded migrations.
func NewTestDatabase(t *testing.T) *TestDatabase {
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
				wait.ForListeningPort("5432/tcp").
					WithStartupTimeout(30*time.Second),
			),
		),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	host, err := postgresContainer.Host(ctx)
	require.NoError(t, err, "Failed to get container host")
	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err, "Failed to get mapped port")

	cfg := config.DatabaseConfig{
		Host:     host,
		Port:     port.Port(),
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
		SSLMode:  "disable",
	}

	db, err := database.New(&cfg)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, db.Migrate(), "Failed to run migrations")

	testDB := &TestDatabase{
		Database:  db,
		container: postgresContainer,
	}

	t.Cleanup(func() {
		db.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	return testDB
}

// Truncate clears the user directory between tests.
func (tdb *TestDatabase) Truncate(t *testing.T) {
	t.Helper()
	_, err := tdb.Pool().Exec(context.Background(), "TRUNCATE TABLE users CASCADE")
	require.NoError(t, err, "Failed to truncate users table")
}

// SeedUser inserts a directory record directly.
func (tdb *TestDatabase) SeedUser(t *testing.T, rec *directory.UserRecord) {
	t.Helper()
	if rec.Status == "" {
		rec.Status = directory.StatusActive
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	require.NoError(t, tdb.Users().Create(context.Background(), rec), "Failed to seed user %s", rec.UID)
}
