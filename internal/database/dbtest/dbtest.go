// Package dbtest provides a throwaway migrated Postgres for store tests.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/alecgard/pitchside/internal/database"
)

// IntegrationEnv gates tests that need a Postgres container.
const IntegrationEnv = "PITCHSIDE_INTEGRATION"

// NewPool starts a disposable Postgres container, applies the
// migrations and returns a pool. The test is skipped unless
// PITCHSIDE_INTEGRATION is set.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv(IntegrationEnv) == "" {
		t.Skip("skipping integration test: " + IntegrationEnv + " not set")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("pitchside_test"),
		postgres.WithUsername("pitchside"),
		postgres.WithPassword("pitchside"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminating postgres container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}
	if err := database.Migrate(url); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}

	pool, err := database.Connect(ctx, url)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}
