// Package testhelpers starts a throwaway PostgreSQL for integration tests
package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ajitpratap0/riskwise/internal/db"
)

// PostgresContainer holds the testcontainer instance and connection details
type PostgresContainer struct {
	Container     *postgres.PostgresContainer
	ConnectionStr string
	DB            *db.DB
	t             *testing.T
}

// SetupTestDatabase starts PostgreSQL, applies the embedded migrations and
// opens a pool. The test is skipped in -short mode or when no container
// runtime is available.
func SetupTestDatabase(t *testing.T) *PostgresContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping container test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("riskwise_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("Skipping container test: failed to start PostgreSQL: %v", err)
	}

	tc := &PostgresContainer{Container: container, t: t}
	t.Cleanup(tc.Cleanup)

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}
	tc.ConnectionStr = connStr

	sqlDB, err := db.OpenSQL(connStr)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer sqlDB.Close()

	if err := db.NewMigrator(sqlDB).Migrate(ctx); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	database, err := db.New(ctx, connStr, 5)
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	tc.DB = database

	return tc
}

// Cleanup closes the pool and terminates the container
func (tc *PostgresContainer) Cleanup() {
	if tc.DB != nil {
		tc.DB.Close()
	}
	if tc.Container != nil {
		if err := tc.Container.Terminate(context.Background()); err != nil {
			tc.t.Logf("Failed to terminate container: %v", err)
		}
	}
}
