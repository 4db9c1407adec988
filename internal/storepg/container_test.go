//go:build integration

package storepg_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ruek-io/ruek/internal/storepg"
)

// openTestPool connects against RUEK_TEST_DATABASE_URL if set (the
// externally provisioned convention the teacher's suites use,
// wisp_integration_test.go's well-known-address daemon), otherwise spins
// up an ephemeral Postgres via testcontainers-go, the teacher's own
// pattern for standing up a throwaway dependency (internal/storage/dolt's
// testcontainers/modules/dolt usage, generalized here to Postgres since
// storepg speaks Postgres rather than dolt's MySQL wire protocol).
func openTestPool(t *testing.T) *storepg.Pool {
	t.Helper()

	if dsn := os.Getenv("RUEK_TEST_DATABASE_URL"); dsn != "" {
		pool, err := storepg.Open(context.Background(), dsn)
		require.NoError(t, err)
		t.Cleanup(pool.Close)
		return pool
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("ruek_test"),
		postgres.WithUsername("ruek"),
		postgres.WithPassword("ruek"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := storepg.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Exec(ctx, storepg.SchemaDDL))
	return pool
}
