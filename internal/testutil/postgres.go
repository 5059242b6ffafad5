package testutil

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/database"
)

// PostgresURLEnv names the variable holding a Postgres URL for store tests
const PostgresURLEnv = "PERIMETER_TEST_POSTGRES_URL"

// NewPostgresDB opens a migrated Postgres database in a throwaway schema.
// The test is skipped when PERIMETER_TEST_POSTGRES_URL is unset.
func NewPostgresDB(t testing.TB) *database.DB {
	t.Helper()

	raw := os.Getenv(PostgresURLEnv)
	if raw == "" {
		t.Skipf("%s not set", PostgresURLEnv)
	}

	admin, err := database.Open(database.Config{Driver: database.DriverPostgres, URL: raw})
	require.NoError(t, err)
	t.Cleanup(func() { admin.Close() })

	schema := "perimeter_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	ctx := context.Background()
	_, err = admin.ExecContext(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.ExecContext(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
	})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()

	db, err := database.Open(database.Config{Driver: database.DriverPostgres, URL: u.String()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(ctx))
	return db
}
