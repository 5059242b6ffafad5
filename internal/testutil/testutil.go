// Package testutil opens throwaway SQLite stores seeded with a reference
// catalog for package tests.
package testutil

import (
	"context"
	_ "embed"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/catalog"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/database"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/repository"
)

//go:embed testdata/catalog.yaml
var fixture []byte

// NewDB opens a migrated SQLite database in the test's temp dir
func NewDB(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "perimeter.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

// NewSeededDB opens a migrated database loaded with the standard fixture
func NewSeededDB(t testing.TB) *database.DB {
	t.Helper()
	db := NewDB(t)
	Seed(t, db, Catalog(t))
	return db
}

// Catalog parses the standard fixture
func Catalog(t testing.TB) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse(fixture)
	require.NoError(t, err)
	return c
}

// Seed imports a catalog
func Seed(t testing.TB, db *database.DB, c *catalog.Catalog) {
	t.Helper()
	require.NoError(t, repository.NewCatalogRepository(db).Import(context.Background(), c))
}
