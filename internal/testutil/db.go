// Package testutil provides a migrated SQLite database for package tests.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/iliyamo/gym-membership/internal/database"
)

// NewDB opens a fresh SQLite database in t.TempDir() and applies all
// migrations.  The database is closed when the test ends.
func NewDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "gym.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db, database.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
