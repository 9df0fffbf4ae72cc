package database

import (
	"path/filepath"
	"testing"
)

func TestMigrateSQLite(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "gym.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := Migrate(db, DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// A second run is a no-op.
	if err := Migrate(db, DriverSQLite); err != nil {
		t.Fatalf("migrate again: %v", err)
	}

	for _, table := range []string{"users", "membership_plans", "payments", "active_memberships", "daily_revenue", "classes", "class_sessions", "attendances", "refresh_tokens"} {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n); err != nil {
			t.Fatalf("lookup %s: %v", table, err)
		}
		if n != 1 {
			t.Fatalf("table %s missing", table)
		}
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if fk != 1 {
		t.Fatal("foreign keys are off")
	}
}

func TestMigrateUnknownDriver(t *testing.T) {
	if err := Migrate(nil, "oracle"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
