package turso_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/emiliopalmerini/poisonbench/internal/adapters/turso"
)

// testDB opens a fresh file-backed tracking store with all migrations applied.
func testDB(t *testing.T) *turso.DB {
	t.Helper()
	return openStore(t, filepath.Join(t.TempDir(), "tracking.db"))
}

// openStore opens the tracking store at path. Calling it twice with the same
// path gives two independent connections to one database.
func openStore(t *testing.T, path string) *turso.DB {
	t.Helper()

	db, err := turso.Open(context.Background(), "file:"+path, "")
	if err != nil {
		t.Fatalf("Failed to open tracking store: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}
