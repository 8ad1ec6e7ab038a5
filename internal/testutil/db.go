package testutil

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/wisplink/wisp/internal/db"
)

// NewTestDB opens a migrated in-memory SQLite database through the same
// factory and migration path the server uses.
//
// The file URI with shared cache makes every pool connection see the same
// in-memory database; the test name keys it so parallel tests stay isolated.
// busy_timeout covers lock contention from concurrent allocation tests.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared&_busy_timeout=5000"
	conn, err := db.New("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open in-memory sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.Migrate(conn, "sqlite3"); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}
