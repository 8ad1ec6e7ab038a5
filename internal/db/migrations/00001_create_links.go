package migrations

// Go migration because timestamp column types differ by database driver
// (TIMESTAMP for SQLite, TIMESTAMPTZ for PostgreSQL, TIMESTAMP(6) for MySQL).

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateLinks, downCreateLinks)
}

func upCreateLinks(ctx context.Context, tx *sql.Tx) error {
	var ddl string
	switch dialect {
	case "postgres":
		ddl = `CREATE TABLE IF NOT EXISTS links (
    slug         TEXT PRIMARY KEY,
    target_url   TEXT NOT NULL,
    delete_token TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL,
    expires_at   TIMESTAMPTZ NOT NULL
)`
	case "mysql":
		ddl = `CREATE TABLE IF NOT EXISTS links (
    slug         VARCHAR(50) PRIMARY KEY,
    target_url   TEXT NOT NULL,
    delete_token VARCHAR(64) NOT NULL,
    created_at   TIMESTAMP(6) NOT NULL,
    expires_at   TIMESTAMP(6) NOT NULL
)`
	default: // sqlite3
		ddl = `CREATE TABLE IF NOT EXISTS links (
    slug         TEXT PRIMARY KEY,
    target_url   TEXT NOT NULL,
    delete_token TEXT NOT NULL,
    created_at   TIMESTAMP NOT NULL,
    expires_at   TIMESTAMP NOT NULL
)`
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create links table: %w", err)
	}
	// The sweeper filters on expires_at; keep that scan off the primary key.
	_, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS links_expires_at_idx ON links (expires_at)`)
	return err
}

func downCreateLinks(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS links`)
	return err
}
