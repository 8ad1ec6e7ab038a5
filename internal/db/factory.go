package db

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// sqlDriver maps config driver names onto registered database/sql driver
// names. The sqlite entry differs because modernc.org/sqlite registers
// itself as "sqlite" (CGO-free).
var sqlDriver = map[string]string{
	"sqlite3":  "sqlite",
	"mysql":    "mysql",
	"postgres": "postgres",
}

// New opens a connection pool for the given driver and DSN.
// Supported drivers: sqlite3, mysql, postgres.
func New(driver, dsn string) (*sqlx.DB, error) {
	name, ok := sqlDriver[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported DB driver %q: must be sqlite3, mysql, or postgres", driver)
	}

	conn, err := sqlx.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite3" {
		// WAL is a database-level setting, so one Exec through the pool
		// sticks. It lets the resolver read while a create or sweep writes.
		// Per-connection settings like busy_timeout belong in the DSN.
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}
	return conn, nil
}
