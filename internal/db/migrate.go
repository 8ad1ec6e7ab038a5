package db

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/wisplink/wisp/internal/db/migrations"
)

//go:embed migrations
var Migrations embed.FS

// Migrate brings the schema up to date from the embedded migrations. It must
// run before the HTTP server accepts requests: the catch-all resolver hits
// the links table on its very first request.
//
// The supported config driver names double as goose dialect names, so the
// driver is validated against the factory's table and passed through.
func Migrate(db *sqlx.DB, driver string) error {
	if _, ok := sqlDriver[driver]; !ok {
		return fmt.Errorf("unsupported DB driver %q for migrations", driver)
	}

	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	migrations.SetDialect(driver)

	sub, err := fs.Sub(Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("sub migrations fs: %w", err)
	}

	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)
	if err := goose.Up(db.DB, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
