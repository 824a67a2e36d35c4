// Package eventlog is the durable best-effort event outbox (§7 "best
// effort operations ... never propagate"; §4 SPEC_FULL supplement): a
// local sqlite-backed queue for tweak_submitted / rerun_clicked /
// session_started events so a handler never blocks on, or fails from, a
// transient data-API outage. A background Flusher drains it.
package eventlog

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewMigrator builds a golang-migrate instance over the embedded schema
// and the sqlite database at path, for callers (cmd/forgebot migrate)
// that need version/drop beyond the one-shot Migrate.
func NewMigrator(path string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("eventlog: load embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+path)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("eventlog: create migrator: %w", err)
	}
	return m, nil
}

// Migrate applies every pending migration to the sqlite database at path.
// Safe to call on every process start; a no-op once the schema is current.
func Migrate(path string) error {
	m, err := NewMigrator(path)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("eventlog: apply migrations: %w", err)
	}
	return nil
}
