package repository

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const migrationsSource = "file://internal/repository/migrations"

// RunMigrations applies pending schema migrations. A dirty database (a
// previous run died mid-migration) is forced back to the last clean version
// and retried once.
func RunMigrations(databaseURL string) error {
	m, err := migrate.New(migrationsSource, databaseURL)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}

	var dirtyErr migrate.ErrDirty
	if !errors.As(err, &dirtyErr) {
		return fmt.Errorf("run migrations: %w", err)
	}

	forceVersion := dirtyErr.Version - 1
	if forceVersion < 0 {
		forceVersion = 0
	}
	if ferr := m.Force(forceVersion); ferr != nil {
		return fmt.Errorf("force clean migration version %d: %w", forceVersion, ferr)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rerun migrations after dirty state: %w", err)
	}

	return nil
}
