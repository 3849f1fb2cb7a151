package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/ZerkerEOD/slotban/internal/db"
	"github.com/ZerkerEOD/slotban/pkg/debug"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

/*
 * RunMigrations executes all pending migrations embedded in the binary.
 * Migrations are run in order based on their numeric prefix.
 *
 * Returns:
 *   - error: Any error encountered during migration, nil if successful
 *           Returns nil if no migrations are pending (ErrNoChange)
 */
func RunMigrations(cfg db.Config) error {
	debug.Info("Starting database migrations")

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.URL())
	if err != nil {
		debug.Error("Failed to create migration instance: %v", err)
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			debug.Warning("Failed to close migrator: source=%v database=%v", srcErr, dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		debug.Error("Migration failed: %v", err)
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		debug.Info("Database schema at version %d (dirty: %v)", version, dirty)
	}
	return nil
}

// MigrationNames lists the embedded migration files, used by tests and the startup log.
func MigrationNames() ([]string, error) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}
