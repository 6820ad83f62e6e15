// Package migrate applies versioned SQL migrations to a SQLite database.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// DB represents either a database connection or transaction
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// MigrationProvider defines how migrations are loaded
type MigrationProvider interface {
	GetMigrations() ([]Migration, error)
}

// Migrator handles the execution of migrations
type Migrator struct {
	db             *sql.DB
	provider       MigrationProvider
	migrationTable string
	logger         *zap.SugaredLogger
}

// NewMigrator creates a new migrator instance. An empty migrationTable uses "schema_migrations".
func NewMigrator(db *sql.DB, provider MigrationProvider, migrationTable string, logger *zap.SugaredLogger) *Migrator {
	if migrationTable == "" {
		migrationTable = "schema_migrations"
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Migrator{
		db:             db,
		provider:       provider,
		migrationTable: migrationTable,
		logger:         logger,
	}
}

// MigrateUp runs all pending migrations up to the latest version
func (m *Migrator) MigrateUp(ctx context.Context) error {
	return m.MigrateTo(ctx, -1) // -1 means migrate to latest
}

// MigrateTo runs migrations up or down to reach a specific version
func (m *Migrator) MigrateTo(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	migrations, err := m.sortedMigrations()
	if err != nil {
		return err
	}

	// Determine target version if -1 (latest)
	if targetVersion == -1 {
		targetVersion = 0
		if len(migrations) > 0 {
			targetVersion = migrations[len(migrations)-1].Version
		}
	}

	if targetVersion < currentVersion {
		// roll back newest first
		for i := len(migrations) - 1; i >= 0; i-- {
			mig := migrations[i]
			if mig.Version <= currentVersion && mig.Version > targetVersion {
				if err := m.executeMigration(ctx, mig, false); err != nil {
					return fmt.Errorf("failed to revert migration %d: %w", mig.Version, err)
				}
			}
		}
		return nil
	}

	for _, mig := range migrations {
		if mig.Version > currentVersion && mig.Version <= targetVersion {
			if err := m.executeMigration(ctx, mig, true); err != nil {
				return fmt.Errorf("failed to apply migration %d: %w", mig.Version, err)
			}
		}
	}
	return nil
}

// CurrentVersion returns the highest applied migration version, creating the
// tracking table if needed
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`, m.migrationTable)
	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return 0, fmt.Errorf("failed to create migration table: %w", err)
	}

	var version int
	err := m.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", m.migrationTable)).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

func (m *Migrator) sortedMigrations() ([]Migration, error) {
	migrations, err := m.provider.GetMigrations()
	if err != nil {
		return nil, fmt.Errorf("failed to get migrations: %w", err)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// executeMigration runs a single migration up or down in a transaction
func (m *Migrator) executeMigration(ctx context.Context, migration Migration, up bool) error {
	stmt, direction := migration.Up, "up"
	if !up {
		stmt, direction = migration.Down, "down"
	}
	if stmt == "" {
		return fmt.Errorf("migration %d has no %s SQL", migration.Version, direction)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	if err := m.setVersion(ctx, tx, migration.Version, up); err != nil {
		return fmt.Errorf("failed to update migration version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration transaction: %w", err)
	}

	m.logger.Infof("applied migration %d (%s) %s", migration.Version, migration.Name, direction)
	return nil
}

func (m *Migrator) setVersion(ctx context.Context, db DB, version int, up bool) error {
	var err error
	if up {
		_, err = db.ExecContext(ctx, fmt.Sprintf(`INSERT OR REPLACE INTO %s (version, applied_at) VALUES (?, CURRENT_TIMESTAMP)`, m.migrationTable), version)
	} else {
		_, err = db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE version >= ?`, m.migrationTable), version)
	}
	return err
}
