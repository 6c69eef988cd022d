package iocache

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/huangsam/treemetrics/schema"
)

//go:embed migrations
var migrationsFS embed.FS

// migrationDrivers wraps an open analysis database for golang-migrate, per backend.
var migrationDrivers = map[schema.DatabaseBackend]func(*sql.DB) (database.Driver, error){
	schema.SQLiteBackend: func(db *sql.DB) (database.Driver, error) {
		return sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: migrationsTable})
	},
	schema.MySQLBackend: func(db *sql.DB) (database.Driver, error) {
		return mysql.WithInstance(db, &mysql.Config{MigrationsTable: migrationsTable})
	},
	schema.PostgreSQLBackend: func(db *sql.DB) (database.Driver, error) {
		return postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	},
}

// MigrateAnalysis moves the analysis store schema to targetVersion.
// A negative target means the latest version and 0 rolls every migration back.
func MigrateAnalysis(backend schema.DatabaseBackend, connStr string, targetVersion int) error {
	if backend == schema.NoneBackend {
		return errors.New("migrations are not supported for NoneBackend")
	}

	db, _, err := openAnalysisDB(backend, connStr)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	driver, err := migrationDrivers[backend](db)
	if err != nil {
		return fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}

	// Each backend has its own dialect directory
	dialectFS, err := fs.Sub(migrationsFS, "migrations/"+string(backend))
	if err != nil {
		return fmt.Errorf("failed to access migrations directory: %w", err)
	}
	source, err := iofs.New(dialectFS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "treemetrics", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", from)
	}

	var target string
	switch {
	case targetVersion < 0:
		target, err = "the latest version", m.Up()
	case targetVersion == 0:
		target, err = "version 0", m.Down()
	default:
		target, err = fmt.Sprintf("version %d", targetVersion), m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Printf("No migration needed. Database is already at %s.\n", target)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to migrate to %s: %w", target, err)
	}

	to, _, _ := m.Version()
	fmt.Printf("Successfully migrated from version %d to version %d\n", from, to)
	return nil
}
