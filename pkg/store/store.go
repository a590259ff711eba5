// Package store implements the telemetry and configuration store of the
// waterly watering controller: zones, sensor measurements, weather
// fetches and operator settings in one SQLite file. Schema evolution is
// gated by a checksummed migration ledger applied at Open, and read
// surfaces reduce the append-only history to "latest" values.
//
// The store performs no unit conversion and makes no scheduling
// decisions; collectors, the scheduler and the dashboard consume the
// contracts exposed here.
package store

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/waterlyhq/waterly/internal/database"
	"github.com/waterlyhq/waterly/internal/log"
	"github.com/waterlyhq/waterly/pkg/migrate"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the store's built-in migration set, in apply order.
// Admin tooling uses it to inspect pending work without opening a store.
func Migrations() migrate.Provider {
	return migrate.NewFSProvider(migrationFiles, "migrations")
}

// Store owns the controller database exclusively. Every pending schema
// migration is applied before Open returns; the underlying handle is
// never exposed to collaborators.
type Store struct {
	db  *gorm.DB
	sql *sql.DB
}

// Option adjusts how Open prepares the store.
type Option func(*options)

type options struct {
	provider migrate.Provider
}

// WithMigrations replaces the built-in migration set. Provisioning
// tooling layers deployment-specific seed scripts on top of the baseline
// this way.
func WithMigrations(p migrate.Provider) Option {
	return func(o *options) { o.provider = p }
}

// Open opens the database file at path, creating it if necessary, and
// applies all pending migrations. No read or write is possible until the
// migration barrier completes; a failed migration aborts Open and leaves
// the schema exactly as it was.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{provider: Migrations()}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unable to access connection pool: %w", err)
	}

	known, err := o.provider.GetMigrations()
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("unable to load migrations: %w", err)
	}

	applied, err := migrate.NewMigrator(sqlDB).ApplyAll(known)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	if applied > 0 {
		log.Infof("applied %d pending migrations", applied)
	}

	log.Infow("store opened", "path", path, "migrations", len(known))
	return &Store{db: db, sql: sqlDB}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.sql.Close()
}

// MigrationHistory returns the applied-migration ledger, ordered by
// installation rank. Diagnostics only; the ledger is never mutated here.
func (s *Store) MigrationHistory() ([]migrate.Record, error) {
	return migrate.NewMigrator(s.sql).History()
}
