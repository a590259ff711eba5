// Package database manages the SQLite connection behind the waterly store.
package database

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/waterlyhq/waterly/internal/log"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Pragmas applied to every connection. WAL keeps readers unblocked during
// collector write bursts, busy_timeout covers the rare overlap between the
// ingestion and dashboard paths, and foreign_keys enables the zone
// deletion cascade over measurements.
const dsnPragmas = "?_pragma=journal_mode(WAL)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=busy_timeout(5000)" +
	"&_pragma=foreign_keys(1)"

// Open opens the SQLite database file at path, creating it if necessary,
// with the store's standard GORM configuration. The connection pool is
// capped at a single connection: the store is the sole writer of its file.
func Open(path string) (*gorm.DB, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Absent rows are a normal outcome here
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open("file:"+path+dsnPragmas), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("unable to open database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unable to access connection pool for %s: %w", path, err)
	}
	sqlDB.SetMaxOpenConns(1)

	log.Debugw("database connection opened", "path", path)
	return db, nil
}
