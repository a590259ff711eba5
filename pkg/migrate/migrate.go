// Package migrate evolves the store's schema through a checksummed,
// append-only ledger. Every applied migration leaves one ledger row; the
// set of applied migrations is reconciled against the offered set by
// checksum, giving exactly-once application in a strict total order.
package migrate

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/waterlyhq/waterly/internal/log"
)

// Migration is one schema or seed-data change offered for application.
// Version is a numeric string for one-time migrations and empty for
// repeatable migrations, which are re-applied whenever their content
// (and therefore their checksum) changes.
type Migration struct {
	Version     string
	Description string
	Checksum    string // hex SHA-256 of Script; computed when empty
	Script      string
}

// Repeatable reports whether the migration carries no fixed version.
func (m Migration) Repeatable() bool {
	return m.Version == ""
}

// Record is one applied-migration row from the ledger.
type Record struct {
	InstalledRank int64
	Version       string // empty for repeatable migrations
	Description   string
	Checksum      string
	InstalledAt   time.Time
}

// Checksum returns the hex SHA-256 fingerprint of a migration script.
func Checksum(script string) string {
	sum := sha256.Sum256([]byte(script))
	return hex.EncodeToString(sum[:])
}

// Migrator applies migrations against a single database and records them
// in the schema_history ledger.
type Migrator struct {
	db *sql.DB
}

// NewMigrator creates a new migrator instance
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

const createLedgerSQL = `
CREATE TABLE IF NOT EXISTS schema_history (
	installed_rank INTEGER PRIMARY KEY AUTOINCREMENT,
	version        TEXT,
	description    TEXT NOT NULL,
	checksum       TEXT NOT NULL UNIQUE,
	installed_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_schema_history_version
	ON schema_history (version) WHERE version IS NOT NULL;
`

// EnsureLedger creates the ledger table if it does not exist yet.
func (m *Migrator) EnsureLedger() error {
	if _, err := m.db.Exec(createLedgerSQL); err != nil {
		return fmt.Errorf("failed to create schema_history table: %w", err)
	}
	return nil
}

// Pending returns the subsequence of known not yet present in the ledger,
// preserving the caller's order. Membership is tested by checksum: a
// migration already applied under the same checksum is skipped even if
// offered again (under any version label).
func (m *Migrator) Pending(known []Migration) ([]Migration, error) {
	if err := m.EnsureLedger(); err != nil {
		return nil, err
	}

	applied, err := m.appliedChecksums()
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, mig := range known {
		checksum := mig.Checksum
		if checksum == "" {
			checksum = Checksum(mig.Script)
		}
		if _, ok := applied[checksum]; !ok {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Apply executes one migration as a single all-or-nothing unit: the
// script and its ledger row commit together or not at all. Re-offering a
// migration whose checksum and version both match the ledger is a no-op.
// A version collision with a different checksum (schema drift) or a
// checksum collision under a different version label (duplicate content)
// fails with MigrationError before anything runs.
func (m *Migrator) Apply(mig Migration) error {
	if err := m.EnsureLedger(); err != nil {
		return err
	}

	if mig.Script == "" {
		return &MigrationError{Version: mig.Version, Description: mig.Description, Reason: "migration has no SQL"}
	}
	checksum := mig.Checksum
	if checksum == "" {
		checksum = Checksum(mig.Script)
	}

	var recordedVersion sql.NullString
	err := m.db.QueryRow("SELECT version FROM schema_history WHERE checksum = ?", checksum).Scan(&recordedVersion)
	switch {
	case err == nil:
		if recordedVersion.String == mig.Version {
			// Already applied; nothing to do.
			return nil
		}
		return &MigrationError{
			Version:     mig.Version,
			Description: mig.Description,
			Reason:      fmt.Sprintf("content already applied under version %q", recordedVersion.String),
		}
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to check ledger for checksum %s: %w", checksum, err)
	}

	if !mig.Repeatable() {
		var recordedChecksum string
		err := m.db.QueryRow("SELECT checksum FROM schema_history WHERE version = ?", mig.Version).Scan(&recordedChecksum)
		switch {
		case err == nil:
			return &MigrationError{
				Version:     mig.Version,
				Description: mig.Description,
				Reason: fmt.Sprintf("version already applied with checksum %s, offered content has checksum %s (schema drift)",
					recordedChecksum, checksum),
			}
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("failed to check ledger for version %s: %w", mig.Version, err)
		}
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(mig.Script); err != nil {
		return &MigrationError{
			Version:     mig.Version,
			Description: mig.Description,
			Reason:      "script failed",
			Err:         err,
		}
	}

	var version interface{}
	if !mig.Repeatable() {
		version = mig.Version
	}
	if _, err := tx.Exec("INSERT INTO schema_history (version, description, checksum) VALUES (?, ?, ?)",
		version, mig.Description, checksum); err != nil {
		return fmt.Errorf("failed to append ledger row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration transaction: %w", err)
	}

	log.Infow("applied migration", "version", mig.Version, "description", mig.Description, "checksum", checksum[:12])
	return nil
}

// ApplyAll applies every pending migration from known, in the caller's
// order, stopping at the first failure. It returns the number applied.
func (m *Migrator) ApplyAll(known []Migration) (int, error) {
	pending, err := m.Pending(known)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, mig := range pending {
		if err := m.Apply(mig); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// History returns the ledger contents ordered by installation rank.
func (m *Migrator) History() ([]Record, error) {
	if err := m.EnsureLedger(); err != nil {
		return nil, err
	}

	rows, err := m.db.Query(
		"SELECT installed_rank, version, description, checksum, installed_at FROM schema_history ORDER BY installed_rank")
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var version sql.NullString
		var installedAt interface{}
		if err := rows.Scan(&rec.InstalledRank, &version, &rec.Description, &rec.Checksum, &installedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		rec.Version = version.String
		rec.InstalledAt = ledgerTime(installedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	return records, nil
}

func (m *Migrator) appliedChecksums() (map[string]struct{}, error) {
	rows, err := m.db.Query("SELECT checksum FROM schema_history")
	if err != nil {
		return nil, fmt.Errorf("failed to read applied checksums: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var checksum string
		if err := rows.Scan(&checksum); err != nil {
			return nil, fmt.Errorf("failed to scan checksum: %w", err)
		}
		applied[checksum] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read applied checksums: %w", err)
	}
	return applied, nil
}

// ledgerTime normalizes the installed_at column across drivers: some hand
// back time.Time for DATETIME columns, others the stored text. The zero
// time is returned for anything unparseable.
func ledgerTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		return parseLedgerTime(t)
	case []byte:
		return parseLedgerTime(string(t))
	}
	return time.Time{}
}

func parseLedgerTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
