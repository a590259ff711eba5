package migrate

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/glebarez/go-sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mig(version, description, script string) Migration {
	return Migration{
		Version:     version,
		Description: description,
		Checksum:    Checksum(script),
		Script:      script,
	}
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count)
	if err != nil {
		t.Fatalf("checking for table %s: %v", name, err)
	}
	return count > 0
}

func TestChecksum(t *testing.T) {
	a := Checksum("CREATE TABLE a (id INTEGER);")
	b := Checksum("CREATE TABLE a (id INTEGER);")
	c := Checksum("CREATE TABLE a (id INTEGER); -- changed")

	if a != b {
		t.Errorf("identical scripts produced different checksums: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different scripts produced the same checksum")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(a))
	}
}

func TestApplyAll(t *testing.T) {
	db := openTestDB(t)
	migrator := NewMigrator(db)

	known := []Migration{
		mig("0001", "create plants", "CREATE TABLE plant (id INTEGER PRIMARY KEY, name TEXT);"),
		mig("0002", "create pots", "CREATE TABLE pot (id INTEGER PRIMARY KEY, size TEXT);"),
	}

	applied, err := migrator.ApplyAll(known)
	if err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	if applied != 2 {
		t.Fatalf("expected 2 applied, got %d", applied)
	}
	if !tableExists(t, db, "plant") || !tableExists(t, db, "pot") {
		t.Fatal("migrated tables are missing")
	}

	// A second run against the same ledger applies nothing.
	applied, err = migrator.ApplyAll(known)
	if err != nil {
		t.Fatalf("ApplyAll rerun: %v", err)
	}
	if applied != 0 {
		t.Fatalf("expected 0 applied on rerun, got %d", applied)
	}

	history, err := migrator.History()
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(history))
	}
	for i, rec := range history {
		if rec.Version != known[i].Version {
			t.Errorf("row %d: expected version %s, got %s", i, known[i].Version, rec.Version)
		}
		if rec.Checksum != known[i].Checksum {
			t.Errorf("row %d: checksum mismatch", i)
		}
		if rec.InstalledAt.IsZero() {
			t.Errorf("row %d: installed_at not recorded", i)
		}
	}
	if history[0].InstalledRank >= history[1].InstalledRank {
		t.Errorf("ranks not ascending: %d then %d", history[0].InstalledRank, history[1].InstalledRank)
	}
}

func TestApplyExactlyOnce(t *testing.T) {
	db := openTestDB(t)
	migrator := NewMigrator(db)

	m := mig("0001", "create plants", "CREATE TABLE plant (id INTEGER PRIMARY KEY);")
	if err := migrator.Apply(m); err != nil {
		t.Fatalf("first Apply: %v", err)
	}

	// Re-offering the identical migration is a no-op, not an error.
	if err := migrator.Apply(m); err != nil {
		t.Fatalf("second Apply: %v", err)
	}

	history, err := migrator.History()
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 ledger row, got %d", len(history))
	}
}

func TestApplyDriftDetection(t *testing.T) {
	db := openTestDB(t)
	migrator := NewMigrator(db)

	if err := migrator.Apply(mig("0001", "create plants", "CREATE TABLE plant (id INTEGER PRIMARY KEY);")); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Same version, edited content: the ledger refuses it.
	err := migrator.Apply(mig("0001", "create plants", "CREATE TABLE plant (id INTEGER PRIMARY KEY, name TEXT);"))
	if err == nil {
		t.Fatal("expected drift error, got nil")
	}
	if !IsMigrationError(err) {
		t.Fatalf("expected MigrationError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "drift") {
		t.Errorf("expected drift reason, got: %v", err)
	}
}

func TestApplyDuplicateContent(t *testing.T) {
	db := openTestDB(t)
	migrator := NewMigrator(db)

	script := "CREATE TABLE plant (id INTEGER PRIMARY KEY);"
	if err := migrator.Apply(mig("0001", "create plants", script)); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Identical content offered under a new version label.
	err := migrator.Apply(mig("0002", "create plants again", script))
	if err == nil {
		t.Fatal("expected duplicate-content error, got nil")
	}
	if !IsMigrationError(err) {
		t.Fatalf("expected MigrationError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), `already applied under version "0001"`) {
		t.Errorf("unexpected reason: %v", err)
	}
}

func TestRepeatableMigrations(t *testing.T) {
	db := openTestDB(t)
	migrator := NewMigrator(db)

	base := mig("0001", "create plants", "CREATE TABLE plant (id INTEGER PRIMARY KEY, height REAL);")
	viewV1 := mig("", "tall plants view",
		"DROP VIEW IF EXISTS tall_plant; CREATE VIEW tall_plant AS SELECT * FROM plant WHERE height > 100;")

	applied, err := migrator.ApplyAll([]Migration{base, viewV1})
	if err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	if applied != 2 {
		t.Fatalf("expected 2 applied, got %d", applied)
	}

	// Unchanged repeatable content is not pending again.
	pending, err := migrator.Pending([]Migration{base, viewV1})
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected nothing pending, got %d", len(pending))
	}

	// Edited repeatable content reapplies as a fresh ledger row.
	viewV2 := mig("", "tall plants view",
		"DROP VIEW IF EXISTS tall_plant; CREATE VIEW tall_plant AS SELECT * FROM plant WHERE height > 150;")
	applied, err = migrator.ApplyAll([]Migration{base, viewV2})
	if err != nil {
		t.Fatalf("ApplyAll with edited view: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 applied, got %d", applied)
	}

	history, err := migrator.History()
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 ledger rows, got %d", len(history))
	}
	for _, rec := range history[1:] {
		if rec.Version != "" {
			t.Errorf("repeatable row recorded with version %q", rec.Version)
		}
	}
}

func TestApplyRollsBackFailedScript(t *testing.T) {
	db := openTestDB(t)
	migrator := NewMigrator(db)

	// The first statement succeeds, the second cannot: nothing may stick.
	err := migrator.Apply(mig("0001", "broken",
		"CREATE TABLE plant (id INTEGER PRIMARY KEY); INSERT INTO no_such_table VALUES (1);"))
	if err == nil {
		t.Fatal("expected script failure, got nil")
	}
	if !IsMigrationError(err) {
		t.Fatalf("expected MigrationError, got %T: %v", err, err)
	}

	if tableExists(t, db, "plant") {
		t.Error("failed migration left the plant table behind")
	}
	history, err := migrator.History()
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("failed migration left %d ledger rows", len(history))
	}
}

func TestApplyEmptyScript(t *testing.T) {
	db := openTestDB(t)
	migrator := NewMigrator(db)

	err := migrator.Apply(Migration{Version: "0001", Description: "empty"})
	if err == nil {
		t.Fatal("expected error for empty script, got nil")
	}
	if !IsMigrationError(err) {
		t.Fatalf("expected MigrationError, got %T: %v", err, err)
	}
}

func TestPendingComputesChecksums(t *testing.T) {
	db := openTestDB(t)
	migrator := NewMigrator(db)

	script := "CREATE TABLE plant (id INTEGER PRIMARY KEY);"
	if err := migrator.Apply(mig("0001", "create plants", script)); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Offered without a precomputed checksum: membership still holds.
	pending, err := migrator.Pending([]Migration{{Version: "0001", Description: "create plants", Script: script}})
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected applied migration to be skipped, got %d pending", len(pending))
	}

	pending, err = migrator.Pending([]Migration{
		{Version: "0001", Description: "create plants", Script: script},
		{Version: "0002", Description: "create pots", Script: "CREATE TABLE pot (id INTEGER PRIMARY KEY);"},
	})
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Version != "0002" {
		t.Fatalf("expected only 0002 pending, got %+v", pending)
	}
}

func TestMigrationErrorLabelsRepeatable(t *testing.T) {
	err := &MigrationError{Description: "views", Reason: "script failed"}
	if !strings.Contains(err.Error(), "repeatable") {
		t.Errorf("expected repeatable label, got: %v", err)
	}

	versioned := &MigrationError{Version: "0003", Description: "seed", Reason: "script failed"}
	if !strings.Contains(versioned.Error(), "0003") {
		t.Errorf("expected version in message, got: %v", versioned)
	}
}
