package migrate

import (
	"errors"
	"fmt"
)

// MigrationError reports a migration that cannot be applied: its checksum
// or version conflicts with the ledger, or its script failed mid-apply.
// Startup must not proceed past one of these.
type MigrationError struct {
	Version     string // empty for repeatable migrations
	Description string
	Reason      string
	Err         error
}

func (e *MigrationError) Error() string {
	label := e.Version
	if label == "" {
		label = "repeatable"
	}
	msg := fmt.Sprintf("migration %s (%s): %s", label, e.Description, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// IsMigrationError reports whether err is (or wraps) a MigrationError.
func IsMigrationError(err error) bool {
	var me *MigrationError
	return errors.As(err, &me)
}
