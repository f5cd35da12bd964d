package runner

import (
	"errors"
	"fmt"
)

// ErrMigrationFailed indicates a migration's batch did not execute.
var ErrMigrationFailed = errors.New("migration failed")

// MigrationError names the migration whose batch failed. Later migrations were not
// attempted.
type MigrationError struct {
	Version     string
	Description string
	Err         error
}

// Error implements the error interface.
func (e *MigrationError) Error() string {
	return fmt.Sprintf("%s: %s (%s): %v", ErrMigrationFailed, e.Version, e.Description, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is and errors.As.
func (e *MigrationError) Unwrap() []error {
	return []error{ErrMigrationFailed, e.Err}
}
