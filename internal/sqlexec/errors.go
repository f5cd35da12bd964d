package sqlexec

import (
	"errors"
	"fmt"
)

// ErrMissingTable marks an engine error caused by a table that does not exist yet.
// Adapters wrap engine errors with it so callers can tell a fresh database apart from
// other failures without matching messages themselves.
var ErrMissingTable = errors.New("table does not exist")

// StatementError reports which statement of a batch failed.
type StatementError struct {
	Engine    string // adapter name, e.g. "desktop"
	Index     int    // 0-based position within the batch
	Statement string // truncated statement text
	Err       error
}

// Error implements the error interface.
func (e *StatementError) Error() string {
	return fmt.Sprintf("%s: statement %d failed: %v (sql: %s)", e.Engine, e.Index+1, e.Err, e.Statement)
}

// Unwrap returns the underlying engine error.
func (e *StatementError) Unwrap() error {
	return e.Err
}

// ErrDirectParams is returned when parameters are passed for a statement the engine runs
// on the direct path, which never binds.
var ErrDirectParams = errors.New("parameters given for a statement on the direct path")
