package sqlexec

import (
	"fmt"
	"strings"
)

// sqliteMissingTable is the message fragment every SQLite build reports for an
// unknown table, regardless of driver.
const sqliteMissingTable = "no such table"

// MarkSQLiteMissingTable wraps err with ErrMissingTable when it is SQLite's unknown
// table error. Other errors, and nil, are returned unchanged.
func MarkSQLiteMissingTable(err error) error {
	if err == nil || !strings.Contains(err.Error(), sqliteMissingTable) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrMissingTable, err)
}
