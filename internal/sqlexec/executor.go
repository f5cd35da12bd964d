// Package sqlexec defines the two-operation contract every storage engine adapter
// satisfies, plus the keyword routing and error types the adapters share.
package sqlexec

import "context"

// Row is one result row keyed by column name.
type Row map[string]any

// Result is the outcome of ExecuteSQL. Reads fill Rows; writes report RowsAffected,
// which is 0 for statements the engine does not count (DDL, PRAGMA).
type Result struct {
	Rows         []Row
	RowsAffected int64
}

// Executor adapts one concrete storage engine to the calling convention the migration
// runner needs.
type Executor interface {
	// ExecuteSQL runs a single statement, binding params when the statement is routed
	// to the prepared path.
	ExecuteSQL(ctx context.Context, query string, params ...any) (*Result, error)

	// ExecuteBatch runs statements in order on one connection and stops at the first
	// failure. Atomicity is only provided when the adapter is built with a
	// transactional batch option.
	ExecuteBatch(ctx context.Context, statements []string) error
}
