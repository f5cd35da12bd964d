// Package ledger reads and writes the table that records which migrations have been
// applied. The table is created lazily: a database that has never been migrated has no
// ledger, and reading it reports an uninitialized state instead of failing.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/aqasim81/posmigrate/internal/sqlexec"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`) //nolint:gochecknoglobals // compiled once

// State is the outcome of reading the ledger.
type State struct {
	// Initialized is false when the ledger table does not exist yet.
	Initialized bool
	// Versions lists applied versions in the order they were recorded.
	Versions []string
}

// Applied reports whether version is recorded in s.
func (s State) Applied(version string) bool {
	for _, v := range s.Versions {
		if v == version {
			return true
		}
	}

	return false
}

// Record is one ledger row.
type Record struct {
	Version     string
	Description string
	AppliedAt   time.Time
}

// Ledger reads and writes one ledger table.
type Ledger struct {
	table   string
	dialect Dialect
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithTable overrides the ledger table name.
func WithTable(name string) Option {
	return func(l *Ledger) { l.table = name }
}

// WithDialect selects the SQL dialect of the statements the ledger emits.
func WithDialect(d Dialect) Option {
	return func(l *Ledger) { l.dialect = d }
}

// New creates a Ledger. The table name is validated because it is interpolated into SQL.
func New(opts ...Option) (*Ledger, error) {
	l := &Ledger{table: DefaultTable, dialect: SQLite}

	for _, opt := range opts {
		opt(l)
	}

	if !tableNamePattern.MatchString(l.table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, l.table)
	}

	return l, nil
}

// Table returns the ledger table name.
func (l *Ledger) Table() string {
	return l.table
}

// Read returns the applied versions. A missing ledger table yields
// State{Initialized: false} and no error; any other failure is returned.
func (l *Ledger) Read(ctx context.Context, exec sqlexec.Executor) (State, error) {
	res, err := exec.ExecuteSQL(ctx, fmt.Sprintf("SELECT version FROM %s ORDER BY id", l.table))
	if err != nil {
		if errors.Is(err, sqlexec.ErrMissingTable) {
			return State{Initialized: false}, nil
		}

		return State{}, fmt.Errorf("%w %s: %w", ErrReadFailed, l.table, err)
	}

	state := State{Initialized: true, Versions: make([]string, 0, len(res.Rows))}

	for _, row := range res.Rows {
		v, err := stringValue(row["version"])
		if err != nil {
			return State{}, fmt.Errorf("%w %s: version column: %w", ErrReadFailed, l.table, err)
		}

		state.Versions = append(state.Versions, v)
	}

	return state, nil
}

// AppliedVersions returns the applied versions, treating a missing ledger as empty.
func (l *Ledger) AppliedVersions(ctx context.Context, exec sqlexec.Executor) ([]string, error) {
	state, err := l.Read(ctx, exec)
	if err != nil {
		return nil, err
	}

	if !state.Initialized {
		return []string{}, nil
	}

	return state.Versions, nil
}

// Records returns every ledger row in recording order. A missing ledger yields no rows.
func (l *Ledger) Records(ctx context.Context, exec sqlexec.Executor) ([]Record, error) {
	res, err := exec.ExecuteSQL(ctx,
		fmt.Sprintf("SELECT version, description, applied_at FROM %s ORDER BY id", l.table))
	if err != nil {
		if errors.Is(err, sqlexec.ErrMissingTable) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w %s: %w", ErrReadFailed, l.table, err)
	}

	records := make([]Record, 0, len(res.Rows))

	for _, row := range res.Rows {
		r, err := recordFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrReadFailed, l.table, err)
		}

		records = append(records, r)
	}

	return records, nil
}

// RecordStatements returns the statements that create the ledger if needed and record
// version as applied. Both are idempotent, so a migration that writes its own ledger row
// is unaffected.
func (l *Ledger) RecordStatements(version, description string) []string {
	return []string{
		l.dialect.createTableSQL(l.table),
		l.dialect.insertSQL(l.table, version, description),
	}
}

// Ensure creates the ledger table if it does not exist.
func (l *Ledger) Ensure(ctx context.Context, exec sqlexec.Executor) error {
	if _, err := exec.ExecuteSQL(ctx, l.dialect.createTableSQL(l.table)); err != nil {
		return fmt.Errorf("creating ledger table %s: %w", l.table, err)
	}

	return nil
}
