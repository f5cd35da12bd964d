// Package browser is an in-memory SQLite engine driven through the explicit statement
// lifecycle: prepare, bind, step, finalize. Nothing it holds outlives the process, which
// makes it the engine for dry verification of a migration registry.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"zombiezen.com/go/sqlite"

	"github.com/aqasim81/posmigrate/internal/sqlexec"
	"github.com/aqasim81/posmigrate/internal/sqlexec/internal/zsqlite"
)

const engineName = "browser"

const (
	memoryURI = "file::memory:?mode=memory"
	savepoint = "posmigrate_batch"
)

// Executor runs statements on one in-memory connection.
type Executor struct {
	mu            sync.Mutex
	conn          *sqlite.Conn
	owned         bool
	routes        sqlexec.RoutingTable
	logger        *slog.Logger
	transactional bool
}

var _ sqlexec.Executor = (*Executor)(nil)

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used to report failing statements.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithTransactionalBatch wraps each ExecuteBatch call in a SAVEPOINT.
func WithTransactionalBatch() Option {
	return func(e *Executor) { e.transactional = true }
}

// Open creates a fresh in-memory database and an Executor that owns it.
// Close releases the database.
func Open(opts ...Option) (*Executor, error) {
	conn, err := sqlite.OpenConn(memoryURI,
		sqlite.OpenReadWrite|sqlite.OpenCreate|sqlite.OpenMemory|sqlite.OpenURI)
	if err != nil {
		return nil, fmt.Errorf("%s: opening in-memory database: %w", engineName, err)
	}

	e := New(conn, opts...)
	e.owned = true

	return e, nil
}

// New wraps an existing connection. The caller keeps ownership of conn.
func New(conn *sqlite.Conn, opts ...Option) *Executor {
	e := &Executor{
		conn:   conn,
		routes: sqlexec.DefaultRoutes,
		logger: sqlexec.DiscardLogger(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Close closes the connection if the Executor opened it.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.owned || e.conn == nil {
		return nil
	}

	err := e.conn.Close()
	e.conn = nil

	if err != nil {
		return fmt.Errorf("%s: closing database: %w", engineName, err)
	}

	return nil
}

// ExecuteSQL runs one statement.
func (e *Executor) ExecuteSQL(ctx context.Context, query string, params ...any) (*sqlexec.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.conn == nil {
		return nil, ErrClosed
	}

	defer e.conn.SetInterrupt(e.conn.SetInterrupt(ctx.Done()))

	res, err := e.run(query, params)
	if err != nil {
		e.logger.DebugContext(ctx, "query failed",
			slog.String("engine", engineName),
			slog.String("sql", sqlexec.Truncate(query, sqlexec.DefaultTruncateLen)),
			slog.Any("error", err),
		)

		return nil, fmt.Errorf("%s: %w", engineName, err)
	}

	return res, nil
}

// ExecuteBatch runs statements in order and stops at the first failure.
func (e *Executor) ExecuteBatch(ctx context.Context, statements []string) error {
	if len(statements) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.conn == nil {
		return ErrClosed
	}

	defer e.conn.SetInterrupt(e.conn.SetInterrupt(ctx.Done()))

	if !e.transactional {
		return e.runBatch(ctx, statements)
	}

	if err := e.direct("SAVEPOINT " + savepoint); err != nil {
		return fmt.Errorf("%s: opening savepoint: %w", engineName, err)
	}

	if err := e.runBatch(ctx, statements); err != nil {
		rollbackErr := e.direct("ROLLBACK TO " + savepoint)
		releaseErr := e.direct("RELEASE " + savepoint)

		return errors.Join(err, rollbackErr, releaseErr)
	}

	if err := e.direct("RELEASE " + savepoint); err != nil {
		return fmt.Errorf("%s: releasing savepoint: %w", engineName, err)
	}

	return nil
}

func (e *Executor) runBatch(ctx context.Context, statements []string) error {
	return sqlexec.RunBatch(ctx, engineName, e.logger, statements, func(_ context.Context, stmt string) error {
		_, err := e.run(stmt, nil)
		return err
	})
}

func (e *Executor) run(query string, params []any) (*sqlexec.Result, error) {
	if e.routes.Route(query) == sqlexec.RouteDirect {
		if len(params) > 0 {
			return nil, sqlexec.ErrDirectParams
		}

		if err := e.direct(query); err != nil {
			return nil, sqlexec.MarkSQLiteMissingTable(err)
		}

		return &sqlexec.Result{}, nil
	}

	rows, err := e.prepared(query, params)
	if err != nil {
		return nil, sqlexec.MarkSQLiteMissingTable(err)
	}

	if sqlexec.ReturnsRows(query) {
		return &sqlexec.Result{Rows: rows}, nil
	}

	return &sqlexec.Result{Rows: rows, RowsAffected: int64(e.conn.Changes())}, nil
}

// direct prepares query, steps it to completion, and finalizes it.
func (e *Executor) direct(query string) (err error) {
	stmt, err := e.prepare(query)
	if err != nil || stmt == nil {
		return err
	}

	defer func() {
		if ferr := stmt.Finalize(); err == nil {
			err = ferr
		}
	}()

	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return err
		}

		if !hasRow {
			return nil
		}
	}
}

// prepared binds params, collects every row, and always finalizes the statement.
func (e *Executor) prepared(query string, params []any) (rows []sqlexec.Row, err error) {
	stmt, err := e.prepare(query)
	if err != nil || stmt == nil {
		return nil, err
	}

	defer func() {
		if ferr := stmt.Finalize(); err == nil {
			err = ferr
		}
	}()

	if err := zsqlite.Bind(stmt, params); err != nil {
		return nil, err
	}

	return zsqlite.StepAll(stmt)
}

// prepare compiles exactly one statement. A nil statement with a nil error means query
// held only whitespace or comments.
func (e *Executor) prepare(query string) (*sqlite.Stmt, error) {
	stmt, trailing, err := e.conn.PrepareTransient(query)
	if err != nil {
		return nil, err
	}

	if trailing > 0 && strings.TrimSpace(query[len(query)-trailing:]) != "" {
		if stmt != nil {
			stmt.Finalize() //nolint:errcheck // reporting the trailing text instead
		}

		return nil, ErrMultipleStatements
	}

	return stmt, nil
}
