// Package mobile adapts a zombiezen.com/go/sqlite connection to sqlexec.Executor using
// the callback-driven sqlitex API: prepared statements deliver their rows through a
// ResultFunc rather than a cursor.
package mobile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/aqasim81/posmigrate/internal/sqlexec"
	"github.com/aqasim81/posmigrate/internal/sqlexec/internal/zsqlite"
)

const engineName = "mobile"

// Executor runs statements on a single *sqlite.Conn. A Conn is not safe for
// concurrent use, so calls are serialized.
type Executor struct {
	mu            sync.Mutex
	conn          *sqlite.Conn
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

// WithTransactionalBatch wraps each ExecuteBatch call in a savepoint.
func WithTransactionalBatch() Option {
	return func(e *Executor) { e.transactional = true }
}

// New creates an Executor over conn. The caller keeps ownership of conn.
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

// ExecuteSQL runs one statement.
func (e *Executor) ExecuteSQL(ctx context.Context, query string, params ...any) (*sqlexec.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

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
func (e *Executor) ExecuteBatch(ctx context.Context, statements []string) (err error) {
	if len(statements) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	defer e.conn.SetInterrupt(e.conn.SetInterrupt(ctx.Done()))

	if e.transactional {
		defer sqlitex.Save(e.conn)(&err)
	}

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

		if err := sqlitex.ExecuteTransient(e.conn, query, nil); err != nil {
			return nil, sqlexec.MarkSQLiteMissingTable(err)
		}

		return &sqlexec.Result{}, nil
	}

	var rows []sqlexec.Row

	err := sqlitex.Execute(e.conn, query, &sqlitex.ExecOptions{
		Args: params,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			rows = append(rows, zsqlite.ReadRow(stmt))
			return nil
		},
	})
	if err != nil {
		return nil, sqlexec.MarkSQLiteMissingTable(err)
	}

	if sqlexec.ReturnsRows(query) {
		return &sqlexec.Result{Rows: rows}, nil
	}

	return &sqlexec.Result{Rows: rows, RowsAffected: int64(e.conn.Changes())}, nil
}
