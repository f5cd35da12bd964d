// Package desktop adapts a database/sql handle backed by the pure-Go SQLite driver
// (modernc.org/sqlite) to sqlexec.Executor.
package desktop

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/aqasim81/posmigrate/internal/sqlexec"
)

const engineName = "desktop"

// queryer is the subset of *sql.DB, *sql.Conn and *sql.Tx the adapter needs.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Executor runs statements against a *sql.DB.
type Executor struct {
	db            *sql.DB
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

// WithTransactionalBatch wraps each ExecuteBatch call in a transaction.
func WithTransactionalBatch() Option {
	return func(e *Executor) { e.transactional = true }
}

// WithRoutes replaces the default routing table.
func WithRoutes(r sqlexec.RoutingTable) Option {
	return func(e *Executor) { e.routes = r }
}

// New creates an Executor over db. The desktop routing table sends INSERT down the
// direct path along with DDL and PRAGMA.
func New(db *sql.DB, opts ...Option) *Executor {
	e := &Executor{
		db:     db,
		routes: sqlexec.DesktopRoutes,
		logger: sqlexec.DiscardLogger(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ExecuteSQL runs one statement on the pool.
func (e *Executor) ExecuteSQL(ctx context.Context, query string, params ...any) (*sqlexec.Result, error) {
	res, err := e.run(ctx, e.db, query, params)
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

// ExecuteBatch runs statements in order on one pinned connection.
func (e *Executor) ExecuteBatch(ctx context.Context, statements []string) error {
	if len(statements) == 0 {
		return nil
	}

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%s: acquiring connection: %w", engineName, err)
	}
	defer conn.Close()

	if e.transactional {
		return e.runInTransaction(ctx, conn, statements)
	}

	return e.runBatch(ctx, conn, statements)
}

// runInTransaction commits when every statement succeeds and rolls back otherwise.
func (e *Executor) runInTransaction(ctx context.Context, conn *sql.Conn, statements []string) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: beginning transaction: %w", engineName, err)
	}

	if err := e.runBatch(ctx, tx, statements); err != nil {
		tx.Rollback() //nolint:errcheck // the statement error is the one worth reporting

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: committing transaction: %w", engineName, err)
	}

	return nil
}

func (e *Executor) runBatch(ctx context.Context, q queryer, statements []string) error {
	return sqlexec.RunBatch(ctx, engineName, e.logger, statements, func(ctx context.Context, stmt string) error {
		_, err := e.run(ctx, q, stmt, nil)
		return err
	})
}

func (e *Executor) run(ctx context.Context, q queryer, query string, params []any) (*sqlexec.Result, error) {
	if e.routes.Route(query) == sqlexec.RouteDirect {
		if len(params) > 0 {
			return nil, sqlexec.ErrDirectParams
		}

		return execDirect(ctx, q, query)
	}

	return execPrepared(ctx, q, query, params)
}

func execDirect(ctx context.Context, q queryer, query string) (*sqlexec.Result, error) {
	res, err := q.ExecContext(ctx, query)
	if err != nil {
		return nil, sqlexec.MarkSQLiteMissingTable(err)
	}

	return &sqlexec.Result{RowsAffected: rowsAffected(res)}, nil
}

func execPrepared(ctx context.Context, q queryer, query string, params []any) (*sqlexec.Result, error) {
	stmt, err := q.PrepareContext(ctx, query)
	if err != nil {
		return nil, sqlexec.MarkSQLiteMissingTable(err)
	}
	defer stmt.Close()

	if sqlexec.ReturnsRows(query) {
		rows, err := stmt.QueryContext(ctx, params...)
		if err != nil {
			return nil, sqlexec.MarkSQLiteMissingTable(err)
		}

		collected, err := scanRows(rows)
		if err != nil {
			return nil, err
		}

		return &sqlexec.Result{Rows: collected}, nil
	}

	res, err := stmt.ExecContext(ctx, params...)
	if err != nil {
		return nil, sqlexec.MarkSQLiteMissingTable(err)
	}

	return &sqlexec.Result{RowsAffected: rowsAffected(res)}, nil
}

// rowsAffected reports 0 when the driver cannot count, as for DDL.
func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}

	return n
}
