// Package postgres adapts a pgx connection pool to sqlexec.Executor so the same
// migration registry can target a shared PostgreSQL back office database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aqasim81/posmigrate/internal/sqlexec"
)

const engineName = "postgres"

// undefinedTable is the SQLSTATE PostgreSQL reports for an unknown relation.
const undefinedTable = "42P01"

// querier is the subset of *pgxpool.Pool, *pgxpool.Conn and pgx.Tx the adapter needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Executor runs statements against a PostgreSQL pool.
type Executor struct {
	pool             *pgxpool.Pool
	routes           sqlexec.RoutingTable
	logger           *slog.Logger
	transactional    bool
	lockTimeout      time.Duration
	statementTimeout time.Duration
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

// WithLockTimeout sets lock_timeout for transactional batches.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Executor) { e.lockTimeout = d }
}

// WithStatementTimeout sets statement_timeout for transactional batches.
func WithStatementTimeout(d time.Duration) Option {
	return func(e *Executor) { e.statementTimeout = d }
}

// New creates an Executor over pool.
func New(pool *pgxpool.Pool, opts ...Option) *Executor {
	e := &Executor{
		pool:   pool,
		routes: sqlexec.PostgresRoutes,
		logger: sqlexec.DiscardLogger(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ExecuteSQL runs one statement on the pool.
func (e *Executor) ExecuteSQL(ctx context.Context, query string, params ...any) (*sqlexec.Result, error) {
	res, err := e.run(ctx, e.pool, query, params)
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

// ExecuteBatch runs statements in order on one connection, or inside one
// transaction when the executor is transactional.
func (e *Executor) ExecuteBatch(ctx context.Context, statements []string) error {
	if len(statements) == 0 {
		return nil
	}

	if e.transactional {
		return execInTransaction(ctx, e.pool, func(tx pgx.Tx) error {
			if err := applyTimeouts(ctx, tx, e.lockTimeout, e.statementTimeout); err != nil {
				return err
			}

			return e.runBatch(ctx, tx, statements)
		})
	}

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%s: acquiring connection: %w", engineName, err)
	}
	defer conn.Release()

	return e.runBatch(ctx, conn, statements)
}

func (e *Executor) runBatch(ctx context.Context, q querier, statements []string) error {
	return sqlexec.RunBatch(ctx, engineName, e.logger, statements, func(ctx context.Context, stmt string) error {
		_, err := e.run(ctx, q, stmt, nil)
		return err
	})
}

func (e *Executor) run(ctx context.Context, q querier, query string, params []any) (*sqlexec.Result, error) {
	if e.routes.Route(query) == sqlexec.RouteDirect {
		if len(params) > 0 {
			return nil, sqlexec.ErrDirectParams
		}

		tag, err := q.Exec(ctx, query)
		if err != nil {
			return nil, markMissingTable(err)
		}

		return &sqlexec.Result{RowsAffected: tag.RowsAffected()}, nil
	}

	if sqlexec.ReturnsRows(query) {
		rows, err := q.Query(ctx, query, params...)
		if err != nil {
			return nil, markMissingTable(err)
		}

		maps, err := pgx.CollectRows(rows, pgx.RowToMap)
		if err != nil {
			return nil, markMissingTable(err)
		}

		out := make([]sqlexec.Row, len(maps))
		for i, m := range maps {
			out[i] = m
		}

		return &sqlexec.Result{Rows: out}, nil
	}

	tag, err := q.Exec(ctx, query, params...)
	if err != nil {
		return nil, markMissingTable(err)
	}

	return &sqlexec.Result{RowsAffected: tag.RowsAffected()}, nil
}

// markMissingTable wraps undefined_table errors with sqlexec.ErrMissingTable.
func markMissingTable(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return fmt.Errorf("%w: %w", sqlexec.ErrMissingTable, err)
	}

	return err
}
