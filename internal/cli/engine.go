package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aqasim81/posmigrate/internal/config"
	"github.com/aqasim81/posmigrate/internal/database"
	"github.com/aqasim81/posmigrate/internal/ledger"
	"github.com/aqasim81/posmigrate/internal/migration"
	"github.com/aqasim81/posmigrate/internal/runner"
	"github.com/aqasim81/posmigrate/internal/sqlexec"
	"github.com/aqasim81/posmigrate/internal/sqlexec/browser"
	"github.com/aqasim81/posmigrate/internal/sqlexec/desktop"
	"github.com/aqasim81/posmigrate/internal/sqlexec/mobile"
	"github.com/aqasim81/posmigrate/internal/sqlexec/postgres"
)

// engine is an opened executor plus what the runner needs to drive it.
type engine struct {
	name    string
	exec    sqlexec.Executor
	dialect ledger.Dialect
	lock    runner.LockFunc
	close   func() error
}

// Close releases the engine's connection.
func (e *engine) Close() error {
	if e.close == nil {
		return nil
	}

	return e.close()
}

// openEngine opens the executor selected by cfg.Engine.
func openEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine, error) {
	logger = logger.With(slog.String("engine", cfg.Engine))

	switch cfg.Engine {
	case config.EngineDesktop:
		return openDesktop(ctx, cfg, logger)
	case config.EngineMobile:
		return openMobile(cfg, logger)
	case config.EngineBrowser:
		return openBrowser(cfg, logger)
	case config.EnginePostgres:
		return openPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownEngine, cfg.Engine)
	}
}

func openDesktop(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine, error) {
	db, err := database.OpenSQLite(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening desktop database: %w", err)
	}

	opts := []desktop.Option{desktop.WithLogger(logger)}
	if cfg.TransactionalBatch {
		opts = append(opts, desktop.WithTransactionalBatch())
	}

	return &engine{
		name:    config.EngineDesktop,
		exec:    desktop.New(db, opts...),
		dialect: ledger.SQLite,
		close:   db.Close,
	}, nil
}

func openMobile(cfg *config.Config, logger *slog.Logger) (*engine, error) {
	conn, err := database.OpenSQLiteConn(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening mobile database: %w", err)
	}

	opts := []mobile.Option{mobile.WithLogger(logger)}
	if cfg.TransactionalBatch {
		opts = append(opts, mobile.WithTransactionalBatch())
	}

	return &engine{
		name:    config.EngineMobile,
		exec:    mobile.New(conn, opts...),
		dialect: ledger.SQLite,
		close:   conn.Close,
	}, nil
}

func openBrowser(cfg *config.Config, logger *slog.Logger) (*engine, error) {
	opts := []browser.Option{browser.WithLogger(logger)}
	if cfg.TransactionalBatch {
		opts = append(opts, browser.WithTransactionalBatch())
	}

	exec, err := browser.Open(opts...)
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	return &engine{
		name:    config.EngineBrowser,
		exec:    exec,
		dialect: ledger.SQLite,
		close:   exec.Close,
	}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine, error) {
	logger.Info("connecting", slog.String("database_url", config.RedactDSN(cfg.DatabaseURL)))

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	opts := []postgres.Option{
		postgres.WithLogger(logger),
		postgres.WithLockTimeout(cfg.LockTimeout),
		postgres.WithStatementTimeout(cfg.StatementTimeout),
	}
	if cfg.TransactionalBatch {
		opts = append(opts, postgres.WithTransactionalBatch())
	}

	return &engine{
		name:    config.EnginePostgres,
		exec:    postgres.New(pool, opts...),
		dialect: ledger.Postgres,
		lock:    advisoryLock(pool, database.LockKey(cfg.LedgerTable)),
		close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

// advisoryLock adapts database.TryAcquireLock to runner.LockFunc. The handle is only
// converted to the interface on success so a failed attempt never yields a typed nil.
func advisoryLock(pool *pgxpool.Pool, key int64) runner.LockFunc {
	return func(ctx context.Context) (runner.Releaser, error) {
		h, err := database.TryAcquireLock(ctx, pool, key)
		if err != nil {
			return nil, err
		}

		return h, nil
	}
}

// newRunner builds a runner over the registry configured for eng.
func newRunner(cfg *config.Config, eng *engine, migrations []migration.Migration, opts ...runner.Option) (*runner.Runner, error) {
	l, err := newLedger(cfg, eng)
	if err != nil {
		return nil, err
	}

	base := []runner.Option{
		runner.WithLedger(l),
		runner.WithLogger(Logger),
	}

	if eng.lock != nil {
		base = append(base, runner.WithLock(eng.lock))
	}

	if !cfg.StrictParsing {
		base = append(base, runner.WithLenientParsing())
	}

	return runner.New(migrations, append(base, opts...)...), nil
}

func newLedger(cfg *config.Config, eng *engine) (*ledger.Ledger, error) {
	l, err := ledger.New(ledger.WithTable(cfg.LedgerTable), ledger.WithDialect(eng.dialect))
	if err != nil {
		return nil, fmt.Errorf("configuring ledger: %w", err)
	}

	return l, nil
}

// routesFor returns the routing table the named engine uses, for display.
func routesFor(name string) sqlexec.RoutingTable {
	switch name {
	case config.EngineDesktop:
		return sqlexec.DesktopRoutes
	case config.EnginePostgres:
		return sqlexec.PostgresRoutes
	default:
		return sqlexec.DefaultRoutes
	}
}

// loadMigrations loads the registry from dir. An empty registry is not an error.
func loadMigrations(dir string) ([]migration.Migration, error) {
	migrations, err := migration.LoadFromDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}

	return migrations, nil
}

func dialectFor(name string) ledger.Dialect {
	if name == config.EnginePostgres {
		return ledger.Postgres
	}

	return ledger.SQLite
}
