// Package runner applies a migration registry to any sqlexec.Executor: it reads the
// ledger, skips what is already applied, and runs each pending migration as one batch.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aqasim81/posmigrate/internal/ledger"
	"github.com/aqasim81/posmigrate/internal/migration"
	"github.com/aqasim81/posmigrate/internal/parser"
	"github.com/aqasim81/posmigrate/internal/sqlexec"
)

// Progress status constants reported via ProgressEvent.
const (
	StatusStarting  = "starting"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// ProgressEvent is emitted for each migration processed.
type ProgressEvent struct {
	Migration *migration.Migration
	Status    string
	Duration  time.Duration
	Error     error
}

// Report summarizes a successful run.
type Report struct {
	Applied []string
	Skipped []string
	// Pending lists the versions a dry run would have applied.
	Pending []string
}

// Releaser is returned by a lock function and released when the run ends.
type Releaser interface {
	Release(ctx context.Context) error
}

// LockFunc acquires an exclusive migration lock.
type LockFunc func(ctx context.Context) (Releaser, error)

// splitFunc turns a migration script into statements.
type splitFunc func(sql string) ([]string, error)

// Runner applies migrations in registry order.
type Runner struct {
	migrations []migration.Migration
	ledger     *ledger.Ledger
	logger     *slog.Logger
	onProgress func(ProgressEvent)
	acquire    LockFunc
	split      splitFunc
	dryRun     bool
	record     bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLedger sets the ledger the runner reads and records to.
func WithLedger(l *ledger.Ledger) Option {
	return func(r *Runner) { r.ledger = l }
}

// WithLogger sets the logger for run progress.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithProgressCallback sets a function called for each migration processed.
func WithProgressCallback(fn func(ProgressEvent)) Option {
	return func(r *Runner) { r.onProgress = fn }
}

// WithDryRun parses pending migrations and reports them without executing anything.
func WithDryRun(b bool) Option {
	return func(r *Runner) { r.dryRun = b }
}

// WithLock sets the function that acquires a migration lock for the duration of Run.
func WithLock(fn LockFunc) Option {
	return func(r *Runner) { r.acquire = fn }
}

// WithLenientParsing accepts scripts whose BEGIN/END blocks do not balance.
func WithLenientParsing() Option {
	return func(r *Runner) {
		r.split = func(sql string) ([]string, error) { return parser.Split(sql), nil }
	}
}

// WithoutLedgerRecording stops the runner from appending ledger statements to each
// batch. Migrations are then expected to record themselves.
func WithoutLedgerRecording() Option {
	return func(r *Runner) { r.record = false }
}

// New creates a Runner for the given registry.
func New(migrations []migration.Migration, opts ...Option) *Runner {
	r := &Runner{
		migrations: migrations,
		logger:     sqlexec.DiscardLogger(),
		split:      parser.SplitStrict,
		record:     true,
	}

	for _, opt := range opts {
		opt(r)
	}

	// Defaults for the collaborators are filled after options so tests can override them.
	if r.ledger == nil {
		r.ledger, _ = ledger.New() //nolint:errcheck // the default table name is valid
	}

	if r.acquire == nil {
		r.acquire = func(context.Context) (Releaser, error) { return noopReleaser{}, nil }
	}

	return r
}

// Run applies every pending migration in registry order. It stops at the first failure
// and returns a *MigrationError; earlier migrations stay applied.
func (r *Runner) Run(ctx context.Context, exec sqlexec.Executor) (*Report, error) {
	if err := migration.Validate(r.migrations); err != nil {
		return nil, fmt.Errorf("validating registry: %w", err)
	}

	lock, err := r.acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring migration lock: %w", err)
	}
	defer lock.Release(ctx) //nolint:errcheck // best-effort release on return

	state, err := r.ledger.Read(ctx, exec)
	if err != nil {
		return nil, err
	}

	if !state.Initialized {
		r.logger.InfoContext(ctx, "ledger not found, treating database as fresh",
			slog.String("table", r.ledger.Table()))
	}

	report := &Report{}

	for i := range r.migrations {
		m := &r.migrations[i]

		if state.Applied(m.Version) {
			report.Skipped = append(report.Skipped, m.Version)
			r.fireProgress(ProgressEvent{Migration: m, Status: StatusSkipped})

			continue
		}

		if err := r.applyOne(ctx, exec, m, report); err != nil {
			return nil, err
		}
	}

	r.logger.InfoContext(ctx, "migrations finished",
		slog.Int("applied", len(report.Applied)),
		slog.Int("skipped", len(report.Skipped)),
		slog.Int("pending", len(report.Pending)),
	)

	return report, nil
}

// Pending returns the registry entries not yet recorded in the ledger.
func (r *Runner) Pending(ctx context.Context, exec sqlexec.Executor) ([]migration.Migration, error) {
	state, err := r.ledger.Read(ctx, exec)
	if err != nil {
		return nil, err
	}

	var pending []migration.Migration

	for _, m := range r.migrations {
		if !state.Applied(m.Version) {
			pending = append(pending, m)
		}
	}

	return pending, nil
}

// Statements returns the batch Run would execute for m.
func (r *Runner) Statements(m migration.Migration) ([]string, error) {
	stmts, err := r.split(m.SQL)
	if err != nil {
		return nil, fmt.Errorf("parsing migration %s: %w", m.Version, err)
	}

	if r.record {
		stmts = append(stmts, r.ledger.RecordStatements(m.Version, m.Description)...)
	}

	return stmts, nil
}

// applyOne parses, executes, and reports a single pending migration.
func (r *Runner) applyOne(ctx context.Context, exec sqlexec.Executor, m *migration.Migration, report *Report) error {
	stmts, err := r.Statements(*m)
	if err != nil {
		r.fireProgress(ProgressEvent{Migration: m, Status: StatusFailed, Error: err})

		return &MigrationError{Version: m.Version, Description: m.Description, Err: err}
	}

	if r.dryRun {
		report.Pending = append(report.Pending, m.Version)
		r.fireProgress(ProgressEvent{Migration: m, Status: StatusSkipped})

		return nil
	}

	r.fireProgress(ProgressEvent{Migration: m, Status: StatusStarting})
	r.logger.InfoContext(ctx, "applying migration",
		slog.String("version", m.Version),
		slog.String("description", m.Description),
		slog.Int("statements", len(stmts)),
	)

	start := time.Now()
	execErr := exec.ExecuteBatch(ctx, stmts)
	duration := time.Since(start)

	if execErr != nil {
		r.fireProgress(ProgressEvent{
			Migration: m,
			Status:    StatusFailed,
			Duration:  duration,
			Error:     execErr,
		})

		r.logger.ErrorContext(ctx, "migration failed",
			slog.String("version", m.Version),
			slog.Any("error", execErr),
		)

		return &MigrationError{Version: m.Version, Description: m.Description, Err: execErr}
	}

	report.Applied = append(report.Applied, m.Version)

	r.fireProgress(ProgressEvent{
		Migration: m,
		Status:    StatusCompleted,
		Duration:  duration,
	})

	return nil
}

func (r *Runner) fireProgress(event ProgressEvent) {
	if r.onProgress != nil {
		r.onProgress(event)
	}
}

type noopReleaser struct{}

func (noopReleaser) Release(context.Context) error { return nil }
