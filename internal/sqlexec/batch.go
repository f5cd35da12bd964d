package sqlexec

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// StatementFunc runs one statement of a batch.
type StatementFunc func(ctx context.Context, stmt string) error

// RunBatch calls fn for each statement in order and stops at the first failure. The
// failing statement is logged through logger and returned as a *StatementError. A
// cancelled ctx stops the batch before the next statement starts.
func RunBatch(ctx context.Context, engine string, logger *slog.Logger, statements []string, fn StatementFunc) error {
	for i, stmt := range statements {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: batch interrupted before statement %d: %w", engine, i+1, err)
		}

		if err := fn(ctx, stmt); err != nil {
			short := Truncate(stmt, DefaultTruncateLen)

			logger.ErrorContext(ctx, "statement failed",
				slog.String("engine", engine),
				slog.Int("index", i),
				slog.String("sql", short),
				slog.Any("error", err),
			)

			return &StatementError{Engine: engine, Index: i, Statement: short, Err: err}
		}
	}

	return nil
}

// DiscardLogger returns a logger that drops every record. Adapters use it until
// a logger option is given.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
