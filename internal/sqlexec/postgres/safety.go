package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// timeoutSQL renders a SET LOCAL for a timeout setting. SET LOCAL ends with the
// transaction, so pooled connections come back with their defaults.
func timeoutSQL(setting string, d time.Duration) string {
	return fmt.Sprintf("SET LOCAL %s = '%dms'", setting, d.Milliseconds())
}

// applyTimeouts sets lock_timeout and statement_timeout for the rest of tx. Zero
// durations leave the server defaults in place.
func applyTimeouts(ctx context.Context, tx pgx.Tx, lockTimeout, statementTimeout time.Duration) error {
	if lockTimeout > 0 {
		if _, err := tx.Exec(ctx, timeoutSQL("lock_timeout", lockTimeout)); err != nil {
			return fmt.Errorf("setting lock_timeout: %w", err)
		}
	}

	if statementTimeout > 0 {
		if _, err := tx.Exec(ctx, timeoutSQL("statement_timeout", statementTimeout)); err != nil {
			return fmt.Errorf("setting statement_timeout: %w", err)
		}
	}

	return nil
}
