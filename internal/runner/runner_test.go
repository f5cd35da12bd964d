package runner_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/posmigrate/internal/ledger"
	"github.com/aqasim81/posmigrate/internal/migration"
	"github.com/aqasim81/posmigrate/internal/parser"
	"github.com/aqasim81/posmigrate/internal/runner"
	"github.com/aqasim81/posmigrate/internal/sqlexec"
	"github.com/aqasim81/posmigrate/internal/sqlexec/browser"
)

// spyExecutor records every batch and fails the batch containing failOn.
type spyExecutor struct {
	versions []string
	batches  [][]string
	failOn   string
	readErr  error
}

func (s *spyExecutor) ExecuteSQL(context.Context, string, ...any) (*sqlexec.Result, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}

	if s.versions == nil {
		return nil, fmt.Errorf("spy: %w", sqlexec.ErrMissingTable)
	}

	rows := make([]sqlexec.Row, len(s.versions))
	for i, v := range s.versions {
		rows[i] = sqlexec.Row{"version": v}
	}

	return &sqlexec.Result{Rows: rows}, nil
}

func (s *spyExecutor) ExecuteBatch(_ context.Context, statements []string) error {
	s.batches = append(s.batches, statements)

	for _, stmt := range statements {
		if s.failOn != "" && strings.Contains(stmt, s.failOn) {
			return errors.New("spy: forced failure")
		}
	}

	return nil
}

func registry() []migration.Migration {
	return []migration.Migration{
		{Version: "001", Description: "create products", SQL: "CREATE TABLE products (id INTEGER PRIMARY KEY, name TEXT);"},
		{Version: "002", Description: "seed products", SQL: "INSERT INTO products (id, name) VALUES (1, 'cola');\nINSERT INTO products (id, name) VALUES (2, 'chips');"},
		{Version: "003", Description: "add price", SQL: "ALTER TABLE products ADD COLUMN price REAL;"},
	}
}

func openBrowser(t *testing.T) *browser.Executor {
	t.Helper()

	exec, err := browser.Open()
	require.NoError(t, err)

	t.Cleanup(func() { exec.Close() })

	return exec
}

func TestRun_freshDatabase_appliesEverythingOneBatchEach(t *testing.T) {
	t.Parallel()

	spy := &spyExecutor{}

	report, err := runner.New(registry()).Run(context.Background(), spy)

	require.NoError(t, err)
	assert.Equal(t, []string{"001", "002", "003"}, report.Applied)
	assert.Empty(t, report.Skipped)
	require.Len(t, spy.batches, 3)

	// Migration statements come first, then the ledger bootstrap and insert.
	assert.Equal(t, "INSERT INTO products (id, name) VALUES (1, 'cola');", spy.batches[1][0])
	assert.Equal(t, "INSERT INTO products (id, name) VALUES (2, 'chips');", spy.batches[1][1])
	assert.Contains(t, spy.batches[1][2], "CREATE TABLE IF NOT EXISTS schema_migrations")
	assert.Contains(t, spy.batches[1][3], "'002'")
}

func TestRun_appliedVersionsAreSkipped(t *testing.T) {
	t.Parallel()

	spy := &spyExecutor{versions: []string{"001", "002"}}

	report, err := runner.New(registry()).Run(context.Background(), spy)

	require.NoError(t, err)
	assert.Equal(t, []string{"003"}, report.Applied)
	assert.Equal(t, []string{"001", "002"}, report.Skipped)
	require.Len(t, spy.batches, 1)
}

func TestRun_failure_stopsAndNamesMigration(t *testing.T) {
	t.Parallel()

	spy := &spyExecutor{failOn: "'chips'"}

	report, err := runner.New(registry()).Run(context.Background(), spy)

	require.ErrorIs(t, err, runner.ErrMigrationFailed)
	assert.Nil(t, report)

	var migErr *runner.MigrationError
	require.ErrorAs(t, err, &migErr)
	assert.Equal(t, "002", migErr.Version)
	assert.Equal(t, "seed products", migErr.Description)
	assert.Contains(t, err.Error(), "002 (seed products)")

	// 003 was never attempted.
	assert.Len(t, spy.batches, 2)
}

func TestRun_ledgerReadError_propagates(t *testing.T) {
	t.Parallel()

	busy := errors.New("database is locked")
	spy := &spyExecutor{readErr: busy}

	_, err := runner.New(registry()).Run(context.Background(), spy)

	require.ErrorIs(t, err, busy)
	assert.Empty(t, spy.batches)
}

func TestRun_invalidRegistry_runsNothing(t *testing.T) {
	t.Parallel()

	spy := &spyExecutor{}
	bad := []migration.Migration{
		{Version: "002", Description: "b", SQL: "SELECT 1;"},
		{Version: "001", Description: "a", SQL: "SELECT 1;"},
	}

	_, err := runner.New(bad).Run(context.Background(), spy)

	require.ErrorIs(t, err, migration.ErrOutOfOrder)
	assert.Empty(t, spy.batches)
}

func TestRun_unbalancedTrigger_failsInStrictMode(t *testing.T) {
	t.Parallel()

	spy := &spyExecutor{}
	migrations := []migration.Migration{
		{Version: "001", Description: "broken trigger", SQL: "CREATE TRIGGER t AFTER INSERT ON a\nBEGIN\n  SELECT 1;\n"},
	}

	_, err := runner.New(migrations).Run(context.Background(), spy)

	require.ErrorIs(t, err, parser.ErrUnbalancedBlock)
	require.ErrorIs(t, err, runner.ErrMigrationFailed)
	assert.Empty(t, spy.batches)

	report, err := runner.New(migrations, runner.WithLenientParsing()).Run(context.Background(), spy)
	require.NoError(t, err)
	assert.Equal(t, []string{"001"}, report.Applied)
}

func TestRun_dryRun_executesNothing(t *testing.T) {
	t.Parallel()

	spy := &spyExecutor{versions: []string{"001"}}

	var events []runner.ProgressEvent

	report, err := runner.New(registry(),
		runner.WithDryRun(true),
		runner.WithProgressCallback(func(e runner.ProgressEvent) { events = append(events, e) }),
	).Run(context.Background(), spy)

	require.NoError(t, err)
	assert.Empty(t, spy.batches)
	assert.Empty(t, report.Applied)
	assert.Equal(t, []string{"001"}, report.Skipped)
	assert.Equal(t, []string{"002", "003"}, report.Pending)
	require.Len(t, events, 3)

	for _, e := range events {
		assert.Equal(t, runner.StatusSkipped, e.Status)
	}
}

func TestRun_progressEvents(t *testing.T) {
	t.Parallel()

	spy := &spyExecutor{versions: []string{"001"}, failOn: "ALTER TABLE"}

	var statuses []string

	_, err := runner.New(registry(),
		runner.WithProgressCallback(func(e runner.ProgressEvent) {
			statuses = append(statuses, e.Migration.Version+":"+e.Status)
		}),
	).Run(context.Background(), spy)

	require.Error(t, err)
	assert.Equal(t, []string{
		"001:skipped",
		"002:starting", "002:completed",
		"003:starting", "003:failed",
	}, statuses)
}

func TestRun_withoutLedgerRecording_sendsOnlyMigrationStatements(t *testing.T) {
	t.Parallel()

	spy := &spyExecutor{}

	_, err := runner.New(registry()[:1], runner.WithoutLedgerRecording()).Run(context.Background(), spy)

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"CREATE TABLE products (id INTEGER PRIMARY KEY, name TEXT);"}}, spy.batches)
}

func TestRun_customLedgerTable(t *testing.T) {
	t.Parallel()

	l, err := ledger.New(ledger.WithTable("pos_migrations"))
	require.NoError(t, err)

	spy := &spyExecutor{}

	_, err = runner.New(registry()[:1], runner.WithLedger(l)).Run(context.Background(), spy)

	require.NoError(t, err)
	assert.Contains(t, spy.batches[0][1], "pos_migrations")
}

func TestPending_listsUnrecordedMigrations(t *testing.T) {
	t.Parallel()

	pending, err := runner.New(registry()).Pending(context.Background(), &spyExecutor{versions: []string{"001", "003"}})

	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "002", pending[0].Version)
}

func TestRun_endToEnd_productsAndLedger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	exec := openBrowser(t)

	migrations := []migration.Migration{
		{
			Version:     "001",
			Description: "create products",
			SQL: `-- products catalogue
CREATE TABLE products (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    updated_at DATETIME
);
CREATE TABLE product_audit (product_id INTEGER NOT NULL);
CREATE TRIGGER trg_products_updated
AFTER UPDATE ON products
FOR EACH ROW
BEGIN
    UPDATE products SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id AND updated_at IS NULL;
    INSERT INTO product_audit (product_id) VALUES (NEW.id);
END;`,
		},
		{
			Version:     "002",
			Description: "seed products",
			SQL:         "INSERT INTO products (id, name) VALUES (1, 'cola'); INSERT INTO products (id, name) VALUES (2, 'chips');",
		},
	}

	report, err := runner.New(migrations).Run(ctx, exec)
	require.NoError(t, err)
	assert.Equal(t, []string{"001", "002"}, report.Applied)

	res, err := exec.ExecuteSQL(ctx, "SELECT COUNT(*) AS n FROM products")
	require.NoError(t, err)
	assert.Equal(t, []sqlexec.Row{{"n": int64(2)}}, res.Rows)

	_, err = exec.ExecuteSQL(ctx, "UPDATE products SET name = ? WHERE id = ?", "cola zero", 1)
	require.NoError(t, err)

	res, err = exec.ExecuteSQL(ctx, "SELECT product_id FROM product_audit")
	require.NoError(t, err)
	assert.Equal(t, []sqlexec.Row{{"product_id": int64(1)}}, res.Rows)

	l, err := ledger.New()
	require.NoError(t, err)

	versions, err := l.AppliedVersions(ctx, exec)
	require.NoError(t, err)
	assert.Equal(t, []string{"001", "002"}, versions)

	// Second run is a no-op.
	report, err = runner.New(migrations).Run(ctx, exec)
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
	assert.Equal(t, []string{"001", "002"}, report.Skipped)
}

func TestRun_migrationWritingOwnLedgerRow_isNotDuplicated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	exec := openBrowser(t)

	migrations := []migration.Migration{
		{
			Version:     "001",
			Description: "init",
			SQL: `CREATE TABLE IF NOT EXISTS schema_migrations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    version TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL,
    applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
INSERT INTO schema_migrations (version, description) VALUES ('001', 'init');`,
		},
	}

	_, err := runner.New(migrations).Run(ctx, exec)
	require.NoError(t, err)

	res, err := exec.ExecuteSQL(ctx, "SELECT COUNT(*) AS n FROM schema_migrations")
	require.NoError(t, err)
	assert.Equal(t, []sqlexec.Row{{"n": int64(1)}}, res.Rows)
}
