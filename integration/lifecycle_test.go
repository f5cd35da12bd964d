//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/posmigrate/internal/database"
	"github.com/aqasim81/posmigrate/internal/migration"
	"github.com/aqasim81/posmigrate/internal/runner"
	"github.com/aqasim81/posmigrate/internal/sqlexec/postgres"
)

// newRunner wires a runner over pool the way the CLI does for the postgres engine.
func newRunner(t *testing.T, pool *pgxpool.Pool, migrations []migration.Migration, opts ...runner.Option) *runner.Runner {
	t.Helper()

	base := []runner.Option{
		runner.WithLedger(postgresLedger(t)),
		runner.WithLock(func(ctx context.Context) (runner.Releaser, error) {
			h, err := database.TryAcquireLock(ctx, pool, testLockKey)
			if err != nil {
				return nil, err
			}

			return h, nil
		}),
	}

	return runner.New(migrations, append(base, opts...)...)
}

func TestRun_freshDatabase_allRecorded(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	ctx := context.Background()
	exec := postgres.New(pool)

	var events []runner.ProgressEvent

	r := newRunner(t, pool, makeMigrations(), runner.WithProgressCallback(func(e runner.ProgressEvent) {
		events = append(events, e)
	}))

	report, err := r.Run(ctx, exec)
	require.NoError(t, err)
	assert.Equal(t, []string{"001", "002", "003"}, report.Applied)

	versions, err := postgresLedger(t).AppliedVersions(ctx, exec)
	require.NoError(t, err)
	assert.Equal(t, []string{"001", "002", "003"}, versions)

	// 3 starting + 3 completed.
	require.Len(t, events, 6)

	for i := 0; i < 3; i++ {
		assert.Equal(t, runner.StatusStarting, events[i*2].Status)
		assert.Equal(t, runner.StatusCompleted, events[i*2+1].Status)
	}

	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM products").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestRun_secondRun_skipsEverything(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	ctx := context.Background()
	exec := postgres.New(pool)

	_, err := newRunner(t, pool, makeMigrations()).Run(ctx, exec)
	require.NoError(t, err)

	report, err := newRunner(t, pool, makeMigrations()).Run(ctx, exec)
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
	assert.Equal(t, []string{"001", "002", "003"}, report.Skipped)

	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM products").Scan(&count))
	assert.Equal(t, 2, count, "seed rows must not be inserted twice")
}

func TestRun_dryRun_noChanges(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	ctx := context.Background()
	exec := postgres.New(pool)

	report, err := newRunner(t, pool, makeMigrations(), runner.WithDryRun(true)).Run(ctx, exec)
	require.NoError(t, err)
	assert.Equal(t, []string{"001", "002", "003"}, report.Pending)

	state, err := postgresLedger(t).Read(ctx, exec)
	require.NoError(t, err)
	assert.False(t, state.Initialized)
}

func TestRun_advisoryLockHeld_returnsLockNotAcquired(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	ctx := context.Background()

	lock, err := database.TryAcquireLock(ctx, pool, testLockKey)
	require.NoError(t, err)
	defer lock.Release(ctx) //nolint:errcheck // test cleanup

	_, err = newRunner(t, pool, makeMigrations()).Run(ctx, postgres.New(pool))
	require.ErrorIs(t, err, database.ErrLockNotAcquired)
}

func TestRun_lockReleasedAfterCompletion(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	ctx := context.Background()
	exec := postgres.New(pool)

	_, err := newRunner(t, pool, makeMigrations()).Run(ctx, exec)
	require.NoError(t, err)

	_, err = newRunner(t, pool, makeMigrations()).Run(ctx, exec)
	require.NoError(t, err)
}

func TestRun_withTimeoutsInTransaction_succeeds(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	ctx := context.Background()
	exec := postgres.New(pool,
		postgres.WithTransactionalBatch(),
		postgres.WithLockTimeout(10_000_000_000),      // 10s
		postgres.WithStatementTimeout(30_000_000_000), // 30s
	)

	report, err := newRunner(t, pool, makeMigrations()[:1]).Run(ctx, exec)
	require.NoError(t, err)
	assert.Equal(t, []string{"001"}, report.Applied)
}

func TestRun_failedMigration_reportsMigrationError(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	ctx := context.Background()

	migrations := []migration.Migration{{
		Version:     "001",
		Description: "bad reference",
		SQL:         "CREATE TABLE missing_ref (id SERIAL, fk INTEGER REFERENCES nonexistent(id));",
	}}

	var events []runner.ProgressEvent

	r := newRunner(t, pool, migrations, runner.WithProgressCallback(func(e runner.ProgressEvent) {
		events = append(events, e)
	}))

	_, err := r.Run(ctx, postgres.New(pool))
	require.Error(t, err)

	var migErr *runner.MigrationError
	require.ErrorAs(t, err, &migErr)
	assert.Equal(t, "001", migErr.Version)
	assert.Contains(t, err.Error(), "migration failed: 001 (bad reference)")

	require.Len(t, events, 2)
	assert.Equal(t, runner.StatusStarting, events[0].Status)
	assert.Equal(t, runner.StatusFailed, events[1].Status)
	assert.Error(t, events[1].Error)
}

func TestRun_partialFailure_earlierMigrationsRecorded(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	ctx := context.Background()
	exec := postgres.New(pool)

	migrations := []migration.Migration{
		{Version: "001", Description: "good", SQL: "CREATE TABLE widgets (id SERIAL PRIMARY KEY);"},
		{Version: "002", Description: "bad", SQL: "CREATE TABLE bad (id SERIAL, fk INTEGER REFERENCES nonexistent(id));"},
	}

	_, err := newRunner(t, pool, migrations).Run(ctx, exec)
	require.Error(t, err)

	versions, err := postgresLedger(t).AppliedVersions(ctx, exec)
	require.NoError(t, err)
	assert.Equal(t, []string{"001"}, versions)
}

func TestRun_transactionalFailure_rollsBackMigration(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	ctx := context.Background()
	exec := postgres.New(pool, postgres.WithTransactionalBatch())

	migrations := []migration.Migration{{
		Version:     "001",
		Description: "half done",
		SQL:         "CREATE TABLE gadgets (id SERIAL PRIMARY KEY);\nINSERT INTO nonexistent (id) VALUES (1);",
	}}

	_, err := newRunner(t, pool, migrations).Run(ctx, exec)
	require.Error(t, err)

	var exists bool
	require.NoError(t, pool.QueryRow(ctx, "SELECT to_regclass('gadgets') IS NOT NULL").Scan(&exists))
	assert.False(t, exists)

	state, err := postgresLedger(t).Read(ctx, exec)
	require.NoError(t, err)
	assert.False(t, state.Applied("001"))
}

func TestRun_emptyRegistry_succeeds(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)

	report, err := newRunner(t, pool, []migration.Migration{}).Run(context.Background(), postgres.New(pool))
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
}

func TestRun_concurrentRuns_oneSucceeds(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	ctx := context.Background()

	var wg sync.WaitGroup

	errs := make([]error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)

		go func(idx int) {
			defer wg.Done()

			_, errs[idx] = newRunner(t, pool, makeMigrations()).Run(ctx, postgres.New(pool))
		}(i)
	}

	wg.Wait()

	// At least one should succeed; the other may get ErrLockNotAcquired.
	successes := 0

	for _, err := range errs {
		if err == nil {
			successes++
		}
	}

	assert.GreaterOrEqual(t, successes, 1)
}
