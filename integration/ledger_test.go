//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/posmigrate/internal/ledger"
	"github.com/aqasim81/posmigrate/internal/sqlexec/postgres"
)

func TestLedger_postgresLifecycle(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	ctx := context.Background()
	exec := postgres.New(pool)
	l := postgresLedger(t)

	// A missing table reads as a fresh database.
	state, err := l.Read(ctx, exec)
	require.NoError(t, err)
	assert.False(t, state.Initialized)

	records, err := l.Records(ctx, exec)
	require.NoError(t, err)
	assert.Empty(t, records)

	// Ensure is idempotent.
	require.NoError(t, l.Ensure(ctx, exec))
	require.NoError(t, l.Ensure(ctx, exec))

	state, err = l.Read(ctx, exec)
	require.NoError(t, err)
	assert.True(t, state.Initialized)
	assert.Empty(t, state.Versions)

	// Recording twice leaves one row.
	require.NoError(t, exec.ExecuteBatch(ctx, l.RecordStatements("001", "create products")))
	require.NoError(t, exec.ExecuteBatch(ctx, l.RecordStatements("001", "create products")))
	require.NoError(t, exec.ExecuteBatch(ctx, l.RecordStatements("002", "owner's notes")))

	versions, err := l.AppliedVersions(ctx, exec)
	require.NoError(t, err)
	assert.Equal(t, []string{"001", "002"}, versions)

	records, err = l.Records(ctx, exec)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "create products", records[0].Description)
	assert.Equal(t, "owner's notes", records[1].Description)
	assert.False(t, records[0].AppliedAt.IsZero())
}

func TestLedger_customTable_isolated(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	ctx := context.Background()
	exec := postgres.New(pool)

	custom, err := ledger.New(ledger.WithTable("till_migrations"), ledger.WithDialect(ledger.Postgres))
	require.NoError(t, err)

	require.NoError(t, exec.ExecuteBatch(ctx, custom.RecordStatements("001", "init")))

	state, err := postgresLedger(t).Read(ctx, exec)
	require.NoError(t, err)
	assert.False(t, state.Initialized)

	state, err = custom.Read(ctx, exec)
	require.NoError(t, err)
	assert.True(t, state.Applied("001"))
}
