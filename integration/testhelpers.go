//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aqasim81/posmigrate/internal/database"
	"github.com/aqasim81/posmigrate/internal/ledger"
	"github.com/aqasim81/posmigrate/internal/migration"
)

const (
	postgresImage = "postgres:16-alpine"
	testDB        = "posmigrate_test"
	testUser      = "posmigrate"
	testPassword  = "posmigrate"
)

// SetupPostgresDSN starts a PostgreSQL 16 container and returns its connection string.
// The container is terminated when the test completes.
func SetupPostgresDSN(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       testDB,
			"POSTGRES_USER":     testUser,
			"POSTGRES_PASSWORD": testPassword,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return "postgres://" + testUser + ":" + testPassword + "@" + host + ":" + port.Port() + "/" + testDB + "?sslmode=disable"
}

// SetupPostgres starts a container and returns a pool opened the way the CLI opens one.
func SetupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := database.NewPool(context.Background(), SetupPostgresDSN(t))
	require.NoError(t, err)

	t.Cleanup(pool.Close)

	return pool
}

// postgresLedger returns the default ledger in the Postgres dialect.
func postgresLedger(t *testing.T) *ledger.Ledger {
	t.Helper()

	l, err := ledger.New(ledger.WithDialect(ledger.Postgres))
	require.NoError(t, err)

	return l
}

func makeMigrations() []migration.Migration {
	return []migration.Migration{
		{
			Version:     "001",
			Description: "create products",
			SQL:         "CREATE TABLE products (id SERIAL PRIMARY KEY, name TEXT NOT NULL);",
		},
		{
			Version:     "002",
			Description: "create sales",
			SQL: `CREATE TABLE sales (id SERIAL PRIMARY KEY, product_id INTEGER REFERENCES products(id), total_cents INTEGER);
CREATE INDEX idx_sales_product ON sales (product_id);`,
		},
		{
			Version:     "003",
			Description: "seed products",
			SQL:         "INSERT INTO products (name) VALUES ('Espresso');\nINSERT INTO products (name) VALUES ('Flat white');",
		},
	}
}
