package ledger

import (
	"fmt"
	"strings"
)

// DefaultTable is the ledger table name used when none is configured.
const DefaultTable = "schema_migrations"

// Dialect selects the SQL flavour of the ledger DDL and inserts.
type Dialect int

const (
	// SQLite targets every embedded engine.
	SQLite Dialect = iota
	// Postgres targets the pgx engine.
	Postgres
)

// String returns the dialect name.
func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}

	return "sqlite"
}

func (d Dialect) createTableSQL(table string) string {
	if d == Postgres {
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id          BIGSERIAL PRIMARY KEY,
    version     TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL,
    applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`, table)
	}

	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    version     TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL,
    applied_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`, table)
}

func (d Dialect) insertSQL(table, version, description string) string {
	values := fmt.Sprintf("(%s, %s)", quote(version), quote(description))

	if d == Postgres {
		return fmt.Sprintf("INSERT INTO %s (version, description) VALUES %s ON CONFLICT (version) DO NOTHING;", table, values)
	}

	return fmt.Sprintf("INSERT OR IGNORE INTO %s (version, description) VALUES %s;", table, values)
}

// quote renders s as a SQL string literal. Ledger inserts travel on the direct path of
// some engines, so they cannot use bound parameters.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
