package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const (
	sqliteDriver       = "sqlite"
	memoryPath         = ":memory:"
	defaultBusyTimeout = 5 * time.Second
)

// pragma is one connection setting applied right after opening a SQLite database.
type pragma struct {
	name  string
	value string
}

func sqlitePragmas(path string) []pragma {
	pragmas := []pragma{
		{"busy_timeout", fmt.Sprintf("%d", defaultBusyTimeout.Milliseconds())},
		{"foreign_keys", "ON"},
	}

	if !isMemory(path) {
		pragmas = append(pragmas, pragma{"journal_mode", "WAL"})
	}

	return pragmas
}

func (p pragma) String() string {
	return fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)
}

func isMemory(path string) bool {
	return path == memoryPath || strings.Contains(path, "mode=memory") || path == "file::memory:"
}

// OpenSQLite opens a SQLite database file through database/sql for the desktop engine.
// The pool is limited to one connection: SQLite serializes writers anyway, and an
// in-memory database exists only on the connection that created it.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrInvalidDatabasePath
	}

	db, err := sql.Open(sqliteDriver, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	db.SetMaxOpenConns(1)

	for _, p := range sqlitePragmas(path) {
		if _, err := db.ExecContext(ctx, p.String()); err != nil {
			db.Close()

			return nil, fmt.Errorf("setting PRAGMA %s: %w", p.name, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return db, nil
}

// OpenSQLiteConn opens a single zombiezen connection for the mobile engine.
func OpenSQLiteConn(path string) (*sqlite.Conn, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrInvalidDatabasePath
	}

	flags := sqlite.OpenReadWrite | sqlite.OpenCreate | sqlite.OpenURI
	if isMemory(path) {
		flags |= sqlite.OpenMemory
	}

	conn, err := sqlite.OpenConn(path, flags)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	for _, p := range sqlitePragmas(path) {
		if err := sqlitex.ExecuteTransient(conn, p.String(), nil); err != nil {
			conn.Close()

			return nil, fmt.Errorf("setting PRAGMA %s: %w", p.name, err)
		}
	}

	return conn, nil
}
