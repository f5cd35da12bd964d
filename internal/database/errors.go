package database

import "errors"

var (
	// ErrInvalidDatabaseURL indicates the Postgres connection string could not be parsed.
	ErrInvalidDatabaseURL = errors.New("invalid database URL")

	// ErrConnectionFailed indicates the database could not be opened or did not answer a ping.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrLockNotAcquired indicates another runner holds the migration lock for this ledger.
	ErrLockNotAcquired = errors.New("migration lock not acquired")

	// ErrInvalidDatabasePath indicates an empty SQLite database path.
	ErrInvalidDatabasePath = errors.New("invalid database path")
)
