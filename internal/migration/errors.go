package migration

import "errors"

// ErrEmptyVersion indicates a migration without a version string.
var ErrEmptyVersion = errors.New("migration version is empty")

// ErrDuplicateVersion indicates two migrations share a version.
var ErrDuplicateVersion = errors.New("duplicate migration version")

// ErrOutOfOrder indicates registry order disagrees with version order.
var ErrOutOfOrder = errors.New("migration registry out of version order")

// ErrInvalidFilename indicates a .sql file that does not follow {version}_{description}.sql.
var ErrInvalidFilename = errors.New("invalid migration filename")

// ErrEmptyMigration indicates a migration file without any SQL.
var ErrEmptyMigration = errors.New("migration file is empty")
