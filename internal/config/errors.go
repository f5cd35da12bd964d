package config

import "errors"

// ErrUnknownEngine indicates an engine name outside the supported set.
var ErrUnknownEngine = errors.New("unknown engine")

// ErrMissingDatabasePath indicates a file-backed engine without a database path.
var ErrMissingDatabasePath = errors.New("database path is required")

// ErrMissingDatabaseURL indicates the postgres engine without a connection URL.
var ErrMissingDatabaseURL = errors.New("database URL is required")

// ErrInvalidLogLevel indicates an unsupported log level.
var ErrInvalidLogLevel = errors.New("invalid log level")

// ErrInvalidFormat indicates an unsupported log or output format.
var ErrInvalidFormat = errors.New("invalid format")

// ErrNegativeTimeout indicates a negative lock or statement timeout.
var ErrNegativeTimeout = errors.New("timeouts must not be negative")
