package config

import (
	"fmt"
	"slices"
)

var (
	engines    = []string{EngineDesktop, EngineMobile, EngineBrowser, EnginePostgres} //nolint:gochecknoglobals // fixed set
	logLevels  = []string{"debug", "info", "warn", "error"}                           //nolint:gochecknoglobals // fixed set
	logFormats = []string{"text", "json"}                                             //nolint:gochecknoglobals // fixed set
)

// Validate reports the first setting that cannot be used to open an engine.
func (c *Config) Validate() error {
	if !slices.Contains(engines, c.Engine) {
		return fmt.Errorf("%w: %q (want one of %v)", ErrUnknownEngine, c.Engine, engines)
	}

	switch c.Engine {
	case EngineDesktop, EngineMobile:
		if c.DatabasePath == "" {
			return fmt.Errorf("engine %s: %w", c.Engine, ErrMissingDatabasePath)
		}
	case EnginePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("engine %s: %w", c.Engine, ErrMissingDatabaseURL)
		}
	}

	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}

	if !slices.Contains(logFormats, c.LogFormat) {
		return fmt.Errorf("%w: log format %q", ErrInvalidFormat, c.LogFormat)
	}

	if !slices.Contains(logFormats, c.Format) {
		return fmt.Errorf("%w: output format %q", ErrInvalidFormat, c.Format)
	}

	if c.LockTimeout < 0 || c.StatementTimeout < 0 {
		return ErrNegativeTimeout
	}

	return nil
}
