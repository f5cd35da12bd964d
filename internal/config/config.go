package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine names accepted in configuration.
const (
	EngineDesktop  = "desktop"
	EngineMobile   = "mobile"
	EngineBrowser  = "browser"
	EnginePostgres = "postgres"
)

// Default values for configuration fields.
const (
	DefaultFile             = "posmigrate.yml"
	DefaultEngine           = EngineDesktop
	DefaultDatabasePath     = "./pos.db"
	DefaultMigrationsDir    = "./migrations"
	DefaultLedgerTable      = "schema_migrations"
	DefaultLockTimeout      = 5 * time.Second
	DefaultStatementTimeout = 30 * time.Second
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultFormat           = "text"
)

// envPrefix prefixes every environment override.
const envPrefix = "POSMIGRATE_"

// Config holds the application configuration loaded from file, environment, and flags.
type Config struct {
	Engine             string
	DatabasePath       string
	DatabaseURL        string
	MigrationsDir      string
	LedgerTable        string
	TransactionalBatch bool
	StrictParsing      bool
	LockTimeout        time.Duration
	StatementTimeout   time.Duration
	LogLevel           string
	LogFormat          string
	Format             string
}

// yamlConfig is the raw YAML file representation with string durations. Booleans are
// pointers so an absent key keeps its default.
type yamlConfig struct {
	Engine             string `yaml:"engine"`
	DatabasePath       string `yaml:"database_path"`
	DatabaseURL        string `yaml:"database_url"`
	MigrationsDir      string `yaml:"migrations_dir"`
	LedgerTable        string `yaml:"ledger_table"`
	TransactionalBatch *bool  `yaml:"transactional_batch"`
	StrictParsing      *bool  `yaml:"strict_parsing"`
	LockTimeout        string `yaml:"lock_timeout"`
	StatementTimeout   string `yaml:"statement_timeout"`
	LogLevel           string `yaml:"log_level"`
	LogFormat          string `yaml:"log_format"`
	Format             string `yaml:"format"`
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		Engine:           DefaultEngine,
		DatabasePath:     DefaultDatabasePath,
		MigrationsDir:    DefaultMigrationsDir,
		LedgerTable:      DefaultLedgerTable,
		StrictParsing:    true,
		LockTimeout:      DefaultLockTimeout,
		StatementTimeout: DefaultStatementTimeout,
		LogLevel:         DefaultLogLevel,
		LogFormat:        DefaultLogFormat,
		Format:           DefaultFormat,
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw)
}

// fromYAML converts the raw YAML representation to a Config with defaults applied.
func fromYAML(raw *yamlConfig) (*Config, error) {
	cfg := New()

	setString(&cfg.Engine, raw.Engine)
	setString(&cfg.DatabasePath, raw.DatabasePath)
	setString(&cfg.DatabaseURL, raw.DatabaseURL)
	setString(&cfg.MigrationsDir, raw.MigrationsDir)
	setString(&cfg.LedgerTable, raw.LedgerTable)
	setString(&cfg.LogLevel, raw.LogLevel)
	setString(&cfg.LogFormat, raw.LogFormat)
	setString(&cfg.Format, raw.Format)

	if raw.TransactionalBatch != nil {
		cfg.TransactionalBatch = *raw.TransactionalBatch
	}

	if raw.StrictParsing != nil {
		cfg.StrictParsing = *raw.StrictParsing
	}

	if raw.LockTimeout != "" {
		d, err := time.ParseDuration(raw.LockTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing lock_timeout %q: %w", raw.LockTimeout, err)
		}

		cfg.LockTimeout = d
	}

	if raw.StatementTimeout != "" {
		d, err := time.ParseDuration(raw.StatementTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing statement_timeout %q: %w", raw.StatementTimeout, err)
		}

		cfg.StatementTimeout = d
	}

	return cfg, nil
}

// MergeEnv overrides config fields from POSMIGRATE_* environment variables.
// Values that do not parse are ignored.
func MergeEnv(cfg *Config) {
	setString(&cfg.Engine, os.Getenv(envPrefix+"ENGINE"))
	setString(&cfg.DatabasePath, os.Getenv(envPrefix+"DATABASE_PATH"))
	setString(&cfg.DatabaseURL, os.Getenv(envPrefix+"DATABASE_URL"))
	setString(&cfg.MigrationsDir, os.Getenv(envPrefix+"MIGRATIONS_DIR"))
	setString(&cfg.LedgerTable, os.Getenv(envPrefix+"LEDGER_TABLE"))
	setString(&cfg.LogLevel, os.Getenv(envPrefix+"LOG_LEVEL"))
	setString(&cfg.LogFormat, os.Getenv(envPrefix+"LOG_FORMAT"))

	if v := os.Getenv(envPrefix + "TRANSACTIONAL_BATCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.TransactionalBatch = b
		}
	}

	if v := os.Getenv(envPrefix + "STRICT_PARSING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.StrictParsing = b
		}
	}

	if v := os.Getenv(envPrefix + "LOCK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LockTimeout = d
		}
	}

	if v := os.Getenv(envPrefix + "STATEMENT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.StatementTimeout = d
		}
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
