package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aqasim81/posmigrate/internal/config"
	"github.com/aqasim81/posmigrate/internal/logging"
	"github.com/aqasim81/posmigrate/internal/sqlexec"
)

const version = "0.1.0"

// AppConfig holds the loaded configuration, set during PersistentPreRunE.
var AppConfig *config.Config //nolint:gochecknoglobals // standard Cobra pattern for shared config

// Logger is the process logger built from AppConfig.
var Logger = sqlexec.DiscardLogger() //nolint:gochecknoglobals // shared with subcommands like AppConfig

// rootCmd is the base command for the posmigrate CLI.
var rootCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:     "posmigrate",
	Version: version,
	Short:   "SQLite schema migrations for point-of-sale tills",
	Long: `posmigrate applies an ordered registry of SQL migrations to a till's local
database. The same registry runs on the desktop, mobile, and in-memory browser
engines, and on a shared PostgreSQL back office. Applied versions are recorded
in a ledger table so every run only applies what is new.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.PersistentFlags().String("config", config.DefaultFile, "path to configuration file")
	rootCmd.PersistentFlags().String("engine", "", "engine: desktop, mobile, browser, postgres")
	rootCmd.PersistentFlags().String("database-path", "", "SQLite database file (desktop, mobile)")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string (postgres)")
	rootCmd.PersistentFlags().String("migrations-dir", "", "path to migration files")
	rootCmd.PersistentFlags().String("format", "", "output format (text, json)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads configuration with precedence: flag > env > file.
func loadConfig(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	allowMissing := !cmd.Flags().Changed("config")

	cfg, err := config.Load(configPath, allowMissing)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	config.MergeEnv(cfg)
	mergeFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	AppConfig = cfg
	Logger = logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

	Logger.Debug("configuration loaded",
		slog.String("engine", cfg.Engine),
		slog.String("migrations_dir", cfg.MigrationsDir),
		slog.String("database_url", config.RedactDSN(cfg.DatabaseURL)),
	)

	return nil
}

// mergeFlags overrides config with explicitly-set CLI flags.
func mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	overrides := []struct {
		flag string
		dst  *string
	}{
		{"engine", &cfg.Engine},
		{"database-path", &cfg.DatabasePath},
		{"database-url", &cfg.DatabaseURL},
		{"migrations-dir", &cfg.MigrationsDir},
		{"format", &cfg.Format},
	}

	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			*o.dst, _ = cmd.Flags().GetString(o.flag)
		}
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}
}
