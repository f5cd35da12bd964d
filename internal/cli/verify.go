package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aqasim81/posmigrate/internal/config"
)

var verifyCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "verify [migration-dir]",
	Short: "Apply the registry to a fresh in-memory database",
	Long: `Run every migration against an empty in-memory SQLite database using the
browser engine, then run the registry a second time to check that nothing is
re-applied. The configured database is never opened.`,
	RunE: runVerify,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	dir := AppConfig.MigrationsDir
	if len(args) > 0 {
		dir = args[0]
	}

	out := cmd.OutOrStdout()

	migrations, err := loadMigrations(dir)
	if err != nil {
		return err
	}

	if len(migrations) == 0 {
		fmt.Fprintln(out, "No migration files found.")
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := *AppConfig
	cfg.Engine = config.EngineBrowser

	eng, err := openEngine(ctx, &cfg, Logger)
	if err != nil {
		return err
	}
	defer eng.Close() //nolint:errcheck // best-effort close on exit

	r, err := newRunner(&cfg, eng, migrations)
	if err != nil {
		return err
	}

	first, err := r.Run(ctx, eng.exec)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	second, err := r.Run(ctx, eng.exec)
	if err != nil {
		return fmt.Errorf("verification failed on second run: %w", err)
	}

	if len(second.Applied) != 0 {
		return fmt.Errorf("%w: second run applied %v", errNotIdempotent, second.Applied)
	}

	fmt.Fprintf(out, "Verified %d migration(s) against a fresh in-memory database.\n", len(first.Applied))

	return nil
}
