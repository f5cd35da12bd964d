package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqasim81/posmigrate/internal/analyzer"
	"github.com/aqasim81/posmigrate/internal/analyzer/rules"
	"github.com/aqasim81/posmigrate/internal/config"
	"github.com/aqasim81/posmigrate/internal/migration"
	"github.com/aqasim81/posmigrate/internal/runner"
)

// errDangerousMigrations is returned when apply is blocked by high/critical findings.
var errDangerousMigrations = errors.New("apply aborted: dangerous migrations detected (use --force to override)")

var applyCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "apply",
	Short: "Apply pending migrations",
	Long: `Apply every migration not yet recorded in the ledger, in version order.
Each migration runs as one batch together with its ledger row. The run stops
at the first failing statement.`,
	RunE: runApply,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	applyCmd.Flags().Bool("dry-run", false, "show what would be applied without executing")
	applyCmd.Flags().Bool("force", false, "apply even when analysis reports high or critical findings")
	rootCmd.AddCommand(applyCmd)
}

// applySummary is the --format json output of apply.
type applySummary struct {
	DryRun  bool     `json:"dry_run"`
	Applied []string `json:"applied"`
	Skipped []string `json:"skipped"`
	Pending []string `json:"pending,omitempty"`
}

func runApply(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig
	out := cmd.OutOrStdout()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	force, _ := cmd.Flags().GetBool("force")

	migrations, err := loadMigrations(cfg.MigrationsDir)
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

	eng, err := openEngine(ctx, cfg, Logger)
	if err != nil {
		return err
	}
	defer eng.Close() //nolint:errcheck // best-effort close on exit

	var progress func(runner.ProgressEvent)
	if !jsonOutput() {
		progress = progressPrinter(out)
	}

	r, err := newRunner(cfg, eng, migrations,
		runner.WithDryRun(dryRun),
		runner.WithProgressCallback(progress),
	)
	if err != nil {
		return err
	}

	if !dryRun {
		if err := ensureLedger(ctx, cfg, eng); err != nil {
			return err
		}
	}

	if !force && !dryRun {
		if err := gatePending(ctx, cmd, r, eng); err != nil {
			return err
		}
	}

	if dryRun && !jsonOutput() {
		fmt.Fprintln(out, "--- DRY RUN (no changes will be made) ---")
	}

	report, err := r.Run(ctx, eng.exec)
	if err != nil {
		return err
	}

	return printApplyReport(out, report, dryRun)
}

// progressPrinter renders runner progress events as one line per migration.
func progressPrinter(out io.Writer) func(runner.ProgressEvent) {
	return func(event runner.ProgressEvent) {
		m := event.Migration

		switch event.Status {
		case runner.StatusStarting:
			fmt.Fprintf(out, "  Applying %s (%s) ... ", m.Version, m.Description)
		case runner.StatusCompleted:
			fmt.Fprintf(out, "done (%s)\n", event.Duration.Truncate(time.Millisecond))
		case runner.StatusFailed:
			fmt.Fprintf(out, "FAILED\n")
			fmt.Fprintf(out, "    Error: %v\n", event.Error)
		}
	}
}

func printApplyReport(out io.Writer, report *runner.Report, dryRun bool) error {
	if jsonOutput() {
		return writeJSON(out, applySummary{
			DryRun:  dryRun,
			Applied: nonNil(report.Applied),
			Skipped: nonNil(report.Skipped),
			Pending: report.Pending,
		})
	}

	if dryRun {
		for _, v := range report.Pending {
			fmt.Fprintf(out, "  would apply %s\n", v)
		}

		fmt.Fprintf(out, "\nDry run complete: %d migration(s) would be applied, %d already applied.\n",
			len(report.Pending), len(report.Skipped))

		return nil
	}

	fmt.Fprintf(out, "\nApply complete: %d applied, %d skipped.\n", len(report.Applied), len(report.Skipped))

	return nil
}

// ensureLedger creates the ledger table before anything runs, so the database is
// initialized even when the analysis gate or the first migration stops the run.
func ensureLedger(ctx context.Context, cfg *config.Config, eng *engine) error {
	l, err := newLedger(cfg, eng)
	if err != nil {
		return err
	}

	return l.Ensure(ctx, eng.exec)
}

// gatePending analyzes the migrations the run would apply and blocks on
// HIGH/CRITICAL findings. Already applied migrations are not re-checked.
func gatePending(ctx context.Context, cmd *cobra.Command, r *runner.Runner, eng *engine) error {
	pending, err := r.Pending(ctx, eng.exec)
	if err != nil {
		return err
	}

	blocked, err := checkDangerousMigrations(cmd, pending)
	if err != nil {
		return err
	}

	if blocked {
		return errDangerousMigrations
	}

	return nil
}

// checkDangerousMigrations runs the analyzer and returns true if
// HIGH/CRITICAL findings were found (blocking apply).
func checkDangerousMigrations(cmd *cobra.Command, migrations []migration.Migration) (bool, error) {
	a := analyzer.New(analyzer.WithRegistry(rules.NewDefaultRegistry()))

	results, err := a.AnalyzeAll(migrations)
	if err != nil {
		return false, fmt.Errorf("analyzing migrations: %w", err)
	}

	blocked := false

	for i := range results {
		if results[i].HasHighOrCritical() {
			blocked = true
		}
	}

	if blocked {
		printAnalysisResults(cmd.ErrOrStderr(), results)
	}

	return blocked, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
