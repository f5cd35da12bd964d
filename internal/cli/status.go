package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqasim81/posmigrate/internal/ledger"
	"github.com/aqasim81/posmigrate/internal/migration"
)

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "status",
	Short: "Show applied and pending migrations",
	Long: `Show the ledger rows recorded in the configured database and the
registry versions that have not been applied yet.`,
	RunE: runStatus,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(statusCmd)
}

// statusReport is the --format json output of status.
type statusReport struct {
	Engine      string          `json:"engine"`
	Ledger      string          `json:"ledger"`
	Initialized bool            `json:"initialized"`
	Applied     []appliedRecord `json:"applied"`
	Pending     []string        `json:"pending"`
}

type appliedRecord struct {
	Version     string    `json:"version"`
	Description string    `json:"description"`
	AppliedAt   time.Time `json:"applied_at"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	migrations, err := loadMigrations(cfg.MigrationsDir)
	if err != nil {
		return err
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

	l, err := newLedger(cfg, eng)
	if err != nil {
		return err
	}

	records, err := l.Records(ctx, eng.exec)
	if err != nil {
		return err
	}

	r, err := newRunner(cfg, eng, migrations)
	if err != nil {
		return err
	}

	pending, err := r.Pending(ctx, eng.exec)
	if err != nil {
		return err
	}

	report := buildStatusReport(eng.name, l.Table(), records, pending)

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), report)
	}

	printStatus(cmd.OutOrStdout(), report)

	return nil
}

// buildStatusReport treats a ledger with no rows as not initialized; Records does not
// distinguish an empty table from a missing one.
func buildStatusReport(engineName, table string, records []ledger.Record, pending []migration.Migration) statusReport {
	report := statusReport{
		Engine:      engineName,
		Ledger:      table,
		Initialized: len(records) > 0,
		Applied:     make([]appliedRecord, 0, len(records)),
		Pending:     make([]string, 0, len(pending)),
	}

	for _, rec := range records {
		report.Applied = append(report.Applied, appliedRecord(rec))
	}

	for _, m := range pending {
		report.Pending = append(report.Pending, m.Version)
	}

	return report
}

func printStatus(out io.Writer, report statusReport) {
	fmt.Fprintf(out, "Engine: %s\n", report.Engine)

	if !report.Initialized {
		fmt.Fprintf(out, "Ledger: %s (no migrations recorded)\n", report.Ledger)
	} else {
		fmt.Fprintf(out, "Ledger: %s\n\nApplied:\n", report.Ledger)

		for _, rec := range report.Applied {
			fmt.Fprintf(out, "  %s  %-40s  %s\n", rec.Version, rec.Description, rec.AppliedAt.Format(time.RFC3339))
		}
	}

	if len(report.Pending) == 0 {
		fmt.Fprintln(out, "\nDatabase is up to date.")
		return
	}

	fmt.Fprintf(out, "\nPending (%d):\n", len(report.Pending))

	for _, v := range report.Pending {
		fmt.Fprintf(out, "  %s\n", v)
	}
}
