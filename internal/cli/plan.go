package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aqasim81/posmigrate/internal/migration"
	"github.com/aqasim81/posmigrate/internal/runner"
	"github.com/aqasim81/posmigrate/internal/sqlexec"
)

var planCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "plan",
	Short: "Show the statements pending migrations would execute",
	Long: `Display every statement of the pending migrations in execution order,
with the path (direct or prepared) the configured engine routes it through.
The ledger statements appended to each batch are included.`,
	RunE: runPlan,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	planCmd.Flags().Bool("all", false, "plan the whole registry without opening the database")
	rootCmd.AddCommand(planCmd)
}

// plannedMigration is one migration in --format json output.
type plannedMigration struct {
	Version     string             `json:"version"`
	Description string             `json:"description"`
	Statements  []plannedStatement `json:"statements"`
}

type plannedStatement struct {
	Route string `json:"route"`
	SQL   string `json:"sql"`
}

func runPlan(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	migrations, err := loadMigrations(cfg.MigrationsDir)
	if err != nil {
		return err
	}

	all, _ := cmd.Flags().GetBool("all")

	var (
		r       *runner.Runner
		pending []migration.Migration
	)

	if all {
		r, err = newRunner(cfg, &engine{name: cfg.Engine, dialect: dialectFor(cfg.Engine)}, migrations)
		if err != nil {
			return err
		}

		pending = migrations
	} else {
		r, pending, err = pendingFromDatabase(cmd, migrations)
		if err != nil {
			return err
		}
	}

	plan, err := buildPlan(r, routesFor(cfg.Engine), pending)
	if err != nil {
		return err
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), plan)
	}

	printPlan(cmd.OutOrStdout(), cfg.Engine, plan)

	return nil
}

func pendingFromDatabase(cmd *cobra.Command, migrations []migration.Migration) (*runner.Runner, []migration.Migration, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	eng, err := openEngine(ctx, AppConfig, Logger)
	if err != nil {
		return nil, nil, err
	}
	defer eng.Close() //nolint:errcheck // best-effort close on exit

	r, err := newRunner(AppConfig, eng, migrations)
	if err != nil {
		return nil, nil, err
	}

	pending, err := r.Pending(ctx, eng.exec)
	if err != nil {
		return nil, nil, err
	}

	return r, pending, nil
}

func buildPlan(r *runner.Runner, routes sqlexec.RoutingTable, pending []migration.Migration) ([]plannedMigration, error) {
	plan := make([]plannedMigration, 0, len(pending))

	for _, m := range pending {
		stmts, err := r.Statements(m)
		if err != nil {
			return nil, err
		}

		pm := plannedMigration{
			Version:     m.Version,
			Description: m.Description,
			Statements:  make([]plannedStatement, 0, len(stmts)),
		}

		for _, s := range stmts {
			pm.Statements = append(pm.Statements, plannedStatement{Route: routes.Route(s).String(), SQL: s})
		}

		plan = append(plan, pm)
	}

	return plan, nil
}

func printPlan(out io.Writer, engineName string, plan []plannedMigration) {
	if len(plan) == 0 {
		fmt.Fprintln(out, "Nothing to apply.")
		return
	}

	fmt.Fprintf(out, "Plan for engine %s: %d migration(s)\n", engineName, len(plan))

	for _, pm := range plan {
		fmt.Fprintf(out, "\n=== %s (%s) ===\n", pm.Version, pm.Description)

		for i, s := range pm.Statements {
			fmt.Fprintf(out, "  %3d  %-8s  %s\n", i+1, s.Route, sqlexec.Truncate(s.SQL, sqlexec.DefaultTruncateLen))
		}
	}
}
