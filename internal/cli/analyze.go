package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aqasim81/posmigrate/internal/analyzer"
	"github.com/aqasim81/posmigrate/internal/analyzer/rules"
	"github.com/aqasim81/posmigrate/internal/parser"
)

var analyzeCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "analyze [migration-dir]",
	Short: "Analyze migrations for dangerous operations",
	Long: `Analyze SQL migration files for statements that SQLite rejects, that lose
till data, or that the statement splitter would cut in the wrong place.
Reports findings with severity levels and suggests safe alternatives.`,
	RunE: runAnalyze,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	analyzeCmd.Flags().Bool("fail-on-high", false, "exit with non-zero code if high/critical findings exist")
	analyzeCmd.Flags().String("fail-on", "", "exit with non-zero code if findings at this severity or above exist (low, medium, high, critical)")
	rootCmd.AddCommand(analyzeCmd)
}

// errHighSeverityFindings is returned when --fail-on-high is set and high/critical findings exist.
var errHighSeverityFindings = errors.New("high or critical severity findings detected")

// errSeverityThreshold is returned when --fail-on is set and a finding reaches it.
var errSeverityThreshold = errors.New("findings at or above the --fail-on severity detected")

// findingJSON is one finding in --format json output.
type findingJSON struct {
	Version    string `json:"version"`
	Rule       string `json:"rule"`
	Severity   string `json:"severity"`
	Table      string `json:"table,omitempty"`
	Statement  string `json:"statement,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	dir := AppConfig.MigrationsDir
	if len(args) > 0 {
		dir = args[0]
	}

	threshold, err := failOnThreshold(cmd)
	if err != nil {
		return err
	}

	migrations, err := loadMigrations(dir)
	if err != nil {
		return err
	}

	if len(migrations) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No migration files found.")
		return nil
	}

	opts := []analyzer.Option{analyzer.WithRegistry(rules.NewDefaultRegistry())}
	if !AppConfig.StrictParsing {
		opts = append(opts, analyzer.WithSplitter(func(sql string) ([]string, error) {
			return parser.Split(sql), nil
		}))
	}

	results, err := analyzer.New(opts...).AnalyzeAll(migrations)
	if err != nil {
		return fmt.Errorf("analyzing migrations: %w", err)
	}

	var hasHighOrCritical bool

	if jsonOutput() {
		hasHighOrCritical, err = writeFindingsJSON(cmd.OutOrStdout(), results)
		if err != nil {
			return err
		}
	} else {
		hasHighOrCritical = printAnalysisResults(cmd.OutOrStdout(), results)
	}

	failOnHigh, _ := cmd.Flags().GetBool("fail-on-high")
	if failOnHigh && hasHighOrCritical {
		return errHighSeverityFindings
	}

	if threshold != nil {
		for i := range results {
			if results[i].HasAtLeast(*threshold) {
				return fmt.Errorf("%w: %s", errSeverityThreshold, *threshold)
			}
		}
	}

	return nil
}

// failOnThreshold parses --fail-on; nil means the flag is unset.
func failOnThreshold(cmd *cobra.Command) (*analyzer.Severity, error) {
	label, _ := cmd.Flags().GetString("fail-on")
	if label == "" {
		return nil, nil //nolint:nilnil // nil,nil signals "no threshold"
	}

	s, err := analyzer.ParseSeverity(label)
	if err != nil {
		return nil, fmt.Errorf("invalid --fail-on: %w", err)
	}

	return &s, nil
}

func printAnalysisResults(out io.Writer, results []analyzer.AnalysisResult) bool {
	totalFindings := 0
	hasHighOrCritical := false

	for _, r := range results {
		if len(r.Findings) == 0 {
			continue
		}

		fmt.Fprintf(out, "\n=== %s (%s) ===\n", r.Migration.Version, r.Migration.Description)

		for _, f := range r.Findings {
			fmt.Fprintf(out, "  [%s] %s\n", f.Severity, f.Message)

			if f.Table != "" {
				fmt.Fprintf(out, "    Table: %s\n", f.Table)
			}

			fmt.Fprintf(out, "    Rule:  %s\n", f.Rule)

			if f.Statement != "" {
				fmt.Fprintf(out, "    SQL:   %s\n", f.Statement)
			}

			fmt.Fprintf(out, "    Fix:   %s\n\n", f.Suggestion)
		}

		totalFindings += len(r.Findings)

		if r.HasHighOrCritical() {
			hasHighOrCritical = true
		}
	}

	if totalFindings == 0 {
		fmt.Fprintln(out, "No dangerous operations detected.")
	} else {
		fmt.Fprintf(out, "Found %d finding(s) across %d migration(s).\n", totalFindings, countMigrationsWithFindings(results))
	}

	return hasHighOrCritical
}

func writeFindingsJSON(out io.Writer, results []analyzer.AnalysisResult) (bool, error) {
	findings := []findingJSON{}
	hasHighOrCritical := false

	for _, r := range results {
		for _, f := range r.Findings {
			findings = append(findings, findingJSON{
				Version:    r.Migration.Version,
				Rule:       f.Rule,
				Severity:   f.Severity.String(),
				Table:      f.Table,
				Statement:  f.Statement,
				Message:    f.Message,
				Suggestion: f.Suggestion,
			})
		}

		if r.HasHighOrCritical() {
			hasHighOrCritical = true
		}
	}

	return hasHighOrCritical, writeJSON(out, findings)
}

func countMigrationsWithFindings(results []analyzer.AnalysisResult) int {
	count := 0

	for _, r := range results {
		if len(r.Findings) > 0 {
			count++
		}
	}

	return count
}
