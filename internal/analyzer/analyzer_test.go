package analyzer_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/posmigrate/internal/analyzer"
	"github.com/aqasim81/posmigrate/internal/migration"
	"github.com/aqasim81/posmigrate/internal/parser"
)

// stubRule flags every statement whose keyword matches.
type stubRule struct {
	keyword  string
	severity analyzer.Severity
}

func (s stubRule) ID() string { return "stub-" + s.keyword }

func (s stubRule) Check(stmt analyzer.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	if stmt.Keyword != s.keyword {
		return nil
	}

	return []analyzer.Finding{{Rule: s.ID(), Severity: s.severity, StmtIndex: ctx.StmtIndex}}
}

func registryOf(rules ...analyzer.Rule) *analyzer.Registry {
	r := analyzer.NewRegistry()
	for _, rule := range rules {
		r.Register(rule)
	}

	return r
}

func TestAnalyze_noRules_isSafe(t *testing.T) {
	t.Parallel()

	m := &migration.Migration{Version: "001", SQL: "CREATE TABLE a (id INT);"}

	result, err := analyzer.New().Analyze(m)

	require.NoError(t, err)
	assert.Empty(t, result.Findings)
	assert.Equal(t, analyzer.Safe, result.MaxSeverity)
	assert.Same(t, m, result.Migration)
}

func TestAnalyze_collectsFindingsWithIndexAndStatement(t *testing.T) {
	t.Parallel()

	a := analyzer.New(analyzer.WithRegistry(registryOf(
		stubRule{keyword: "drop", severity: analyzer.Critical},
		stubRule{keyword: "alter", severity: analyzer.Medium},
	)))

	result, err := a.Analyze(&migration.Migration{
		Version: "002",
		SQL:     "CREATE TABLE a (id INT);\nALTER TABLE a ADD COLUMN b INT;\nDROP TABLE old;",
	})

	require.NoError(t, err)
	require.Len(t, result.Findings, 2)
	assert.Equal(t, 1, result.Findings[0].StmtIndex)
	assert.Equal(t, "stub-alter", result.Findings[0].Rule)
	assert.Equal(t, 2, result.Findings[1].StmtIndex)
	assert.Equal(t, "DROP TABLE old;", result.Findings[1].Statement)
	assert.Equal(t, analyzer.Critical, result.MaxSeverity)
	assert.True(t, result.HasHighOrCritical())
}

func TestAnalyze_unbalancedScript_returnsError(t *testing.T) {
	t.Parallel()

	_, err := analyzer.New().Analyze(&migration.Migration{
		Version: "003",
		SQL:     "CREATE TRIGGER t AFTER INSERT ON a\nBEGIN\n  SELECT 1;\n",
	})

	require.ErrorIs(t, err, parser.ErrUnbalancedBlock)
}

func TestAnalyze_customSplitter(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	a := analyzer.New(analyzer.WithSplitter(func(string) ([]string, error) { return nil, boom }))

	_, err := a.Analyze(&migration.Migration{Version: "004"})

	require.ErrorIs(t, err, boom)
}

func TestAnalyzeAll_returnsResultPerMigration(t *testing.T) {
	t.Parallel()

	results, err := analyzer.New().AnalyzeAll([]migration.Migration{
		{Version: "001", SQL: "SELECT 1;"},
		{Version: "002", SQL: "SELECT 2;"},
	})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "002", results[1].Migration.Version)
}

func TestHasHighOrCritical(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		severity analyzer.Severity
		expected bool
	}{
		{"safe", analyzer.Safe, false},
		{"low", analyzer.Low, false},
		{"medium", analyzer.Medium, false},
		{"high", analyzer.High, true},
		{"critical", analyzer.Critical, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := &analyzer.AnalysisResult{MaxSeverity: tt.severity}
			assert.Equal(t, tt.expected, r.HasHighOrCritical())
		})
	}
}

func TestTableName(t *testing.T) {
	t.Parallel()

	re := regexp.MustCompile(`(?i)^DROP\s+TABLE\s+(?:IF\s+EXISTS\s+)?` + analyzer.Ident)

	tests := []struct {
		sql  string
		want string
	}{
		{sql: "DROP TABLE products;", want: "products"},
		{sql: "DROP TABLE IF EXISTS main.products;", want: "main.products"},
		{sql: `DROP TABLE "tax_rates";`, want: "tax_rates"},
		{sql: "DROP TABLE `sales`;", want: "sales"},
		{sql: "DROP TABLE [tax_rates];", want: "tax_rates"},
		{sql: "SELECT 1;", want: "<unknown>"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.sql, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, analyzer.TableName(re, tt.sql))
		})
	}
}
