package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqasim81/posmigrate/internal/analyzer"
	"github.com/aqasim81/posmigrate/internal/parser"
)

// ruleCase is one row of a rule's table test.
type ruleCase struct {
	name         string
	sql          string
	wantCount    int
	wantSeverity analyzer.Severity
	wantTable    string
}

// checkSQL splits sql and runs rule over every statement.
func checkSQL(t *testing.T, rule analyzer.Rule, sql string) []analyzer.Finding {
	t.Helper()

	var findings []analyzer.Finding

	for i, text := range parser.Split(sql) {
		stmt := analyzer.Statement{Text: text, Keyword: parser.LeadingKeyword(text)}
		findings = append(findings, rule.Check(stmt, &analyzer.RuleContext{StmtIndex: i})...)
	}

	return findings
}

func runRuleCases(t *testing.T, rule analyzer.Rule, tests []ruleCase) {
	t.Helper()

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			findings := checkSQL(t, rule, tt.sql)
			assert.Len(t, findings, tt.wantCount)

			if tt.wantCount > 0 {
				assert.Equal(t, tt.wantSeverity, findings[0].Severity)
				assert.Equal(t, rule.ID(), findings[0].Rule)
				assert.NotEmpty(t, findings[0].Message)
				assert.NotEmpty(t, findings[0].Suggestion)

				if tt.wantTable != "" {
					assert.Equal(t, tt.wantTable, findings[0].Table)
				}
			}
		})
	}
}
