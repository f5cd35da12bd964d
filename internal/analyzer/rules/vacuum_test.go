package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqasim81/posmigrate/internal/analyzer"
	"github.com/aqasim81/posmigrate/internal/analyzer/rules"
)

func TestVacuumRule_ID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "vacuum", rules.NewVacuumRule().ID())
}

func TestVacuumRule_Check(t *testing.T) {
	t.Parallel()

	runRuleCases(t, rules.NewVacuumRule(), []ruleCase{
		{name: "VACUUM is HIGH", sql: "VACUUM;", wantCount: 1, wantSeverity: analyzer.High},
		{name: "VACUUM INTO is HIGH", sql: "VACUUM INTO '/tmp/backup.db';", wantCount: 1, wantSeverity: analyzer.High},
		{name: "ANALYZE is not flagged", sql: "ANALYZE;", wantCount: 0},
	})
}
