package rules

import (
	"github.com/aqasim81/posmigrate/internal/analyzer"
)

// VacuumRule detects VACUUM statements.
type VacuumRule struct{}

// NewVacuumRule creates a new VacuumRule.
func NewVacuumRule() *VacuumRule { return &VacuumRule{} }

// ID returns the rule identifier.
func (r *VacuumRule) ID() string { return "vacuum" }

// Check examines a statement for VACUUM.
func (r *VacuumRule) Check(stmt analyzer.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	if stmt.Keyword != "vacuum" {
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.High,
		Message:    "VACUUM cannot run inside a transaction and rewrites the whole database file",
		Suggestion: "Run VACUUM from app maintenance code, outside the migration registry",
		StmtIndex:  ctx.StmtIndex,
	}}
}
