package rules

import (
	"regexp"

	"github.com/aqasim81/posmigrate/internal/analyzer"
)

var addConstraintPattern = regexp.MustCompile(`(?is)^\s*ALTER\s+TABLE\s+` + analyzer.Ident + `\s+ADD\s+(?:CONSTRAINT|PRIMARY\s+KEY|FOREIGN\s+KEY|CHECK)\b`) //nolint:gochecknoglobals // compiled once

// AddConstraintRule detects ALTER TABLE ... ADD CONSTRAINT, which SQLite does not support.
type AddConstraintRule struct{}

// NewAddConstraintRule creates a new AddConstraintRule.
func NewAddConstraintRule() *AddConstraintRule { return &AddConstraintRule{} }

// ID returns the rule identifier.
func (r *AddConstraintRule) ID() string { return "add-constraint" }

// Check examines a statement for an added table constraint.
func (r *AddConstraintRule) Check(stmt analyzer.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	if stmt.Keyword != "alter" || !addConstraintPattern.MatchString(stmt.Text) {
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.High,
		Table:      analyzer.TableName(addConstraintPattern, stmt.Text),
		Message:    "SQLite's ALTER TABLE cannot add constraints; the statement is a syntax error",
		Suggestion: "Rebuild the table with the constraint in CREATE TABLE, or use a UNIQUE index or trigger",
		StmtIndex:  ctx.StmtIndex,
	}}
}
