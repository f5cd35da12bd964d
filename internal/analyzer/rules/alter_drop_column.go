package rules

import (
	"regexp"

	"github.com/aqasim81/posmigrate/internal/analyzer"
)

var dropColumnPattern = regexp.MustCompile(`(?is)^\s*ALTER\s+TABLE\s+` + analyzer.Ident + `\s+DROP\s+(?:COLUMN\s+)?`) //nolint:gochecknoglobals // compiled once

// DropColumnRule detects ALTER TABLE ... DROP COLUMN.
type DropColumnRule struct{}

// NewDropColumnRule creates a new DropColumnRule.
func NewDropColumnRule() *DropColumnRule { return &DropColumnRule{} }

// ID returns the rule identifier.
func (r *DropColumnRule) ID() string { return "alter-drop-column" }

// Check examines a statement for DROP COLUMN.
func (r *DropColumnRule) Check(stmt analyzer.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	if stmt.Keyword != "alter" || !dropColumnPattern.MatchString(stmt.Text) {
		return nil
	}

	return []analyzer.Finding{{
		Rule:     r.ID(),
		Severity: analyzer.High,
		Table:    analyzer.TableName(dropColumnPattern, stmt.Text),
		Message: "DROP COLUMN needs SQLite 3.35+, loses the column's data, and fails when the column " +
			"is indexed, part of a key, or used by a view or trigger",
		Suggestion: "Rebuild the table: create the new shape, copy rows, drop the old table, rename",
		StmtIndex:  ctx.StmtIndex,
	}}
}
