package rules

import (
	"regexp"

	"github.com/aqasim81/posmigrate/internal/analyzer"
)

var alterColumnPattern = regexp.MustCompile(`(?is)^\s*ALTER\s+TABLE\s+` + analyzer.Ident + `\s+ALTER\s+(?:COLUMN\s+)?\S+\s+(?:SET|DROP|TYPE)\b`) //nolint:gochecknoglobals // compiled once

// AlterColumnRule detects ALTER COLUMN forms (type changes, SET/DROP NOT NULL, SET DEFAULT).
type AlterColumnRule struct{}

// NewAlterColumnRule creates a new AlterColumnRule.
func NewAlterColumnRule() *AlterColumnRule { return &AlterColumnRule{} }

// ID returns the rule identifier.
func (r *AlterColumnRule) ID() string { return "alter-column" }

// Check examines a statement for ALTER COLUMN.
func (r *AlterColumnRule) Check(stmt analyzer.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	if stmt.Keyword != "alter" || !alterColumnPattern.MatchString(stmt.Text) {
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.High,
		Table:      analyzer.TableName(alterColumnPattern, stmt.Text),
		Message:    "SQLite has no ALTER COLUMN; changing a column's type, default, or nullability is a syntax error",
		Suggestion: "Rebuild the table: create the new shape, copy rows, drop the old table, rename",
		StmtIndex:  ctx.StmtIndex,
	}}
}
