package rules

import (
	"regexp"

	"github.com/aqasim81/posmigrate/internal/analyzer"
)

var renameTablePattern = regexp.MustCompile(`(?is)^\s*ALTER\s+TABLE\s+` + analyzer.Ident + `\s+RENAME\s+TO\b`) //nolint:gochecknoglobals // compiled once

var renameColumnPattern = regexp.MustCompile(`(?is)^\s*ALTER\s+TABLE\s+` + analyzer.Ident + `\s+RENAME\s+(?:COLUMN\s+)?\S+\s+TO\b`) //nolint:gochecknoglobals // compiled once

// RenameRule detects table and column renames.
type RenameRule struct{}

// NewRenameRule creates a new RenameRule.
func NewRenameRule() *RenameRule { return &RenameRule{} }

// ID returns the rule identifier.
func (r *RenameRule) ID() string { return "rename" }

// Check examines a statement for RENAME TO or RENAME COLUMN.
func (r *RenameRule) Check(stmt analyzer.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	if stmt.Keyword != "alter" {
		return nil
	}

	if renameTablePattern.MatchString(stmt.Text) {
		return []analyzer.Finding{{
			Rule:       r.ID(),
			Severity:   analyzer.Medium,
			Table:      analyzer.TableName(renameTablePattern, stmt.Text),
			Message:    "RENAME TO breaks queries in app builds that still use the old table name",
			Suggestion: "Ship the app build that reads the new name before the migration, or keep a view with the old name",
			StmtIndex:  ctx.StmtIndex,
		}}
	}

	if renameColumnPattern.MatchString(stmt.Text) {
		return []analyzer.Finding{{
			Rule:       r.ID(),
			Severity:   analyzer.Medium,
			Table:      analyzer.TableName(renameColumnPattern, stmt.Text),
			Message:    "RENAME COLUMN breaks queries in app builds that still use the old column name",
			Suggestion: "Add the new column, backfill it, and drop the old one once no build reads it",
			StmtIndex:  ctx.StmtIndex,
		}}
	}

	return nil
}
