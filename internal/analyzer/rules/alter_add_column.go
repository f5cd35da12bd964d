package rules

import (
	"regexp"

	"github.com/aqasim81/posmigrate/internal/analyzer"
)

var addColumnPattern = regexp.MustCompile(`(?is)^\s*ALTER\s+TABLE\s+` + analyzer.Ident + `\s+ADD\s+(?:COLUMN\s+)?`) //nolint:gochecknoglobals // compiled once

var notNullPattern = regexp.MustCompile(`(?i)\bNOT\s+NULL\b`) //nolint:gochecknoglobals // compiled once

var defaultPattern = regexp.MustCompile(`(?i)\bDEFAULT\b`) //nolint:gochecknoglobals // compiled once

var keyPattern = regexp.MustCompile(`(?i)\b(?:PRIMARY\s+KEY|UNIQUE)\b`) //nolint:gochecknoglobals // compiled once

// AddColumnRule detects ADD COLUMN forms that SQLite rejects.
type AddColumnRule struct{}

// NewAddColumnRule creates a new AddColumnRule.
func NewAddColumnRule() *AddColumnRule { return &AddColumnRule{} }

// ID returns the rule identifier.
func (r *AddColumnRule) ID() string { return "add-column" }

// Check examines ADD COLUMN for NOT NULL without DEFAULT and for key constraints.
func (r *AddColumnRule) Check(stmt analyzer.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	if stmt.Keyword != "alter" || !addColumnPattern.MatchString(stmt.Text) || addConstraintPattern.MatchString(stmt.Text) {
		return nil
	}

	table := analyzer.TableName(addColumnPattern, stmt.Text)

	if keyPattern.MatchString(stmt.Text) {
		return []analyzer.Finding{{
			Rule:       r.ID(),
			Severity:   analyzer.High,
			Table:      table,
			Message:    "SQLite cannot add a PRIMARY KEY or UNIQUE column with ALTER TABLE",
			Suggestion: "Add the column without the constraint, then CREATE UNIQUE INDEX on it",
			StmtIndex:  ctx.StmtIndex,
		}}
	}

	if notNullPattern.MatchString(stmt.Text) && !defaultPattern.MatchString(stmt.Text) {
		return []analyzer.Finding{{
			Rule:       r.ID(),
			Severity:   analyzer.High,
			Table:      table,
			Message:    "SQLite rejects ADD COLUMN ... NOT NULL without a non-null DEFAULT",
			Suggestion: "Give the column a DEFAULT, e.g. NOT NULL DEFAULT 0",
			StmtIndex:  ctx.StmtIndex,
		}}
	}

	return nil
}
