package rules

import (
	"regexp"

	"github.com/aqasim81/posmigrate/internal/analyzer"
)

var dropTablePattern = regexp.MustCompile(`(?is)^\s*DROP\s+TABLE\s+(?:IF\s+EXISTS\s+)?` + analyzer.Ident) //nolint:gochecknoglobals // compiled once

var deleteAllPattern = regexp.MustCompile(`(?is)^\s*DELETE\s+FROM\s+` + analyzer.Ident) //nolint:gochecknoglobals // compiled once

var ifExistsPattern = regexp.MustCompile(`(?i)^\s*DROP\s+TABLE\s+IF\s+EXISTS\b`) //nolint:gochecknoglobals // compiled once

var wherePattern = regexp.MustCompile(`(?i)\bWHERE\b`) //nolint:gochecknoglobals // compiled once

// DropTableRule detects DROP TABLE and unconditional DELETE statements.
type DropTableRule struct{}

// NewDropTableRule creates a new DropTableRule.
func NewDropTableRule() *DropTableRule { return &DropTableRule{} }

// ID returns the rule identifier.
func (r *DropTableRule) ID() string { return "drop-table" }

// Check examines a statement for DROP TABLE or DELETE without WHERE.
func (r *DropTableRule) Check(stmt analyzer.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	switch stmt.Keyword {
	case "drop":
		return r.checkDrop(stmt, ctx)
	case "delete":
		return r.checkDelete(stmt, ctx)
	default:
		return nil
	}
}

func (r *DropTableRule) checkDrop(stmt analyzer.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	if !dropTablePattern.MatchString(stmt.Text) {
		return nil
	}

	msg := "DROP TABLE is irreversible and will permanently delete the till's local data"
	if ifExistsPattern.MatchString(stmt.Text) {
		msg = "DROP TABLE IF EXISTS is irreversible and will permanently delete the till's local data"
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.Critical,
		Table:      analyzer.TableName(dropTablePattern, stmt.Text),
		Message:    msg,
		Suggestion: "Copy rows still needed into the replacement table in the same migration before dropping",
		StmtIndex:  ctx.StmtIndex,
	}}
}

func (r *DropTableRule) checkDelete(stmt analyzer.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	if !deleteAllPattern.MatchString(stmt.Text) || wherePattern.MatchString(stmt.Text) {
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.Critical,
		Table:      analyzer.TableName(deleteAllPattern, stmt.Text),
		Message:    "DELETE without WHERE removes every row, including unsynced sales",
		Suggestion: "Restrict the DELETE with a WHERE clause or confirm the data is replicated elsewhere",
		StmtIndex:  ctx.StmtIndex,
	}}
}
