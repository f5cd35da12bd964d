package rules

import (
	"regexp"

	"github.com/aqasim81/posmigrate/internal/analyzer"
)

var createIndexPattern = regexp.MustCompile(`(?is)^\s*CREATE\s+(UNIQUE\s+)?INDEX\s+(CONCURRENTLY\s+)?(?:IF\s+NOT\s+EXISTS\s+)?\S+\s+ON\s+` + analyzer.Ident) //nolint:gochecknoglobals // compiled once

var onTablePattern = regexp.MustCompile(`(?is)\bON\s+` + analyzer.Ident) //nolint:gochecknoglobals // compiled once

// CreateIndexRule detects index builds that fail on SQLite or on existing data.
type CreateIndexRule struct{}

// NewCreateIndexRule creates a new CreateIndexRule.
func NewCreateIndexRule() *CreateIndexRule { return &CreateIndexRule{} }

// ID returns the rule identifier.
func (r *CreateIndexRule) ID() string { return "create-index" }

// Check examines CREATE INDEX for CONCURRENTLY and UNIQUE.
func (r *CreateIndexRule) Check(stmt analyzer.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	if stmt.Keyword != "create" {
		return nil
	}

	m := createIndexPattern.FindStringSubmatch(stmt.Text)
	if m == nil {
		return nil
	}

	table := analyzer.TableName(onTablePattern, stmt.Text)

	if m[2] != "" {
		return []analyzer.Finding{{
			Rule:       r.ID(),
			Severity:   analyzer.High,
			Table:      table,
			Message:    "CREATE INDEX CONCURRENTLY is PostgreSQL syntax; SQLite engines reject it",
			Suggestion: "Drop CONCURRENTLY; SQLite builds the index inside the migration's write lock",
			StmtIndex:  ctx.StmtIndex,
		}}
	}

	if m[1] != "" {
		return []analyzer.Finding{{
			Rule:       r.ID(),
			Severity:   analyzer.Medium,
			Table:      table,
			Message:    "CREATE UNIQUE INDEX fails on tills whose existing rows already hold duplicates",
			Suggestion: "De-duplicate the rows earlier in the same migration",
			StmtIndex:  ctx.StmtIndex,
		}}
	}

	return nil
}
