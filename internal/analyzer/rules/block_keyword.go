package rules

import (
	"regexp"

	"github.com/aqasim81/posmigrate/internal/analyzer"
)

var triggerPattern = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:TEMP\s+|TEMPORARY\s+)?TRIGGER\b`) //nolint:gochecknoglobals // compiled once

var literalPattern = regexp.MustCompile(`'(?:[^']|'')*'`) //nolint:gochecknoglobals // compiled once

var blockWordPattern = regexp.MustCompile(`(?i)\b(?:BEGIN|END)\b`) //nolint:gochecknoglobals // compiled once

var bareEndPattern = regexp.MustCompile(`(?i)^\s*END\s*;?\s*$`) //nolint:gochecknoglobals // compiled once

var casePattern = regexp.MustCompile(`(?i)\bCASE\b`) //nolint:gochecknoglobals // compiled once

// BlockKeywordRule detects trigger bodies the statement splitter will cut in the wrong
// place: the splitter counts BEGIN and END words line by line, including those inside
// string literals and CASE expressions.
type BlockKeywordRule struct{}

// NewBlockKeywordRule creates a new BlockKeywordRule.
func NewBlockKeywordRule() *BlockKeywordRule { return &BlockKeywordRule{} }

// ID returns the rule identifier.
func (r *BlockKeywordRule) ID() string { return "block-keyword" }

// Check examines trigger statements and stray END fragments.
func (r *BlockKeywordRule) Check(stmt analyzer.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	if bareEndPattern.MatchString(stmt.Text) {
		return []analyzer.Finding{{
			Rule:       r.ID(),
			Severity:   analyzer.High,
			Message:    "a bare END was split off from the statement before it; a trigger body closed early",
			Suggestion: "Check the preceding trigger for BEGIN/END inside a string literal or CASE expression",
			StmtIndex:  ctx.StmtIndex,
		}}
	}

	if !triggerPattern.MatchString(stmt.Text) {
		return nil
	}

	for _, lit := range literalPattern.FindAllString(stmt.Text, -1) {
		if blockWordPattern.MatchString(lit) {
			return []analyzer.Finding{r.finding(ctx, "a string literal in the trigger body contains BEGIN or END")}
		}
	}

	if casePattern.MatchString(stmt.Text) {
		return []analyzer.Finding{r.finding(ctx, "a CASE ... END expression in the trigger body closes the block early")}
	}

	return nil
}

func (r *BlockKeywordRule) finding(ctx *analyzer.RuleContext, msg string) analyzer.Finding {
	return analyzer.Finding{
		Rule:       r.ID(),
		Severity:   analyzer.High,
		Message:    msg + "; the statement splitter counts it and cuts the trigger short",
		Suggestion: "Build the text with char() or || concatenation, or move the CASE into a view",
		StmtIndex:  ctx.StmtIndex,
	}
}
