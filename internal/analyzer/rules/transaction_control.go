package rules

import (
	"regexp"

	"github.com/aqasim81/posmigrate/internal/analyzer"
)

// transactionKeywords start statements that open or close a transaction. A bare END is
// left to the block-keyword rule, which reports it as a mis-split trigger.
var transactionKeywords = map[string]struct{}{ //nolint:gochecknoglobals // lookup table
	"begin":    {},
	"commit":   {},
	"rollback": {},
}

var endTransactionPattern = regexp.MustCompile(`(?i)^\s*END\s+TRANSACTION\b`) //nolint:gochecknoglobals // compiled once

// TransactionControlRule detects explicit transaction statements inside a migration.
type TransactionControlRule struct{}

// NewTransactionControlRule creates a new TransactionControlRule.
func NewTransactionControlRule() *TransactionControlRule { return &TransactionControlRule{} }

// ID returns the rule identifier.
func (r *TransactionControlRule) ID() string { return "transaction-control" }

// Check flags transaction statements at statement level.
func (r *TransactionControlRule) Check(stmt analyzer.Statement, ctx *analyzer.RuleContext) []analyzer.Finding {
	_, ok := transactionKeywords[stmt.Keyword]
	if !ok && !endTransactionPattern.MatchString(stmt.Text) {
		return nil
	}

	return []analyzer.Finding{{
		Rule:     r.ID(),
		Severity: analyzer.High,
		Message: "explicit transaction control conflicts with transactional batches and the ledger " +
			"row the runner appends to the same batch",
		Suggestion: "Remove the statement and enable transactional_batch instead",
		StmtIndex:  ctx.StmtIndex,
	}}
}
