package analyzer

import "github.com/aqasim81/posmigrate/internal/migration"

// Finding represents a single dangerous pattern detected in a migration.
type Finding struct {
	Rule       string   // Rule ID (e.g., "drop-table")
	Severity   Severity // Danger level
	Table      string   // Affected table name
	Statement  string   // The SQL statement text (truncated for display)
	Message    string   // Human-readable description of the danger
	Suggestion string   // Safe alternative approach
	StmtIndex  int      // Index in the migration's statement list (0-based)
}

// AnalysisResult holds all findings for a single migration.
type AnalysisResult struct {
	Migration   *migration.Migration
	Findings    []Finding
	MaxSeverity Severity // Highest severity across all findings
}

// HasAtLeast reports whether any finding is at threshold severity or above. A result with no
// findings never qualifies, even for Safe.
func (r *AnalysisResult) HasAtLeast(threshold Severity) bool {
	return len(r.Findings) > 0 && r.MaxSeverity >= threshold
}

// HasHighOrCritical returns true if any finding is High or Critical severity.
func (r *AnalysisResult) HasHighOrCritical() bool {
	return r.MaxSeverity >= High
}
