// Package analyzer lints migration scripts for statements that are destructive, that
// SQLite cannot execute, or that the line-oriented statement splitter will cut in the
// wrong place.
package analyzer

import (
	"fmt"

	"github.com/aqasim81/posmigrate/internal/migration"
	"github.com/aqasim81/posmigrate/internal/parser"
	"github.com/aqasim81/posmigrate/internal/sqlexec"
)

// statementDisplayLen bounds Finding.Statement.
const statementDisplayLen = 80

// Option configures the Analyzer.
type Option func(*Analyzer)

// Analyzer runs registered rules against parsed migrations.
type Analyzer struct {
	registry *Registry
	splitFn  func(string) ([]string, error)
}

// New creates a new Analyzer with the given options.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		registry: NewRegistry(),
		splitFn:  parser.SplitStrict,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// WithRegistry sets a custom rule registry.
func WithRegistry(r *Registry) Option {
	return func(a *Analyzer) { a.registry = r }
}

// WithSplitter overrides the statement splitter (useful for testing).
func WithSplitter(fn func(string) ([]string, error)) Option {
	return func(a *Analyzer) { a.splitFn = fn }
}

// Analyze splits and analyzes a single migration, returning all findings.
func (a *Analyzer) Analyze(m *migration.Migration) (*AnalysisResult, error) {
	stmts, err := a.splitFn(m.SQL)
	if err != nil {
		return nil, fmt.Errorf("parsing migration %s: %w", m.Version, err)
	}

	var findings []Finding

	maxSeverity := Safe

	for i, text := range stmts {
		stmt := Statement{Text: text, Keyword: parser.LeadingKeyword(text)}
		ctx := &RuleContext{Migration: m, StmtIndex: i}

		for _, rule := range a.registry.Rules() {
			fs := rule.Check(stmt, ctx)
			for j := range fs {
				if fs[j].Statement == "" {
					fs[j].Statement = sqlexec.Truncate(text, statementDisplayLen)
				}

				if fs[j].Severity > maxSeverity {
					maxSeverity = fs[j].Severity
				}
			}

			findings = append(findings, fs...)
		}
	}

	return &AnalysisResult{
		Migration:   m,
		Findings:    findings,
		MaxSeverity: maxSeverity,
	}, nil
}

// AnalyzeAll analyzes multiple migrations and returns results for each.
func (a *Analyzer) AnalyzeAll(migrations []migration.Migration) ([]AnalysisResult, error) {
	results := make([]AnalysisResult, 0, len(migrations))

	for i := range migrations {
		r, err := a.Analyze(&migrations[i])
		if err != nil {
			return nil, err
		}

		results = append(results, *r)
	}

	return results, nil
}
