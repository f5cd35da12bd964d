package analyzer

import (
	"regexp"
	"strings"

	"github.com/aqasim81/posmigrate/internal/migration"
)

// Statement is one parsed statement handed to rules.
type Statement struct {
	Text    string
	Keyword string // lower-cased leading keyword
}

// Rule is the interface that all danger detection rules must implement.
type Rule interface {
	// ID returns a unique kebab-case identifier for this rule.
	ID() string
	// Check examines a single statement and returns any findings.
	Check(stmt Statement, ctx *RuleContext) []Finding
}

// RuleContext provides contextual information to rules during analysis.
type RuleContext struct {
	Migration *migration.Migration
	StmtIndex int
}

// Registry holds a collection of rules.
type Registry struct {
	rules []Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a rule to the registry.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// Rules returns all registered rules.
func (r *Registry) Rules() []Rule {
	return r.rules
}

// Ident matches one possibly quoted, possibly schema-qualified SQLite identifier and
// captures it. Rules embed it in their patterns.
const Ident = "([\"`\\[]?[A-Za-z_][A-Za-z0-9_]*[\"`\\]]?(?:\\.[\"`\\[]?[A-Za-z_][A-Za-z0-9_]*[\"`\\]]?)?)"

// TableName returns the identifier captured by re's first group in text, with quotes
// removed, or "<unknown>".
func TableName(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 || m[1] == "" { //nolint:mnd // full match plus one group
		return "<unknown>"
	}

	return strings.NewReplacer(`"`, "", "`", "", "[", "", "]", "").Replace(m[1])
}
