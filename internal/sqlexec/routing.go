package sqlexec

import (
	"regexp"
	"strings"

	"github.com/aqasim81/posmigrate/internal/parser"
)

// Route selects how an adapter runs a statement.
type Route int

const (
	// RoutePrepared prepares the statement, binds parameters, and executes it.
	RoutePrepared Route = iota
	// RouteDirect executes the statement as-is with no parameter binding.
	RouteDirect
)

// String returns the lower-case route name.
func (r Route) String() string {
	if r == RouteDirect {
		return "direct"
	}

	return "prepared"
}

// RoutingTable lists the leading keywords an engine sends down the direct path.
// Every other statement is prepared.
type RoutingTable map[string]struct{}

// NewRoutingTable builds a table from keywords, case-insensitively.
func NewRoutingTable(keywords ...string) RoutingTable {
	t := make(RoutingTable, len(keywords))
	for _, k := range keywords {
		t[strings.ToLower(k)] = struct{}{}
	}

	return t
}

// Route classifies stmt by its leading keyword.
func (t RoutingTable) Route(stmt string) Route {
	if _, ok := t[parser.LeadingKeyword(stmt)]; ok {
		return RouteDirect
	}

	return RoutePrepared
}

// Routing tables are tuned per engine. The desktop engine also runs INSERT directly
// because batched seed inserts are more reliable there without binding; the mobile and
// browser engines reject binding on DDL only.
var (
	DesktopRoutes  = NewRoutingTable("create", "drop", "alter", "pragma", "insert") //nolint:gochecknoglobals // fixed tables
	DefaultRoutes  = NewRoutingTable("create", "drop", "alter", "pragma")           //nolint:gochecknoglobals // fixed tables
	PostgresRoutes = NewRoutingTable("create", "drop", "alter")                     //nolint:gochecknoglobals // fixed tables
)

// returningPattern matches a RETURNING clause wherever it sits on the line.
var returningPattern = regexp.MustCompile(`(?i)\bRETURNING\b`) //nolint:gochecknoglobals // compiled once

// readKeywords are leading keywords whose statements produce rows.
var readKeywords = map[string]struct{}{ //nolint:gochecknoglobals // lookup table
	"select":  {},
	"with":    {},
	"values":  {},
	"explain": {},
}

// ReturnsRows reports whether stmt produces a result set: a query, or a write with a
// RETURNING clause.
func ReturnsRows(stmt string) bool {
	if _, ok := readKeywords[parser.LeadingKeyword(stmt)]; ok {
		return true
	}

	return returningPattern.MatchString(stmt)
}
