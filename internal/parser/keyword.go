package parser

import (
	"strings"
	"unicode"
)

// LeadingKeyword returns the first word of a statement in lower case, or "" for an empty
// statement. Leading whitespace and an opening parenthesis are skipped.
func LeadingKeyword(stmt string) string {
	s := strings.TrimLeft(stmt, " \t\r\n(")

	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '_'
	})
	if end < 0 {
		end = len(s)
	}

	return strings.ToLower(s[:end])
}
