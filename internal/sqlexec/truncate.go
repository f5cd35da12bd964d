package sqlexec

import "strings"

// DefaultTruncateLen is the statement length adapters keep in log lines and errors.
const DefaultTruncateLen = 120

// Truncate collapses whitespace runs in stmt to single spaces and cuts the result to
// maxLen characters, marking the cut with "...".
func Truncate(stmt string, maxLen int) string {
	s := strings.Join(strings.Fields(stmt), " ")
	if len(s) <= maxLen {
		return s
	}

	if maxLen <= 3 { //nolint:mnd // room for the ellipsis
		return s[:maxLen]
	}

	return s[:maxLen-3] + "..."
}
