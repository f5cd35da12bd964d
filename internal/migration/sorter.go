package migration

import (
	"sort"
	"strings"
)

// Sort returns a new slice of migrations sorted by Version. The sort is stable to
// preserve insertion order for equal versions.
func Sort(migrations []Migration) []Migration {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)

	sort.SliceStable(sorted, func(i, j int) bool {
		return Less(sorted[i].Version, sorted[j].Version)
	})

	return sorted
}

// Less orders two versions. Numeric versions of different widths compare by value
// ("9" < "10"); anything else falls back to lexicographic order.
func Less(a, b string) bool {
	if isDigits(a) && isDigits(b) {
		a, b = strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if len(a) != len(b) {
			return len(a) < len(b)
		}
	}

	return a < b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
