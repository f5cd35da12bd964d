// Package migration defines migration values and the ordered registry the runner walks.
package migration

import "fmt"

// Migration is one versioned, one-time schema or data change expressed as raw SQL.
type Migration struct {
	Version     string // zero-padded ordinal, e.g. "001"
	Description string // human-readable summary, e.g. "create products"
	SQL         string // raw multi-statement script
}

// String returns "version (description)" for log and CLI output.
func (m Migration) String() string {
	return fmt.Sprintf("%s (%s)", m.Version, m.Description)
}

// Validate checks the registry invariants: every version is non-empty, versions are
// unique, and registry order agrees with ascending version order. The runner applies
// migrations in registry order and never re-sorts, so an inconsistent registry is an
// authoring mistake.
func Validate(migrations []Migration) error {
	seen := make(map[string]int, len(migrations))

	for i, m := range migrations {
		if m.Version == "" {
			return fmt.Errorf("migration at position %d: %w", i, ErrEmptyVersion)
		}

		if prev, ok := seen[m.Version]; ok {
			return fmt.Errorf("version %s at positions %d and %d: %w", m.Version, prev, i, ErrDuplicateVersion)
		}

		seen[m.Version] = i

		if i > 0 && Less(m.Version, migrations[i-1].Version) {
			return fmt.Errorf("version %s follows %s: %w", m.Version, migrations[i-1].Version, ErrOutOfOrder)
		}
	}

	return nil
}
