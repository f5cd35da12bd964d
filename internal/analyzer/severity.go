package analyzer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSeverity is returned by ParseSeverity for an unrecognized label.
var ErrUnknownSeverity = errors.New("unknown severity")

// Severity represents the danger level of a finding.
type Severity int

const (
	// Safe indicates no danger detected.
	Safe Severity = iota
	// Low indicates a minor concern.
	Low
	// Medium indicates moderate risk with workarounds available.
	Medium
	// High indicates the statement is likely to fail on SQLite or be mis-split.
	High
	// Critical indicates data loss.
	Critical
)

// String returns the uppercase label for the severity level.
func (s Severity) String() string {
	switch s {
	case Safe:
		return "SAFE"
	case Low:
		return "LOW"
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity maps a label such as "high" to its Severity, case-insensitively.
func ParseSeverity(label string) (Severity, error) {
	for s := Safe; s <= Critical; s++ {
		if strings.EqualFold(label, s.String()) {
			return s, nil
		}
	}

	return Safe, fmt.Errorf("%w: %q", ErrUnknownSeverity, label)
}
