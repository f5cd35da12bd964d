package ledger

import (
	"errors"
	"fmt"
	"time"
)

var errUnexpectedType = errors.New("unexpected column type")

// sqliteTimeLayouts are the textual forms SQLite drivers return for DATETIME columns.
var sqliteTimeLayouts = []string{ //nolint:gochecknoglobals // fixed list
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

func stringValue(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", fmt.Errorf("%w: %T", errUnexpectedType, v)
	}
}

func timeValue(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case nil:
		return time.Time{}, nil
	}

	s, err := stringValue(v)
	if err != nil {
		return time.Time{}, err
	}

	for _, layout := range sqliteTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("parsing applied_at %q: %w", s, errUnexpectedType)
}

func recordFromRow(row map[string]any) (Record, error) {
	version, err := stringValue(row["version"])
	if err != nil {
		return Record{}, fmt.Errorf("version column: %w", err)
	}

	description, err := stringValue(row["description"])
	if err != nil {
		return Record{}, fmt.Errorf("description column: %w", err)
	}

	appliedAt, err := timeValue(row["applied_at"])
	if err != nil {
		return Record{}, fmt.Errorf("applied_at column: %w", err)
	}

	return Record{Version: version, Description: description, AppliedAt: appliedAt}, nil
}
