package desktop

import (
	"database/sql"
	"fmt"

	"github.com/aqasim81/posmigrate/internal/sqlexec"
)

// scanRows drains rows into column-keyed maps and closes it.
func scanRows(rows *sql.Rows) ([]sqlexec.Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var out []sqlexec.Row

	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))

		for i := range values {
			dest[i] = &values[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		row := make(sqlexec.Row, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}

		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return out, nil
}
