// Package zsqlite holds the statement helpers shared by the adapters built on
// zombiezen.com/go/sqlite.
package zsqlite

import (
	"errors"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"

	"github.com/aqasim81/posmigrate/internal/sqlexec"
)

// ErrUnsupportedParam is returned for a parameter whose Go type has no SQLite binding.
var ErrUnsupportedParam = errors.New("unsupported parameter type")

// Bind binds params to stmt positionally, starting at parameter 1.
func Bind(stmt *sqlite.Stmt, params []any) error {
	if n := stmt.BindParamCount(); n != len(params) {
		return fmt.Errorf("statement expects %d parameters, got %d", n, len(params))
	}

	for i, p := range params {
		if err := bindOne(stmt, i+1, p); err != nil {
			return fmt.Errorf("binding parameter %d: %w", i+1, err)
		}
	}

	return nil
}

func bindOne(stmt *sqlite.Stmt, pos int, p any) error {
	switch v := p.(type) {
	case nil:
		stmt.BindNull(pos)
	case int:
		stmt.BindInt64(pos, int64(v))
	case int32:
		stmt.BindInt64(pos, int64(v))
	case int64:
		stmt.BindInt64(pos, v)
	case uint32:
		stmt.BindInt64(pos, int64(v))
	case float32:
		stmt.BindFloat(pos, float64(v))
	case float64:
		stmt.BindFloat(pos, v)
	case bool:
		stmt.BindBool(pos, v)
	case string:
		stmt.BindText(pos, v)
	case []byte:
		stmt.BindBytes(pos, v)
	case time.Time:
		stmt.BindText(pos, v.UTC().Format(time.RFC3339Nano))
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedParam, p)
	}

	return nil
}

// ReadRow copies the current row of stmt into a Row keyed by column name.
func ReadRow(stmt *sqlite.Stmt) sqlexec.Row {
	row := make(sqlexec.Row, stmt.ColumnCount())

	for i, n := 0, stmt.ColumnCount(); i < n; i++ {
		name := stmt.ColumnName(i)

		switch stmt.ColumnType(i) {
		case sqlite.TypeInteger:
			row[name] = stmt.ColumnInt64(i)
		case sqlite.TypeFloat:
			row[name] = stmt.ColumnFloat(i)
		case sqlite.TypeText:
			row[name] = stmt.ColumnText(i)
		case sqlite.TypeBlob:
			buf := make([]byte, stmt.ColumnLen(i))
			stmt.ColumnBytes(i, buf)
			row[name] = buf
		default:
			row[name] = nil
		}
	}

	return row
}

// StepAll steps stmt to completion and returns every row it produced.
func StepAll(stmt *sqlite.Stmt) ([]sqlexec.Row, error) {
	var rows []sqlexec.Row

	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return rows, err
		}

		if !hasRow {
			return rows, nil
		}

		rows = append(rows, ReadRow(stmt))
	}
}
