// Package parser splits raw SQL migration scripts into individually executable statements.
//
// The scanner is line oriented, not a SQL grammar. It understands line comments, block
// comments that start and end on line boundaries, and compound CREATE TRIGGER / CREATE VIEW
// statements whose BEGIN ... END bodies contain their own semicolons. Depth tracking inside
// compound statements is a per-line word scan: a BEGIN or END that appears inside a string
// literal, or a CASE ... END, moves the depth counter too. Migration files are written with
// that in mind, so the behavior is kept as is.
package parser //nolint:revive // intentional: does not conflict with go/parser in internal package

import (
	"strings"
)

// Split parses a migration script and returns its statements in source order.
// Unbalanced compound statements are not reported; the trailing buffer is returned as a
// final statement instead. Use SplitStrict to surface that case.
func Split(sql string) []string {
	stmts, _ := split(sql)

	return stmts
}

// SplitStrict is like Split but returns ErrUnbalancedBlock when the script ends inside a
// block comment or inside a compound statement whose BEGIN/END depth is not zero.
// The statements gathered so far are returned alongside the error.
func SplitStrict(sql string) ([]string, error) {
	return split(sql)
}

func split(sql string) ([]string, error) {
	var (
		state State
		stmts []string
	)

	for _, line := range strings.Split(sql, "\n") {
		if stmt, ok := state.Feed(line); ok {
			stmts = append(stmts, stmt.expand()...)
		}
	}

	balanced := state.Balanced()

	if stmt, ok := state.Flush(); ok {
		stmts = append(stmts, stmt.expand()...)
	}

	if !balanced {
		return stmts, ErrUnbalancedBlock
	}

	return stmts, nil
}

// expand splits a completed simple statement at top-level semicolons. Compound
// statements are returned untouched.
func (s Statement) expand() []string {
	if s.Compound {
		return []string{s.Text}
	}

	return splitOutsideQuotes(s.Text)
}

// splitOutsideQuotes cuts s after every ';' found outside quotes and comments. Pieces
// holding nothing but comments are dropped.
func splitOutsideQuotes(s string) []string {
	var (
		parts         []string
		quote         byte
		inLineComment bool
		inBlock       bool
		start         int
	)

	emit := func(piece string) {
		piece = stripCommentLines(piece)
		if piece != "" && piece != ";" && !onlyBlockComments(piece) {
			parts = append(parts, piece)
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case inLineComment:
			if c == '\n' {
				inLineComment = false
			}
		case inBlock:
			if c == '*' && i+1 < len(s) && s[i+1] == '/' {
				inBlock = false
				i++
			}
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '-' && i+1 < len(s) && s[i+1] == '-':
			inLineComment = true
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			inBlock = true
			i++
		case c == ';':
			emit(s[start : i+1])
			start = i + 1
		}
	}

	emit(s[start:])

	return parts
}

// onlyBlockComments reports whether piece is made of /* ... */ comments and an optional
// terminator, as left behind by "SELECT 1; /* note */".
func onlyBlockComments(piece string) bool {
	rest := strings.TrimSuffix(piece, statementTerminator)

	for {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return true
		}

		if !strings.HasPrefix(rest, blockCommentOpen) {
			return false
		}

		end := strings.Index(rest, blockCommentClose)
		if end < 0 {
			return false
		}

		rest = rest[end+len(blockCommentClose):]
	}
}

// stripCommentLines drops lines of piece that hold only a line comment. Those appear
// when a trailing "-- note" follows a semicolon on the same source line.
func stripCommentLines(piece string) string {
	lines := strings.Split(strings.TrimSpace(piece), "\n")
	kept := lines[:0]

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), lineCommentPrefix) {
			continue
		}

		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}
