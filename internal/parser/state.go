package parser

import (
	"regexp"
	"strings"
)

const (
	lineCommentPrefix   = "--"
	blockCommentOpen    = "/*"
	blockCommentClose   = "*/"
	statementTerminator = ";"
)

var (
	compoundStartPattern = regexp.MustCompile( //nolint:gochecknoglobals // compiled once
		`(?i)\bCREATE\s+(?:TEMP\s+|TEMPORARY\s+)?(?:TRIGGER|VIEW)\b`,
	)
	blockOpenPattern  = regexp.MustCompile(`(?i)\bBEGIN\b`) //nolint:gochecknoglobals // compiled once
	blockClosePattern = regexp.MustCompile(`(?i)\bEND\b`)   //nolint:gochecknoglobals // compiled once
)

// Statement is a complete statement emitted by State.
type Statement struct {
	Text     string
	Compound bool // CREATE TRIGGER or CREATE VIEW
}

// State is the line scanner's accumulator. The zero value is ready to use.
type State struct {
	buf            []string
	inBlockComment bool
	compound       bool
	depth          int
}

// Feed advances the scanner by one source line. It returns the completed statement
// when this line terminates one.
func (s *State) Feed(line string) (Statement, bool) {
	line = strings.TrimRight(line, "\r")
	trimmed := strings.TrimSpace(line)

	if !s.inBlockComment && strings.HasPrefix(trimmed, blockCommentOpen) {
		s.inBlockComment = true
	}

	if s.inBlockComment {
		if strings.HasSuffix(trimmed, blockCommentClose) {
			s.inBlockComment = false
		}

		return Statement{}, false
	}

	if trimmed == "" || strings.HasPrefix(trimmed, lineCommentPrefix) {
		return Statement{}, false
	}

	if compoundStartPattern.MatchString(line) {
		s.compound = true
	}

	if s.compound {
		if blockOpenPattern.MatchString(line) {
			s.depth++
		}

		if blockClosePattern.MatchString(line) {
			s.depth--
		}
	}

	s.buf = append(s.buf, line)

	if !strings.HasSuffix(trimmed, statementTerminator) {
		return Statement{}, false
	}

	if s.compound && s.depth != 0 {
		return Statement{}, false
	}

	return s.take(), true
}

// Flush returns whatever is left in the buffer once input is exhausted. A script whose
// last statement lacks a terminator still yields that statement.
func (s *State) Flush() (Statement, bool) {
	if len(s.buf) == 0 {
		return Statement{}, false
	}

	stmt := s.take()
	if stmt.Text == "" {
		return Statement{}, false
	}

	return stmt, true
}

// Balanced reports whether the scanner sits outside any block comment and outside any
// compound statement with an open BEGIN.
func (s *State) Balanced() bool {
	return !s.inBlockComment && !(s.compound && s.depth != 0)
}

// InBlockComment reports whether the scanner is inside a /* ... */ block.
func (s *State) InBlockComment() bool { return s.inBlockComment }

// Depth returns the current BEGIN/END nesting depth of the pending compound statement.
func (s *State) Depth() int { return s.depth }

func (s *State) take() Statement {
	stmt := Statement{
		Text:     strings.TrimSpace(strings.Join(s.buf, "\n")),
		Compound: s.compound,
	}

	s.buf = s.buf[:0]
	s.compound = false
	s.depth = 0

	return stmt
}
