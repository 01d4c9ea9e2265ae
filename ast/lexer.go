package ast

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// scanner walks the source byte by byte. The notation has no separate token
// stream: parsers peek at raw characters and skip trivia where the grammar
// allows it.
type scanner struct {
	input string
	pos   int
}

// skipTrivia skips whitespace and // comments.
func (s *scanner) skipTrivia() {
	for s.pos < len(s.input) {
		ch := s.input[s.pos]

		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			s.pos++
			continue
		}

		if ch == '/' && s.pos+1 < len(s.input) && s.input[s.pos+1] == '/' {
			for s.pos < len(s.input) && s.input[s.pos] != '\n' {
				s.pos++
			}
			continue
		}

		break
	}
}

// peek returns the current byte, or 0 at end of input.
func (s *scanner) peek() byte {
	if s.pos >= len(s.input) {
		return 0
	}
	return s.input[s.pos]
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.input)
}

// tryConsume advances past prefix if the input continues with it. Trivia is
// not skipped.
func (s *scanner) tryConsume(prefix string) bool {
	if strings.HasPrefix(s.input[s.pos:], prefix) {
		s.pos += len(prefix)
		return true
	}
	return false
}

// consume skips trivia and then requires text.
func (s *scanner) consume(text string) error {
	s.skipTrivia()
	if s.tryConsume(text) {
		return nil
	}
	return s.expected(fmt.Sprintf("'%s'", text))
}

// takeWhile advances over the longest run of runes satisfying pred.
func (s *scanner) takeWhile(pred func(rune) bool) string {
	start := s.pos
	for s.pos < len(s.input) {
		r, size := utf8.DecodeRuneInString(s.input[s.pos:])
		if !pred(r) {
			break
		}
		s.pos += size
	}
	return s.input[start:s.pos]
}

// parseName skips trivia and reads a non-empty name.
func (s *scanner) parseName() (string, error) {
	s.skipTrivia()
	name := s.takeWhile(isNameRune)
	if name == "" {
		return "", s.expected("name")
	}
	return name, nil
}

// expected builds an error for the current position.
func (s *scanner) expected(what string) *SyntaxError {
	if s.atEnd() {
		return s.errorAt(s.pos, s.pos, "expected %s, found end of input", what)
	}
	r, size := utf8.DecodeRuneInString(s.input[s.pos:])
	return s.errorAt(s.pos, s.pos+size, "expected %s, found %q", what, r)
}

// errorAt builds an error covering input[start:end].
func (s *scanner) errorAt(start, end int, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{
		Message: fmt.Sprintf(format, args...),
		Span:    Span{Start: start, End: end},
		Pos:     positionAt(s.input, start),
		AtEOF:   start >= len(s.input),
	}
}

// positionAt converts a byte offset to a line and column.
func positionAt(input string, offset int) Position {
	if offset > len(input) {
		offset = len(input)
	}
	line := 1 + strings.Count(input[:offset], "\n")
	lineStart := strings.LastIndexByte(input[:offset], '\n') + 1
	return Position{
		Line:   line,
		Column: utf8.RuneCountInString(input[lineStart:offset]) + 1,
		Offset: offset,
	}
}

// Character classification

func isNameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == '-' || r == '/'
}

func isLiteralRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '-' || r == '.'
}

func isNumberStart(ch byte) bool {
	return (ch >= '0' && ch <= '9') || ch == '+' || ch == '-' || ch == '['
}

// IsValidName reports whether s can be written as a variable or definition name.
func IsValidName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isNameRune(r) {
			return false
		}
	}
	return true
}
