package ast

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Neumenon/hvmc/hvm"
)

// Position is a source location. Line and Column are 1-based, Offset is a byte offset.
type Position struct {
	Line   int
	Column int
	Offset int
}

// String returns position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a half-open byte range [Start, End) of the source.
type Span struct {
	Start int
	End   int
}

// SyntaxError is a malformed token or a missing delimiter.
type SyntaxError struct {
	Message string
	Span    Span
	Pos     Position

	// AtEOF is set when the parser ran out of input, so more text could
	// still complete it.
	AtEOF bool
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at %s", e.Message, e.Pos)
}

// Snippet renders the error with the offending line of src, one line of
// context on each side and carets under the span.
//
//	expected ')' at 1:13
//
//	   1 | @main = (a b
//	     |             ^
func (e *SyntaxError) Snippet(src string) string {
	lines := strings.Split(src, "\n")
	line := e.Pos.Line
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	col := e.Pos.Column
	if col < 1 {
		col = 1
	}
	width := e.Span.End - e.Span.Start
	if width < 1 {
		width = 1
	}
	// Carets never run past the end of the line.
	if rest := len(lines[line-1]) - (col - 1); width > rest && rest > 0 {
		width = rest
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", e.Error())
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s%s\n", strings.Repeat(" ", col-1), strings.Repeat("^", width))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}

// IsIncomplete reports whether err is a syntax error caused by input ending
// early.
func IsIncomplete(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se) && se.AtEOF
}

// ErrMissingEntryPoint is returned when a book has no "main" definition.
var ErrMissingEntryPoint = errors.New("missing @main definition")

// UnboundReferenceError is returned when a Ref names no definition of the book.
type UnboundReferenceError struct {
	Name string // referenced name
	In   string // definition containing the reference
}

func (e *UnboundReferenceError) Error() string {
	return fmt.Sprintf("unbound reference @%s in @%s", e.Name, e.In)
}

// ErrUnrepresentable is the sentinel behind every UnrepresentableError.
var ErrUnrepresentable = errors.New("unrepresentable result")

// UnrepresentableError is returned by readback when the graph cannot be
// rendered as a tree.
type UnrepresentableError struct {
	Port   hvm.Port
	Reason string
}

func (e *UnrepresentableError) Error() string {
	return fmt.Sprintf("%v: %s at %s", ErrUnrepresentable, e.Reason, e.Port)
}

// Is matches ErrUnrepresentable.
func (e *UnrepresentableError) Is(target error) bool {
	return target == ErrUnrepresentable
}
