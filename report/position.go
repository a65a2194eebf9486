package report

import "fmt"

// TextSpan represents a range or "span" of source text.  Text spans are
// inclusive on both sides: the starting position is the position of the first
// character in the span and the ending position is the position of the last
// character in the span.  The line and column numbers are zero-indexed.
type TextSpan struct {
	// The line and column beginning the text span.
	StartLine, StartCol int

	// The line and column ending the text span.
	EndLine, EndCol int
}

// NewSpanOver returns a new text span which spans over and between the two
// given text spans.
func NewSpanOver(start, end *TextSpan) *TextSpan {
	if start == nil {
		return end
	} else if end == nil {
		return start
	}

	return &TextSpan{
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

// Position returns the display position of the start of the span.
func (span *TextSpan) Position() Position {
	if span == nil {
		return Position{}
	}

	return Position{Line: span.StartLine + 1, Column: span.StartCol + 1}
}

// -----------------------------------------------------------------------------

// Position is a one-indexed line and column used when displaying diagnostics.
// The zero position means "unknown".
type Position struct {
	Line, Column int
}

// Known returns whether the position refers to an actual location.
func (p Position) Known() bool {
	return p.Line > 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
