package bibtex

import (
	"fmt"
	"unicode/utf8"
)

// ParseError reports where and why a parse failed. Production names the
// innermost grammar rule that could not match.
type ParseError struct {
	Offset     int // byte offset into the input
	Line       int // 1-based
	Column     int // 1-based, in runes
	Production string
	Msg        string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing error at %d:%d (offset %d): %s in %s",
		e.Line, e.Column, e.Offset, e.Msg, e.Production)
}

// locate fills in Line and Column from Offset.
func (e *ParseError) locate(src string) {
	line, lineStart := 1, 0
	end := min(e.Offset, len(src))
	for i := 0; i < end; i++ {
		if src[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	e.Line = line
	e.Column = utf8.RuneCountInString(src[lineStart:end]) + 1
}
