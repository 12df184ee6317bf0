// Package diag renders parse failures for terminals.
package diag

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/drgo/bibtex"
	"github.com/fatih/color"
)

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgHiBlue, color.Bold)
	messageStyle = color.New(color.FgRed, color.Bold)
	ruleStyle    = color.New(color.FgYellow)
)

// Format renders err. A *bibtex.ParseError becomes
//
//	file:line:col: error: msg (production)
//	 12 | offending source line
//	    |     ^
//
// anything else is printed as is.
func Format(err error, filename string, src []byte) string {
	var perr *bibtex.ParseError
	if !errors.As(err, &perr) {
		return errorStyle.Sprint("error: ") + err.Error() + "\n"
	}

	var b strings.Builder
	b.WriteString(fileStyle.Sprintf("%s:%d:%d: ", filename, perr.Line, perr.Column))
	b.WriteString(errorStyle.Sprint("error: "))
	b.WriteString(messageStyle.Sprint(perr.Msg))
	b.WriteString(ruleStyle.Sprintf(" (%s)", perr.Production))
	b.WriteByte('\n')

	line, ok := sourceLine(src, perr.Line)
	if !ok {
		return b.String()
	}
	num := fmt.Sprintf("%d", perr.Line)
	padding := strings.Repeat(" ", len(num))
	b.WriteString(lineStyle.Sprintf(" %s | ", num))
	b.WriteString(line)
	b.WriteByte('\n')
	b.WriteString(lineStyle.Sprintf(" %s | ", padding))
	b.WriteString(caretPadding(line, perr.Column))
	b.WriteString(errorStyle.Sprint("^"))
	b.WriteByte('\n')
	return b.String()
}

// sourceLine returns the 1-based line n of src without its line ending.
func sourceLine(src []byte, n int) (string, bool) {
	lines := strings.Split(string(src), "\n")
	if n < 1 || n > len(lines) {
		return "", false
	}
	return strings.TrimSuffix(lines[n-1], "\r"), true
}

// caretPadding returns the run of blanks that puts a caret under column col,
// copying tabs so the caret lines up however the terminal expands them.
func caretPadding(line string, col int) string {
	var b strings.Builder
	for i := 1; i < col && line != ""; i++ {
		r, w := utf8.DecodeRuneInString(line)
		line = line[w:]
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	for b.Len() < col-1 {
		b.WriteByte(' ')
	}
	return b.String()
}
