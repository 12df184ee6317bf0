package diag

import (
	"errors"
	"testing"

	"github.com/drgo/bibtex"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func TestFormatParseError(t *testing.T) {
	src := "@book{k,\n\ta = {x},\n\tb = ? {y}\n}"
	_, err := bibtex.Parse(src)
	require.Error(t, err)

	got := Format(err, "refs.bib", []byte(src))
	assert.Equal(t, "refs.bib:3:6: error: expected identifier (value)\n"+
		" 3 | \tb = ? {y}\n"+
		"   | \t    ^\n", got)
}

func TestFormatOtherError(t *testing.T) {
	got := Format(errors.New("boom"), "refs.bib", nil)
	assert.Equal(t, "error: boom\n", got)
}

func TestFormatLineOutOfRange(t *testing.T) {
	err := &bibtex.ParseError{Line: 9, Column: 1, Production: "entry", Msg: "expected '@'"}
	got := Format(err, "refs.bib", []byte("one line"))
	assert.Equal(t, "refs.bib:9:1: error: expected '@' (entry)\n", got)
}

func TestCaretPadding(t *testing.T) {
	assert.Equal(t, "", caretPadding("abc", 1))
	assert.Equal(t, "  ", caretPadding("ébc", 3))
	assert.Equal(t, "\t ", caretPadding("\tx", 3))
	assert.Equal(t, "    ", caretPadding("ab", 5))
}
