package bibtex

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	AT     = "@"
	LBRACE = "{"
	RBRACE = "}"
	COMMA  = ","
	EQUAL  = "="
	HASH   = "#"
	QUOTE  = '"'
)

// cursor is the lexical layer. Every token method consumes the whitespace
// and comments that follow the token, and leaves pos untouched on failure.
type cursor struct {
	src string
	pos int
	// furthest is the failure that got furthest into src; ties go to the
	// most recent one.
	furthest *ParseError
}

func (c *cursor) eof() bool {
	return c.pos >= len(c.src)
}

func (c *cursor) fail(offset int, production, msg string) *ParseError {
	err := &ParseError{Offset: offset, Production: production, Msg: msg}
	if c.furthest == nil || offset >= c.furthest.Offset {
		c.furthest = err
	}
	return err
}

// skip consumes Unicode whitespace and % comments running to the end of
// the line (newline included) or of the input.
func (c *cursor) skip() {
	for c.pos < len(c.src) {
		ch, w := utf8.DecodeRuneInString(c.src[c.pos:])
		switch {
		case ch == '%':
			if i := strings.IndexByte(c.src[c.pos:], '\n'); i >= 0 {
				c.pos += i + 1
			} else {
				c.pos = len(c.src)
			}
		case unicode.IsSpace(ch):
			c.pos += w
		default:
			return
		}
	}
}

func isIdentChar(ch rune) bool {
	switch ch {
	case '-', '_', ':', '+':
		return true
	}
	return unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

// accept consumes lit, ignoring case, if it is next in the input.
func (c *cursor) accept(lit string) bool {
	end := c.pos + len(lit)
	if end > len(c.src) || !strings.EqualFold(c.src[c.pos:end], lit) {
		return false
	}
	c.pos = end
	c.skip()
	return true
}

// expect is accept that records a failure.
func (c *cursor) expect(production, lit string) error {
	if c.accept(lit) {
		return nil
	}
	return c.fail(c.pos, production, "expected '"+lit+"'")
}

// identifier scans the longest run of letters, digits and -_:+.
func (c *cursor) identifier(production string) (string, error) {
	start := c.pos
	end := start
	for end < len(c.src) {
		ch, w := utf8.DecodeRuneInString(c.src[end:])
		if !isIdentChar(ch) {
			break
		}
		end += w
	}
	if end == start {
		return "", c.fail(start, production, "expected identifier")
	}
	c.pos = end
	c.skip()
	return c.src[start:end], nil
}

// quoted scans "...". The content runs to the next quote; nothing is escaped.
func (c *cursor) quoted() (string, error) {
	start := c.pos
	if c.eof() || c.src[start] != QUOTE {
		return "", c.fail(start, "quoted string", `expected '"'`)
	}
	n := strings.IndexByte(c.src[start+1:], QUOTE)
	if n < 0 {
		return "", c.fail(len(c.src), "quoted string", "unterminated quoted string")
	}
	c.pos = start + 1 + n + 1
	c.skip()
	return c.src[start+1 : start+1+n], nil
}

// braced scans {...} with balanced nested braces and returns the text
// between the outer pair, inner braces included.
func (c *cursor) braced() (string, error) {
	start := c.pos
	if c.eof() || c.src[start] != LBRACE[0] {
		return "", c.fail(start, "braced string", "expected '{'")
	}
	depth := 0
	for i := start; i < len(c.src); i++ {
		switch c.src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				c.pos = i + 1
				c.skip()
				return c.src[start+1 : i], nil
			}
		}
	}
	return "", c.fail(len(c.src), "braced string", "unterminated braced string")
}

// stringLiteral scans either string form.
func (c *cursor) stringLiteral() (string, error) {
	if !c.eof() && c.src[c.pos] == QUOTE {
		return c.quoted()
	}
	return c.braced()
}
