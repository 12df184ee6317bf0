package bibtex

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

type Options struct {
	// Commands gives @string, @preamble and @comment their usual bibtex
	// shapes: @string{name = value} binds names without a key, @preamble{value}
	// holds a single value stored as field "preamble", and @comment{...} is
	// skipped. Without it every entry type goes through the same production.
	Commands bool
	// Junk skips any text between entries up to the next '@', the way
	// bibtex treats it as an implicit comment.
	Junk bool
}

// Parse parses a complete bibtex source. On failure the error is a
// *ParseError and no entries are returned.
func Parse(input string) (Document, error) {
	return ParseWith(input, Options{})
}

// ParseWith is Parse with options.
func ParseWith(input string, opts Options) (Document, error) {
	p := newParser(input, opts)
	doc, err := p.parseDocument()
	if err != nil {
		return nil, p.report()
	}
	return doc, nil
}

// ParseReader parses a bibtex source provided as io.Reader or, when r is
// nil, the file called fileName.
func ParseReader(r io.Reader, fileName string, opts Options) (*File, error) {
	if r == nil {
		if fileName == "" {
			return nil, fmt.Errorf("nothing to parse")
		}
		f, err := os.Open(fileName)
		if err != nil {
			return nil, fmt.Errorf("can't process file %s: %w", fileName, err)
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("can't read %s: %w", fileName, err)
	}
	b = bytes.TrimPrefix(b, []byte("\uFEFF"))
	// Normalize \r\n to \n on all input lines.
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	doc, err := ParseWith(string(b), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return NewFile(fileName, doc), nil
}

// parser is the grammar layer. Each parseX method either consumes one X
// or fails and leaves the cursor where it found it.
type parser struct {
	cursor
	opts Options
	// line of lineOffset; entries are visited in order so counting
	// resumes from the previous entry.
	line       int
	lineOffset int
}

func newParser(input string, opts Options) *parser {
	return &parser{cursor: cursor{src: input}, opts: opts, line: 1}
}

// report returns the furthest failure with its line and column.
func (p *parser) report() *ParseError {
	err := p.furthest
	if err == nil {
		err = &ParseError{Offset: p.pos, Production: "document", Msg: "unexpected input"}
	}
	err.locate(p.src)
	return err
}

func (p *parser) lineAt(offset int) int {
	p.line += strings.Count(p.src[p.lineOffset:offset], "\n")
	p.lineOffset = offset
	return p.line
}

// Document := skip Entry+ EOF
func (p *parser) parseDocument() (Document, error) {
	p.skip()
	var doc Document
	for blocks := 0; ; blocks++ {
		if p.opts.Junk {
			p.skipJunk()
		}
		if blocks > 0 && p.eof() {
			break
		}
		e, keep, err := p.parseEntry()
		if err != nil {
			return nil, err
		}
		if keep {
			doc = append(doc, e)
		}
	}
	return doc, nil
}

func (p *parser) skipJunk() {
	if i := strings.IndexByte(p.src[p.pos:], AT[0]); i >= 0 {
		p.pos += i
	} else {
		p.pos = len(p.src)
	}
}

// Entry := '@' ident '{' ident ',' FieldList ','? '}'
//
// keep is false for a skipped @comment.
func (p *parser) parseEntry() (e Entry, keep bool, err error) {
	start := p.pos
	defer func() {
		if err != nil {
			p.pos = start
		}
	}()
	if err = p.expect("entry", AT); err != nil {
		return e, false, err
	}
	e.Type, err = p.identifier("entry type")
	if err != nil {
		return e, false, err
	}
	e.Offset = start
	e.Line = p.lineAt(start)
	if p.opts.Commands {
		switch strings.ToLower(e.Type) {
		case "comment":
			_, err = p.braced()
			return e, false, err
		case "string":
			err = p.parseStringBody(&e)
			return e, err == nil, err
		case "preamble":
			err = p.parsePreambleBody(&e)
			return e, err == nil, err
		}
	}
	if err = p.expect("entry", LBRACE); err != nil {
		return e, false, err
	}
	if e.Key, err = p.identifier("entry key"); err != nil {
		return e, false, err
	}
	if err = p.expect("entry", COMMA); err != nil {
		return e, false, err
	}
	e.Names, e.Fields = collect(p.parseFieldList())
	p.accept(COMMA)
	if err = p.expect("entry", RBRACE); err != nil {
		return e, false, err
	}
	return e, true, nil
}

// @string body := '{' FieldList ','? '}'
func (p *parser) parseStringBody(e *Entry) error {
	if err := p.expect("string", LBRACE); err != nil {
		return err
	}
	e.Names, e.Fields = collect(p.parseFieldList())
	p.accept(COMMA)
	return p.expect("string", RBRACE)
}

// @preamble body := '{' Value '}'
func (p *parser) parsePreambleBody(e *Entry) error {
	if err := p.expect("preamble", LBRACE); err != nil {
		return err
	}
	v, err := p.parseValue()
	if err != nil {
		return err
	}
	e.Names, e.Fields = collect([]field{{name: "preamble", value: v}})
	return p.expect("preamble", RBRACE)
}

type field struct {
	name  string
	value Value
}

// collect builds the field map; a repeated name keeps its first position
// and its last value.
func collect(fields []field) ([]string, map[string]Value) {
	names := make([]string, 0, len(fields))
	m := make(map[string]Value, len(fields))
	for _, f := range fields {
		if _, seen := m[f.name]; !seen {
			names = append(names, f.name)
		}
		m[f.name] = f.value
	}
	return names, m
}

// FieldList := Field (',' Field)* / Field+
//
// Ordered choice: the separated form wins whenever it matches at least one
// field; the unseparated run is only tried when it matched none.
func (p *parser) parseFieldList() []field {
	if fields := p.parseSeparatedFields(); len(fields) > 0 {
		return fields
	}
	return p.parseFieldRun()
}

func (p *parser) parseSeparatedFields() []field {
	f, err := p.parseField()
	if err != nil {
		return nil
	}
	fields := []field{f}
	for {
		mark := p.pos
		if err := p.expect("field list", COMMA); err != nil {
			return fields
		}
		f, err := p.parseField()
		if err != nil {
			p.pos = mark
			return fields
		}
		fields = append(fields, f)
	}
}

func (p *parser) parseFieldRun() []field {
	var fields []field
	for {
		f, err := p.parseField()
		if err != nil {
			return fields
		}
		fields = append(fields, f)
	}
}

// Field := ident '=' Value
func (p *parser) parseField() (f field, err error) {
	start := p.pos
	defer func() {
		if err != nil {
			p.pos = start
		}
	}()
	if f.name, err = p.identifier("field name"); err != nil {
		return f, err
	}
	if err = p.expect("field", EQUAL); err != nil {
		return f, err
	}
	f.value, err = p.parseValue()
	return f, err
}

// Value := Atom ('#' Atom)*
//
// The result is always a Concatenation, even for a single atom.
func (p *parser) parseValue() (Value, error) {
	a, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	parts := []Value{a}
	for {
		mark := p.pos
		if !p.accept(HASH) {
			break
		}
		a, err := p.parseAtom()
		if err != nil {
			p.pos = mark
			break
		}
		parts = append(parts, a)
	}
	return Concatenation{Parts: parts}, nil
}

// Atom := String / ident
func (p *parser) parseAtom() (Value, error) {
	if !p.eof() && (p.src[p.pos] == QUOTE || p.src[p.pos] == LBRACE[0]) {
		s, err := p.stringLiteral()
		if err != nil {
			return nil, err
		}
		return StringLiteral{Text: s}, nil
	}
	name, err := p.identifier("value")
	if err != nil {
		return nil, err
	}
	return Identifier{Name: name}, nil
}
