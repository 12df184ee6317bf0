package bibtex

import (
	"fmt"
	"strings"
)

// Document is the ordered list of entries found in one bibtex source.
// Entries sharing a key are kept as separate entries.
type Document []Entry

// File is a Document read from a named source.
type File struct {
	Entries Document
	name    string
}

// NewFile returns a File named fileName holding doc.
func NewFile(fileName string, doc Document) *File {
	return &File{Entries: doc, name: fileName}
}

func newRoot(fileName string) *File {
	return &File{name: fileName}
}

func (f *File) AddEntry(e Entry) {
	f.Entries = append(f.Entries, e)
}

func (f *File) EntryCount() int {
	return len(f.Entries)
}

func (f *File) Name() string {
	return f.name
}

// Entry is one @type{key, name = value, ...} record.
type Entry struct {
	Type string `json:"type" yaml:"type"` // as written, not normalized
	Key  string `json:"key" yaml:"key"`
	// Fields maps a field name to its value. Every value is a Concatenation.
	// When a name is repeated within an entry the last value wins.
	Fields map[string]Value `json:"fields" yaml:"fields"`
	// Names lists the distinct field names in order of first appearance.
	Names  []string `json:"-" yaml:"-"`
	Offset int      `json:"-" yaml:"-"` // byte offset of '@'
	Line   int      `json:"line,omitempty" yaml:"line,omitempty"`
}

// Field returns the value of the field called name.
func (e Entry) Field(name string) (Value, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

// FieldFold is like Field but matches name ignoring ASCII case.
func (e Entry) FieldFold(name string) (Value, bool) {
	if v, ok := e.Fields[name]; ok {
		return v, true
	}
	for _, n := range e.Names {
		if strings.EqualFold(n, name) {
			return e.Fields[n], true
		}
	}
	return nil, false
}

func (e Entry) BibtexRepr() string {
	return fmt.Sprintf("@%s{%s,\n", e.Type, e.Key)
}

// isCommand reports whether e is a @string, @preamble or @comment entry.
func (e Entry) isCommand() bool {
	switch strings.ToLower(e.Type) {
	case "string", "preamble", "comment":
		return true
	}
	return false
}

// Value is a field value: a StringLiteral, an Identifier or a Concatenation.
// A Concatenation only ever holds StringLiteral and Identifier parts.
type Value interface {
	// String renders the value in bibtex syntax.
	String() string
	isValue()
}

// StringLiteral is the text of a quoted or braced string, delimiters stripped.
type StringLiteral struct {
	Text string
}

// Identifier is a bare macro name such as jan or a name bound by @string.
type Identifier struct {
	Name string
}

// Concatenation is a chain of atoms joined by '#', in source order.
type Concatenation struct {
	Parts []Value
}

func (StringLiteral) isValue() {}
func (Identifier) isValue()    {}
func (Concatenation) isValue() {}

func (s StringLiteral) String() string {
	if balanced(s.Text) {
		return "{" + s.Text + "}"
	}
	return `"` + s.Text + `"`
}

func (id Identifier) String() string {
	return id.Name
}

func (c Concatenation) String() string {
	parts := make([]string, len(c.Parts))
	for i, p := range c.Parts {
		parts[i] = p.String()
	}
	return strings.Join(parts, " # ")
}

// balanced reports whether every brace in s is matched.
func balanced(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return false
			}
			depth--
		}
	}
	return depth == 0
}
