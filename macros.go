package bibtex

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUndefinedMacro = errors.New("undefined macro")

// months are the macros every bibtex style predefines.
var months = map[string]string{
	"jan": "January",
	"feb": "February",
	"mar": "March",
	"apr": "April",
	"may": "May",
	"jun": "June",
	"jul": "July",
	"aug": "August",
	"sep": "September",
	"oct": "October",
	"nov": "November",
	"dec": "December",
}

// Macros is the symbol table used to resolve Identifier values. Names are
// case-insensitive. The zero value and a nil *Macros know only the month
// abbreviations; a nil *Macros is read-only.
type Macros struct {
	table map[string]string
}

// NewMacros collects the @string definitions of doc, in order, on top of
// the month abbreviations. A definition may use names defined before it.
func NewMacros(doc Document) *Macros {
	m := &Macros{table: make(map[string]string, len(months))}
	for k, v := range months {
		m.table[k] = v
	}
	for _, e := range doc {
		if !strings.EqualFold(e.Type, "string") {
			continue
		}
		for _, name := range e.Names {
			text, _ := m.resolve(e.Fields[name], false)
			m.Define(name, text)
		}
	}
	return m
}

// Define binds name to text. It does nothing on a nil *Macros.
func (m *Macros) Define(name, text string) {
	if m == nil {
		return
	}
	if m.table == nil {
		m.table = make(map[string]string, len(months))
		for k, v := range months {
			m.table[k] = v
		}
	}
	m.table[strings.ToLower(name)] = text
}

func (m *Macros) Lookup(name string) (string, bool) {
	name = strings.ToLower(name)
	if m == nil || m.table == nil {
		s, ok := months[name]
		return s, ok
	}
	s, ok := m.table[name]
	return s, ok
}

// Resolve returns the text of v, concatenating parts left to right.
// It fails with ErrUndefinedMacro on the first unknown name.
func (m *Macros) Resolve(v Value) (string, error) {
	return m.resolve(v, true)
}

// Text resolves a field of e, found ignoring case. Unknown names expand to
// nothing, as bibtex itself does; a missing field gives "".
func (m *Macros) Text(e Entry, field string) string {
	v, ok := e.FieldFold(field)
	if !ok {
		return ""
	}
	s, _ := m.resolve(v, false)
	return s
}

func (m *Macros) resolve(v Value, strict bool) (string, error) {
	switch v := v.(type) {
	case StringLiteral:
		return v.Text, nil
	case Identifier:
		if isNumber(v.Name) {
			return v.Name, nil
		}
		s, ok := m.Lookup(v.Name)
		if !ok && strict {
			return "", fmt.Errorf("%w: %s", ErrUndefinedMacro, v.Name)
		}
		return s, nil
	case Concatenation:
		var sb strings.Builder
		for _, part := range v.Parts {
			s, err := m.resolve(part, strict)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
		}
		return sb.String(), nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("unknown value type %T", v)
}

// isNumber reports whether name is a bare number such as year = 2005,
// which stands for itself.
func isNumber(name string) bool {
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}
	return name != ""
}
