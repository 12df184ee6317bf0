package bibtex

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// printer keeps the first write error so callers check once.
type printer struct {
	w   *bufio.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// fieldNames returns e.Names, or the sorted keys of e.Fields for an entry
// built without them.
func fieldNames(e Entry) []string {
	if len(e.Names) > 0 || len(e.Fields) == 0 {
		return e.Names
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *printer) entry(e Entry) {
	names := fieldNames(e)
	switch {
	case e.Key == "" && strings.EqualFold(e.Type, "preamble"):
		if v, ok := e.Fields["preamble"]; ok {
			p.printf("@%s{%s}\n", e.Type, v)
			return
		}
	case e.Key == "" && strings.EqualFold(e.Type, "string"):
		p.printf("@%s{", e.Type)
		for i, name := range names {
			if i > 0 {
				p.printf(", ")
			}
			p.printf("%s = %s", name, e.Fields[name])
		}
		p.printf("}\n")
		return
	}
	p.printf("%s", e.BibtexRepr())
	for _, name := range names {
		p.printf("  %s = %s,\n", name, e.Fields[name])
	}
	p.printf("}\n")
}

// Print writes n, a *File, a Document or an Entry, as bibtex. Entries are
// separated by a blank line and fields keep their source order.
func Print(w io.Writer, n any) error {
	p := &printer{w: bufio.NewWriter(w)}
	switch n := n.(type) {
	case *File:
		p.document(n.Entries)
	case Document:
		p.document(n)
	case Entry:
		p.entry(n)
	default:
		return fmt.Errorf("unknown node type %T", n)
	}
	if p.err != nil {
		return p.err
	}
	return p.w.Flush()
}

func (p *printer) document(doc Document) {
	for i, e := range doc {
		if i > 0 {
			p.printf("\n")
		}
		p.entry(e)
	}
}
