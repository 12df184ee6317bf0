package bibtex

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Formats accepted by Export.
const (
	FormatBibtex = "bibtex"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
)

// Ext returns the file extension used for format.
func Ext(format string) string {
	switch strings.ToLower(format) {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	}
	return ".bib"
}

// Export writes doc to w as bibtex, JSON or YAML. In JSON and YAML a
// string is {"string": text}, a macro reference {"macro": name} and a
// concatenation the list of its parts.
func Export(w io.Writer, doc Document, format string) error {
	switch strings.ToLower(format) {
	case "", FormatBibtex:
		return Print(w, doc)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown export format %q", format)
}

// ExportDir splits f by entry type and writes one file per type into
// dirName, named after the type.
func ExportDir(f *File, dirName, format string) error {
	files := Split(f)
	if len(files) == 0 {
		return fmt.Errorf("nothing to export")
	}
	for name, sub := range files {
		err := saveWith(filepath.Join(dirName, name+Ext(format)), func(w io.Writer) error {
			return Export(w, sub.Entries, format)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Split splits a file into a separate file for each entry type, keyed by
// the lower-cased type.
func Split(f *File) map[string]*File {
	res := make(map[string]*File, 10)
	for _, e := range f.Entries {
		typ := strings.ToLower(e.Type)
		sub, ok := res[typ]
		if !ok {
			sub = newRoot(typ)
			res[typ] = sub
		}
		sub.AddEntry(e)
	}
	return res
}

func (s StringLiteral) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"string": s.Text})
}

func (id Identifier) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"macro": id.Name})
}

func (c Concatenation) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Parts)
}

func (s StringLiteral) MarshalYAML() (any, error) {
	return map[string]string{"string": s.Text}, nil
}

func (id Identifier) MarshalYAML() (any, error) {
	return map[string]string{"macro": id.Name}, nil
}

func (c Concatenation) MarshalYAML() (any, error) {
	return c.Parts, nil
}
