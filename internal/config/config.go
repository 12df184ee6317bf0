// Package config reads and writes the .bibtex.yaml file used by the
// command line tool.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/drgo/bibtex"
	"gopkg.in/yaml.v3"
)

const DefaultFileName = ".bibtex.yaml"

type Dedup struct {
	Fields []string `yaml:"fields"`
	Action string   `yaml:"action"`
}

// Config represents the tool settings; command line flags override them.
type Config struct {
	Commands bool   `yaml:"commands"`
	Junk     bool   `yaml:"junk"`
	Format   string `yaml:"format"`
	Sort     string `yaml:"sort,omitempty"`
	Dedup    Dedup  `yaml:"dedup"`
}

func Default() Config {
	return Config{
		Commands: true,
		Junk:     true,
		Format:   bibtex.FormatBibtex,
		Dedup: Dedup{
			Fields: []string{"year", "title"},
			Action: "none",
		},
	}
}

// Load reads the configuration at path. An empty path means
// DefaultFileName, which may be absent; an explicit path must exist.
// Keys missing from the file keep their default values.
func Load(path string) (Config, error) {
	config := Default()
	optional := path == ""
	if optional {
		path = DefaultFileName
	}

	f, err := os.Open(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return config, nil
		}
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("can't read %s: %w", path, err)
	}
	return config, config.Validate()
}

func (c Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case bibtex.FormatBibtex, bibtex.FormatJSON, bibtex.FormatYAML:
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	_, err := bibtex.ParseSetAction(c.Dedup.Action)
	return err
}

// Write saves config to path, DefaultFileName when empty.
func Write(path string, config Config) error {
	if path == "" {
		path = DefaultFileName
	}
	d, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0o644)
}
