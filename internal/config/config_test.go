package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, `
junk: false
format: json
sort: type,-year
dedup:
  fields: [doi]
  action: union
`))
	require.NoError(t, err)
	assert.True(t, cfg.Commands)
	assert.False(t, cfg.Junk)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "type,-year", cfg.Sort)
	assert.Equal(t, Dedup{Fields: []string{"doi"}, Action: "union"}, cfg.Dedup)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "colour: red\n"},
		{"bad yaml", "format: [\n"},
		{"unknown format", "format: xml\n"},
		{"unknown action", "dedup:\n  action: merge\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteThenLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	want := Default()
	want.Sort = "key"
	want.Dedup.Action = "intersect"
	require.NoError(t, Write(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
