package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/drgo/bibtex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCollect(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := writeFile(t, dir, "a.bib", "")
	b := writeFile(t, dir, "sub/b.bibtex", "")
	writeFile(t, dir, "sub/notes.txt", "")
	other := writeFile(t, t.TempDir(), "refs.txt", "")

	files, err := Collect([]string{dir, other})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b, other}, files)

	_, err = Collect([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestLoadFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"c.bib", "a.bib", "b.bib"} {
		paths = append(paths, writeFile(t, dir, name, "@misc{"+name[:1]+", year = 2000}\n"))
	}
	files, err := LoadFiles(context.Background(), zaptest.NewLogger(t), paths, bibtex.Options{})
	require.NoError(t, err)
	require.Len(t, files, 3)
	for i, f := range files {
		assert.Equal(t, paths[i], f.Name())
		assert.Equal(t, filepath.Base(paths[i])[:1], f.Entries[0].Key)
	}
}

func TestLoadFilesError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "good.bib", "@misc{a,}"),
		writeFile(t, dir, "bad1.bib", "@misc{a"),
		writeFile(t, dir, "bad2.bib", "nonsense"),
	}
	_, err := LoadFiles(context.Background(), nil, paths, bibtex.Options{})
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, paths[1], lerr.Path)
	var perr *bibtex.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestLoadFilesOptions(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "junk.bib", "header\n@comment{x}\n@misc{a,}\n")
	_, err := LoadFiles(context.Background(), nil, []string{path}, bibtex.Options{})
	require.Error(t, err)

	files, err := LoadFiles(context.Background(), nil, []string{path}, bibtex.Options{Commands: true, Junk: true})
	require.NoError(t, err)
	assert.Equal(t, 1, files[0].EntryCount())
}

func TestLoadFilesCancelled(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "a.bib", "@misc{a,}")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadFiles(ctx, nil, []string{path}, bibtex.Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
