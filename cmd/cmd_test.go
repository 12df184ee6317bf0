package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/drgo/bibtex"
	"github.com/drgo/bibtex/internal/config"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	color.NoColor = true
}

func writeBib(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const (
	refsA = `@string{tb = "The TeXbook"}
@book{texbook, author = {Donald E. Knuth}, title = tb, year = 1986}
@article{lp, author = {Donald E. Knuth}, title = {Literate Programming}, year = 1984}
`
	refsB = `Exported from somewhere.
@article{knuth84, title = {Literate programming}, year = {1984}},
@misc{other, title = {Other}, year = 2000}
`
)

func TestRunCheck(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeBib(t, dir, "a.bib", refsA)
	writeBib(t, dir, "dups.bib", "@misc{x,}\n@misc{x,}\n")
	writeBib(t, dir, "z.bib", "@misc{x,\n  title = {open")

	var out bytes.Buffer
	err := runCheck(context.Background(), zaptest.NewLogger(t), &out, []string{dir}, bibtex.Options{Commands: true})
	assert.ErrorIs(t, err, errCheckFailed)
	got := out.String()
	assert.Contains(t, got, "dups.bib: duplicate or missing citation keys")
	assert.Contains(t, got, "[x] has 2 occurrences")
	assert.Contains(t, got, "z.bib:2:16: error: unterminated braced string (braced string)")
	assert.Contains(t, got, "3 files checked, 1 failed\n")
	assert.NotContains(t, got, "a.bib")
}

func TestRunCheckByteOrderMark(t *testing.T) {
	t.Parallel()
	path := writeBib(t, t.TempDir(), "bom.bib", "\uFEFF@misc{k a = 1}\n")
	var out bytes.Buffer
	err := runCheck(context.Background(), zaptest.NewLogger(t), &out, []string{path}, bibtex.Options{})
	assert.ErrorIs(t, err, errCheckFailed)
	got := out.String()
	assert.Contains(t, got, "bom.bib:1:9: error: expected ',' (entry)\n")
	assert.Contains(t, got, " 1 | @misc{k a = 1}\n   |         ^\n")
}

func TestRunCheckClean(t *testing.T) {
	t.Parallel()
	path := writeBib(t, t.TempDir(), "a.bib", refsA)
	var out bytes.Buffer
	require.NoError(t, runCheck(context.Background(), zaptest.NewLogger(t), &out, []string{path}, bibtex.Options{Commands: true}))
	assert.Equal(t, "1 files checked, 0 failed\n", out.String())
}

func TestRunFmt(t *testing.T) {
	t.Parallel()
	path := writeBib(t, t.TempDir(), "b.bib", refsB)
	cfg := config.Default()
	cfg.Sort = "-year"

	var out bytes.Buffer
	require.NoError(t, runFmt(context.Background(), zaptest.NewLogger(t), &out, []string{path}, cfg, "", false))
	assert.Equal(t, `@misc{other,
  title = {Other},
  year = 2000,
}

@article{knuth84,
  title = {Literate programming},
  year = {1984},
}
`, out.String())
}

func TestRunFmtOutputs(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := writeBib(t, dir, "a.bib", refsA)
	b := writeBib(t, dir, "b.bib", refsB)
	cfg := config.Default()
	cfg.Format = bibtex.FormatJSON
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	err := runFmt(ctx, logger, &bytes.Buffer{}, []string{a, b}, cfg, "", false)
	assert.EqualError(t, err, "-o required with multiple input files")

	outDir := filepath.Join(dir, "out")
	require.NoError(t, runFmt(ctx, logger, nil, []string{a, b}, cfg, outDir, false))
	assert.FileExists(t, filepath.Join(outDir, "a.json"))
	assert.FileExists(t, filepath.Join(outDir, "b.json"))

	single := filepath.Join(dir, "single.json")
	require.NoError(t, runFmt(ctx, logger, nil, []string{a}, cfg, single, false))
	assert.FileExists(t, single)

	cfg.Format = bibtex.FormatBibtex
	splitDir := filepath.Join(dir, "split")
	require.NoError(t, runFmt(ctx, logger, nil, []string{a, b}, cfg, splitDir, true))
	f, err := bibtex.ParseReader(nil, filepath.Join(splitDir, "article.bib"), bibtex.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.EntryCount())
	assert.FileExists(t, filepath.Join(splitDir, "string.bib"))
	assert.FileExists(t, filepath.Join(splitDir, "misc.bib"))

	err = runFmt(ctx, logger, nil, []string{a}, cfg, "", true)
	assert.EqualError(t, err, "-o required with --split")
}

func TestRunDedup(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := writeBib(t, dir, "a.bib", refsA)
	b := writeBib(t, dir, "b.bib", refsB)
	cfg := config.Default()
	cfg.Dedup.Action = "union"
	logger := zaptest.NewLogger(t)

	var out bytes.Buffer
	require.NoError(t, runDedup(context.Background(), logger, &out, []string{a, b}, cfg, ""))
	union, err := bibtex.ParseWith(out.String(), bibtex.Options{Commands: true})
	require.NoError(t, err)
	keys := make([]string, len(union))
	for i, e := range union {
		keys[i] = e.Key
	}
	assert.Equal(t, []string{"", "texbook", "lp", "other"}, keys)

	out.Reset()
	cfg.Dedup.Action = "none"
	require.NoError(t, runDedup(context.Background(), logger, &out, []string{a, b}, cfg, ""))
	assert.Contains(t, out.String(), "[1984literateprogramming] has 2 occurrences")

	merged := filepath.Join(dir, "merged.bib")
	out.Reset()
	cfg.Dedup.Action = "intersect"
	require.NoError(t, runDedup(context.Background(), logger, &out, []string{a, b}, cfg, merged))
	f, err := bibtex.ParseReader(nil, merged, bibtex.Options{Commands: true})
	require.NoError(t, err)
	assert.Equal(t, 2, f.EntryCount())
	assert.Equal(t, "lp", f.Entries[1].Key)
	assert.Contains(t, out.String(), "1 duplicate sets found")

	cfg.Dedup.Action = "merge"
	assert.Error(t, runDedup(context.Background(), logger, &out, []string{a, b}, cfg, ""))
}
