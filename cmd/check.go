package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/drgo/bibtex"
	"github.com/drgo/bibtex/internal/diag"
	"github.com/drgo/bibtex/internal/loader"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errCheckFailed = errors.New("some files failed to parse")

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Parse bibtex files and report syntax errors and duplicate keys",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		return runCheck(ctx, logger, cmd.OutOrStdout(), args, parseOptions(cfg))
	},
}

// runCheck parses every file, printing a diagnostic for each failure
// rather than stopping at the first.
func runCheck(ctx context.Context, logger *zap.Logger, w io.Writer, paths []string, opts bibtex.Options) error {
	files, err := loader.Collect(paths)
	if err != nil {
		return err
	}
	failed := 0
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := os.ReadFile(path)
		if err != nil {
			logger.Error("Error reading file", zap.String("file", path), zap.Error(err))
			failed++
			continue
		}
		// diagnostics point into src, so parse it rather than the file
		src = bytes.TrimPrefix(src, []byte("\uFEFF"))
		f, err := bibtex.ParseReader(bytes.NewReader(src), path, opts)
		if err != nil {
			fmt.Fprint(w, diag.Format(err, path, src))
			failed++
			continue
		}
		if !bibtex.ValidKeys(f) {
			fmt.Fprintf(w, "%s: duplicate or missing citation keys\n", path)
			_, dr, err := bibtex.Deduplicate([]*bibtex.File{f}, nil, bibtex.SetNoAction)
			if err == nil {
				if err := dr.Print(w); err != nil {
					return err
				}
			}
		}
		logger.Debug("Checked file", zap.String("file", path), zap.Int("entries", f.EntryCount()))
	}
	fmt.Fprintf(w, "%d files checked, %d failed\n", len(files), failed)
	if failed > 0 {
		return errCheckFailed
	}
	return nil
}
