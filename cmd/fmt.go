package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/drgo/bibtex"
	"github.com/drgo/bibtex/internal/config"
	"github.com/drgo/bibtex/internal/loader"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fmtFormat string
	fmtSort   string
	fmtOutput string
	fmtSplit  bool
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [paths...]",
	Short: "Reprint bibtex files as bibtex, JSON or YAML",
	Long: `Parses the given files and writes them back in the chosen format.
With several inputs -o must name a directory; each input gets its own file there.
Example) bibtex fmt --format json --sort type,-year refs.bib`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("format") {
			cfg.Format = fmtFormat
		}
		if cmd.Flags().Changed("sort") {
			cfg.Sort = fmtSort
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		return runFmt(ctx, logger, cmd.OutOrStdout(), args, cfg, fmtOutput, fmtSplit)
	},
}

func init() {
	fmtCmd.Flags().StringVar(&fmtFormat, "format", bibtex.FormatBibtex, "Output format: bibtex, json or yaml")
	fmtCmd.Flags().StringVar(&fmtSort, "sort", "", "Sort keys, e.g. type,-year")
	fmtCmd.Flags().StringVarP(&fmtOutput, "output", "o", "", "Where to write the result (file or directory)")
	fmtCmd.Flags().BoolVar(&fmtSplit, "split", false, "Write one file per entry type into the -o directory")
}

func runFmt(ctx context.Context, logger *zap.Logger, w io.Writer, paths []string, cfg config.Config, output string, split bool) error {
	files, err := loader.LoadFiles(ctx, logger, paths, parseOptions(cfg))
	if err != nil {
		return err
	}
	if cfg.Sort != "" {
		for _, f := range files {
			if f.EntryCount() == 0 {
				continue
			}
			if err := bibtex.Sort(f.Entries, cfg.Sort); err != nil {
				return err
			}
		}
	}

	if split {
		if output == "" {
			return errors.New("-o required with --split")
		}
		if err := os.MkdirAll(output, 0o755); err != nil {
			return err
		}
		merged := bibtex.NewFile(output, nil)
		for _, f := range files {
			merged.Entries = append(merged.Entries, f.Entries...)
		}
		return bibtex.ExportDir(merged, output, cfg.Format)
	}

	write, err := outputFor(w, output, len(files), cfg.Format)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := write(f); err != nil {
			return fmt.Errorf("unable to write output: %w", err)
		}
		logger.Debug("Formatted file", zap.String("file", f.Name()), zap.Int("entries", f.EntryCount()))
	}
	return nil
}

// outputFor picks where each formatted file goes: w when output is empty,
// a directory when output is one or there are several inputs, else the
// file named output.
func outputFor(w io.Writer, output string, nfiles int, format string) (func(*bibtex.File) error, error) {
	if output == "" {
		if nfiles > 1 {
			return nil, errors.New("-o required with multiple input files")
		}
		return func(f *bibtex.File) error {
			return bibtex.Export(w, f.Entries, format)
		}, nil
	}
	if nfiles > 1 {
		return dirWriter(output, format), nil
	}
	if fi, err := os.Stat(output); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("unable to open %q for writing: %s", output, err)
	} else if err == nil && fi.IsDir() {
		return dirWriter(output, format), nil
	}
	return func(f *bibtex.File) error {
		return writeFile(output, f, format)
	}, nil
}

func dirWriter(dir, format string) func(*bibtex.File) error {
	return func(f *bibtex.File) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		base := strings.TrimSuffix(filepath.Base(f.Name()), filepath.Ext(f.Name()))
		return writeFile(filepath.Join(dir, base+bibtex.Ext(format)), f, format)
	}
}

func writeFile(name string, f *bibtex.File, format string) error {
	out, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := bibtex.Export(out, f.Entries, format); err != nil {
		out.Close()
		os.Remove(name)
		return err
	}
	return out.Close()
}
