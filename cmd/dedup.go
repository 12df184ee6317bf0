package cmd

import (
	"context"
	"io"

	"github.com/drgo/bibtex"
	"github.com/drgo/bibtex/internal/config"
	"github.com/drgo/bibtex/internal/loader"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dedupFields []string
	dedupAction string
	dedupOutput string
)

var dedupCmd = &cobra.Command{
	Use:   "dedup [paths...]",
	Short: "Report duplicate entries and merge files",
	Long: `Groups entries of all inputs by the normalized text of --fields
(the citation key when none is given) and reports groups with more than one entry.
--action union|intersect|concat also writes the resulting set.
Example) bibtex dedup --fields year,title --action union -o merged.bib a.bib b.bib`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("fields") {
			cfg.Dedup.Fields = dedupFields
		}
		if cmd.Flags().Changed("action") {
			cfg.Dedup.Action = dedupAction
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		return runDedup(ctx, logger, cmd.OutOrStdout(), args, cfg, dedupOutput)
	},
}

func init() {
	dedupCmd.Flags().StringSliceVar(&dedupFields, "fields", nil, "Comma-separated fields to compare (citekey for the key)")
	dedupCmd.Flags().StringVar(&dedupAction, "action", "none", "Set action: none, union, intersect or concat")
	dedupCmd.Flags().StringVarP(&dedupOutput, "output", "o", "", "Where to write the resulting set")
}

func runDedup(ctx context.Context, logger *zap.Logger, w io.Writer, paths []string, cfg config.Config, output string) error {
	action, err := bibtex.ParseSetAction(cfg.Dedup.Action)
	if err != nil {
		return err
	}
	files, err := loader.LoadFiles(ctx, logger, paths, parseOptions(cfg))
	if err != nil {
		return err
	}
	res, dr, err := bibtex.Deduplicate(files, cfg.Dedup.Fields, action)
	if err != nil {
		return err
	}
	if output != "" || res == nil {
		if err := dr.Print(w); err != nil {
			return err
		}
	}
	if res == nil {
		return nil
	}
	logger.Info("Set built",
		zap.Int("duplicateSets", dr.DuplicateSetCount),
		zap.Int("entries", dr.ResultSetCount))
	if cfg.Sort != "" && res.EntryCount() > 0 {
		if err := bibtex.Sort(res.Entries, cfg.Sort); err != nil {
			return err
		}
	}
	if output == "" {
		return bibtex.Export(w, res.Entries, cfg.Format)
	}
	return writeFile(output, res, cfg.Format)
}
