package cmd

import (
	"time"

	"github.com/drgo/bibtex"
	"github.com/drgo/bibtex/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Minute

var (
	cfgFile  string
	timeout  time.Duration
	verbose  bool
	commands bool
	junk     bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:          "bibtex",
	Short:        "bibtex - parse, check, format and deduplicate bibtex files",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		return err
	},
}

func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}

// loadConfig reads the configuration file and applies the global flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("commands") {
		cfg.Commands = commands
	}
	if cmd.Flags().Changed("junk") {
		cfg.Junk = junk
	}
	return cfg, nil
}

func parseOptions(cfg config.Config) bibtex.Options {
	return bibtex.Options{Commands: cfg.Commands, Junk: cfg.Junk}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to the configuration file (default "+config.DefaultFileName+")")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", defaultTimeout, "Set a timeout for processing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&commands, "commands", true, "Parse @string, @preamble and @comment in their bibtex form")
	rootCmd.PersistentFlags().BoolVar(&junk, "junk", true, "Ignore text between entries")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(dedupCmd)
}
