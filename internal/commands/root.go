// Package commands implements the savings CLI.
package commands

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/savings/internal/buildinfo"
	"github.com/cleared-dev/savings/internal/config"
	"github.com/cleared-dev/savings/internal/log"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "savings",
		Short:   "Savings time series across accounts and currencies",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.FileName, "config file (.yaml or .toml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newReportCommand(opts))
	rootCmd.AddCommand(newRatesCommand(opts))
	rootCmd.AddCommand(newAccountsCommand(opts))

	return rootCmd
}

// load reads the config and builds the logger. A missing default config
// falls back to the built-in defaults; a missing explicit one is an error.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		cfg, err = config.Default(), nil
		cfg.ApplyEnv()
	}
	if err != nil {
		return nil, nil, err
	}

	lc := log.DefaultConfig()
	lc.Output = cmd.ErrOrStderr()
	if o.verbose {
		lc.Level = slog.LevelDebug
	}
	logger := log.New(lc)
	logger.Debug("loaded config", log.FieldPath, o.configPath)
	return cfg, logger, nil
}
