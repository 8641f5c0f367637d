package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/savings/internal/accounts"
	"github.com/cleared-dev/savings/internal/config"
	"github.com/cleared-dev/savings/internal/log"
	"github.com/cleared-dev/savings/internal/manual"
	"github.com/cleared-dev/savings/internal/model"
	"github.com/cleared-dev/savings/internal/provider"
	"github.com/cleared-dev/savings/internal/rates"
	"github.com/cleared-dev/savings/internal/sheet"
	"github.com/cleared-dev/savings/internal/sheet/google"
	"github.com/cleared-dev/savings/internal/store"
)

// chain is a resolver with the archive it may read from and record to.
type chain struct {
	resolver *rates.Resolver
	archive  *store.Store // nil unless configured
}

func (c *chain) Close() error {
	if c.archive == nil {
		return nil
	}
	return c.archive.Close()
}

// newChain builds the configured providers and the resolver over them.
func newChain(cmd *cobra.Command, cfg *config.Config, logger *log.Logger, interactive bool) (*chain, error) {
	opts, err := cfg.ResolverOptions()
	if err != nil {
		return nil, err
	}
	static, err := cfg.StaticRates()
	if err != nil {
		return nil, err
	}
	defaults, err := cfg.ManualDefaults()
	if err != nil {
		return nil, err
	}

	c := &chain{}
	settings := provider.Settings{
		Client:    provider.NewClient(cfg.Rates.HTTPCacheDir, logger),
		EODHDKey:  cfg.Rates.EODHDKey,
		Static:    static,
		Endpoints: cfg.Endpoints(),
	}
	if cfg.Archive.Record || slices.Contains(cfg.Rates.Providers, "archive") {
		st, err := store.Open(cfg.Archive.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("opening rate archive: %w", err)
		}
		c.archive = st
		settings.Archive = st
	}

	providers, err := provider.Build(cfg.Rates.Providers, settings)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.resolver = rates.NewResolver(providers, manualSource(cmd, defaults, interactive), opts, logger)
	return c, nil
}

// manualSource prompts on the command's input. Configured defaults are
// consulted first; a non-interactive run never prompts.
func manualSource(cmd *cobra.Command, defaults map[string]decimal.Decimal, interactive bool) rates.ManualSource {
	if f, ok := cmd.InOrStdin().(*os.File); ok {
		return manual.ForTerminal(f, cmd.ErrOrStderr(), defaults, interactive)
	}
	var next rates.ManualSource
	if interactive {
		next = manual.NewLine(cmd.InOrStdin(), cmd.ErrOrStderr())
	}
	return &manual.Defaults{Rates: defaults, Next: next}
}

// loadSheet reads the balance sheet from Google Sheets when a spreadsheet
// is configured and no local file was asked for, otherwise from the data path.
func loadSheet(ctx context.Context, cfg *config.Config, preferFile bool, logger *log.Logger) (*sheet.Sheet, error) {
	if cfg.Google.SpreadsheetID != "" && !preferFile {
		src, err := google.New(ctx, google.Config{
			SpreadsheetID:   cfg.Google.SpreadsheetID,
			Range:           cfg.Google.Range,
			CredentialsFile: cfg.Google.CredentialsFile,
		}, logger)
		if err != nil {
			return nil, err
		}
		return src.Load(ctx)
	}
	return sheet.DefaultRegistry().ReadFile(cfg.DataPath)
}

// classify applies the account overrides next to the data file to the
// sheet. The returned sheet carries the overridden currency specs; specs are
// only checked later for the accounts a command keeps.
func classify(cfg *config.Config, sh *sheet.Sheet) (*sheet.Sheet, []model.Account, error) {
	overrides, err := accounts.Load(filepath.Dir(cfg.DataPath))
	if err != nil {
		return nil, nil, err
	}
	sh = sh.WithCurrencies(overrides.Currencies(sh.Currencies))
	return sh, overrides.Apply(sh.Columns()), nil
}

// warn reports a non-fatal failure on the command's error output.
func warn(w io.Writer, what string, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	fmt.Fprintf(w, "warning: %s: %v\n", what, err)
}
