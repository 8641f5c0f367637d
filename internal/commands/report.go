package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/savings/internal/config"
	"github.com/cleared-dev/savings/internal/export"
	"github.com/cleared-dev/savings/internal/log"
	"github.com/cleared-dev/savings/internal/model"
	"github.com/cleared-dev/savings/internal/normalize"
	"github.com/cleared-dev/savings/internal/publish"
	"github.com/cleared-dev/savings/internal/ratelog"
	"github.com/cleared-dev/savings/internal/savings"
)

type reportOptions struct {
	currency       string
	dataPath       string
	includePension bool
	includeStock   bool
	csvPath        string
	publish        bool
	nonInteractive bool
	plain          bool
	width          int
	window         int
}

func newReportCommand(root *rootOptions) *cobra.Command {
	var o reportOptions

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute total and incremental savings in one currency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			o.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runReport(cmd, cfg, o, logger)
		},
	}

	cmd.Flags().StringVar(&o.currency, "currency", "", "target currency (default from config)")
	cmd.Flags().StringVar(&o.dataPath, "data-path", "", "balance sheet file (.csv or .xlsx)")
	cmd.Flags().BoolVar(&o.includePension, "include-pension", false, "include pension accounts")
	cmd.Flags().BoolVar(&o.includeStock, "include-stock", true, "include stock accounts")
	cmd.Flags().StringVar(&o.csvPath, "csv", "", "write the normalized table to this CSV file")
	cmd.Flags().BoolVar(&o.publish, "publish", false, "publish the report to the configured AMQP exchange")
	cmd.Flags().BoolVar(&o.nonInteractive, "non-interactive", false, "fail instead of prompting for missing rates")
	cmd.Flags().BoolVar(&o.plain, "plain", false, "render the report without colors")
	cmd.Flags().IntVar(&o.width, "width", 100, "report word wrap width")
	cmd.Flags().IntVar(&o.window, "window", savings.DefaultWindow, "rolling mean window in periods")

	return cmd
}

// apply overrides config values with the flags that were set.
func (o reportOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("currency") {
		cfg.TargetCurrency = o.currency
	}
	if flags.Changed("data-path") {
		cfg.DataPath = o.dataPath
	}
	if flags.Changed("include-pension") {
		cfg.IncludePension = o.includePension
	}
	if flags.Changed("include-stock") {
		cfg.IncludeStock = o.includeStock
	}
	if flags.Changed("csv") {
		cfg.Output.CSV = o.csvPath
	}
}

func runReport(cmd *cobra.Command, cfg *config.Config, o reportOptions, logger *log.Logger) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sh, err := loadSheet(ctx, cfg, cmd.Flags().Changed("data-path"), logger)
	if err != nil {
		return err
	}
	sh, accts, err := classify(cfg, sh)
	if err != nil {
		return err
	}
	selected := cfg.Filter().Select(accts)
	if len(selected) == 0 {
		return errors.New("no accounts left after filtering")
	}
	sh, err = sh.Select(selected)
	if err != nil {
		return err
	}
	if _, err := sh.Accounts(); err != nil {
		return err
	}

	c, err := newChain(cmd, cfg, logger, !o.nonInteractive)
	if err != nil {
		return err
	}
	defer c.Close()

	target := cfg.Target()
	normalized, err := normalize.New(c.resolver, cfg.Rates.Workers, logger).Normalize(ctx, target, sh.Currencies, sh.Balances)
	if err != nil {
		return err
	}

	series := savings.Aggregate(normalized)
	dist := savings.Distribute(normalized, series)
	summary := savings.Summarize(series, dist, o.window)
	resolutions := c.resolver.Resolutions()

	if cfg.Output.CSV != "" {
		if err := writeTable(cfg.Output.CSV, normalized, series, sh.Notes); err != nil {
			return err
		}
		logger.Info("wrote savings table", log.FieldPath, cfg.Output.CSV)
	}

	if cfg.Output.LogDir != "" && len(resolutions) > 0 {
		warn(cmd.ErrOrStderr(), "writing rate log", ratelog.Append(cfg.Output.LogDir, ratelog.FromResolutions(resolutions)))
	}
	if cfg.Archive.Record && c.archive != nil {
		_, err := c.archive.Record(ctx, resolutions)
		warn(cmd.ErrOrStderr(), "archiving rates", err)
	}

	md := export.Markdown(export.Report{
		Currency:    target,
		Series:      series,
		Summary:     summary,
		Resolutions: resolutions,
	})
	out, err := export.Render(md, o.plain, o.width)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)

	if o.publish {
		return publishReport(ctx, cfg, target, summary, logger)
	}
	return nil
}

func writeTable(path string, normalized *model.BalanceMatrix, series model.SavingsSeries, notes []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := export.WriteTable(f, normalized, series, notes); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func publishReport(ctx context.Context, cfg *config.Config, target string, summary savings.Summary, logger *log.Logger) error {
	if cfg.AMQP.URL == "" {
		return fmt.Errorf("--publish needs amqp.url or %s", config.EnvAMQPURL)
	}
	p, err := publish.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.RoutingKey, logger)
	if err != nil {
		return err
	}
	defer p.Close()
	return p.Publish(ctx, publish.NewReportMessage(target, summary))
}
