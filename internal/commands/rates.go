package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/savings/internal/sheet"
	"github.com/cleared-dev/savings/internal/store"
)

func newRatesCommand(root *rootOptions) *cobra.Command {
	ratesCmd := &cobra.Command{
		Use:   "rates",
		Short: "Exchange rate operations",
	}
	ratesCmd.AddCommand(newRatesGetCommand(root))
	ratesCmd.AddCommand(newRatesImportCommand(root))
	return ratesCmd
}

func newRatesGetCommand(root *rootOptions) *cobra.Command {
	var nonInteractive bool

	cmd := &cobra.Command{
		Use:   "get FROM TO [DATE]",
		Short: "Resolve one exchange rate through the configured providers",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var asOf time.Time
			if len(args) == 3 {
				d, err := sheet.ParseDate(args[2])
				if err != nil {
					return err
				}
				asOf = d
			}

			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			c, err := newChain(cmd, cfg, logger, !nonInteractive)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			from, to := strings.ToUpper(args[0]), strings.ToUpper(args[1])
			rate, err := c.resolver.Resolve(ctx, from, to, asOf)
			if err != nil {
				return err
			}

			source := "identity"
			if res := c.resolver.Resolutions(); len(res) > 0 {
				last := res[len(res)-1]
				source = last.Source
				if !last.Probe.IsZero() && !last.Probe.Equal(asOf) {
					source += ", probed " + last.Probe.Format(time.DateOnly)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "1 %s = %s %s (%s)\n", from, rate.String(), to, source)
			return nil
		},
	}

	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "fail instead of prompting when no provider answers")

	return cmd
}

func newRatesImportCommand(root *rootOptions) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load date,from,to,rate rows into the rate archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Archive.Path == "" {
				return errors.New("archive.path is not set")
			}
			if source == "" {
				source = "import:" + filepath.Base(args[0])
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			st, err := store.Open(cfg.Archive.Path, logger)
			if err != nil {
				return fmt.Errorf("opening rate archive: %w", err)
			}
			defer st.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			n, err := st.Import(ctx, f, source)
			if err != nil {
				return fmt.Errorf("importing %s: %w", args[0], err)
			}
			total, err := st.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rates (%d in archive)\n", n, total)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "source label stored with the rates (default import:<file>)")

	return cmd
}
