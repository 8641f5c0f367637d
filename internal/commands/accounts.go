package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/savings/internal/export"
)

func newAccountsCommand(root *rootOptions) *cobra.Command {
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}
	accountsCmd.AddCommand(newAccountsListCommand(root))
	return accountsCmd
}

func newAccountsListCommand(root *rootOptions) *cobra.Command {
	var dataPath string
	var plain bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the sheet's accounts with currency, category and whether reports include them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data-path") {
				cfg.DataPath = dataPath
			}

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

			filter := cfg.Filter()
			var b strings.Builder
			b.WriteString("| Account | Currency | Category | Included |\n|---|---|---|---|\n")
			for _, a := range accts {
				included := "no"
				if filter.Allows(a.Category) {
					included = "yes"
				}
				currency := a.Currency.String()
				if a.Currency.Code == "" {
					currency = fmt.Sprintf("invalid (%q)", sh.Currencies[a.Name])
				}
				fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", a.Name, currency, a.Category, included)
			}

			out, err := export.Render(b.String(), plain, 100)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data-path", "", "balance sheet file (.csv or .xlsx)")
	cmd.Flags().BoolVar(&plain, "plain", false, "render without colors")

	return cmd
}
