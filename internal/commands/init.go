package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/savings/internal/accounts"
	"github.com/cleared-dev/savings/internal/config"
	"github.com/cleared-dev/savings/internal/gitops"
	"github.com/cleared-dev/savings/internal/model"
)

// balancesTemplate is the starter sheet written by init.
const balancesTemplate = `Date,Bank,Broker,Pension Fund,Notes
Currency Symbol,EUR,USD,EUR,
2024-01-31,1000,500,2000,
`

type initOptions struct {
	currency string
	git      bool
	author   gitops.Author
}

func newInitCommand() *cobra.Command {
	var o initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new savings project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), cmd.OutOrStdout(), absDir, o)
		},
	}

	cmd.Flags().StringVar(&o.currency, "currency", "EUR", "target currency")
	cmd.Flags().BoolVar(&o.git, "git", false, "initialize a git repository and commit the project")
	cmd.Flags().StringVar(&o.author.Name, "author-name", "Savings", "git author name")
	cmd.Flags().StringVar(&o.author.Email, "author-email", "savings@localhost", "git author email")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, dir string, o initOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", cfgPath, err)
	}

	if err := os.MkdirAll(filepath.Join(dir, "logs"), 0o755); err != nil {
		return fmt.Errorf("creating directory logs: %w", err)
	}

	// Write savings.yaml.
	cfg := config.Default()
	cfg.TargetCurrency = o.currency
	cfg.DataPath = filepath.Join(dir, "balances.csv")
	cfg.Archive.Path = filepath.Join(dir, "rates.db")
	cfg.Output.LogDir = filepath.Join(dir, "logs")
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write the starter sheet.
	if err := os.WriteFile(cfg.DataPath, []byte(balancesTemplate), 0o644); err != nil {
		return fmt.Errorf("writing balances: %w", err)
	}

	// Write account overrides.
	svc := accounts.NewService([]model.Account{
		{Name: "Pension Fund", Category: model.CategoryPension},
	})
	if err := svc.Save(dir); err != nil {
		return fmt.Errorf("writing accounts: %w", err)
	}

	// Write .gitignore.
	gitignore := "rates.db\nlogs/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if !o.git {
		fmt.Fprintf(out, "Initialized savings project at %s\n", dir)
		return nil
	}

	if !gitops.IsRepo(dir) {
		if err := gitops.Init(ctx, dir); err != nil {
			return err
		}
	}
	hash, err := gitops.Commit(ctx, dir, "init: savings project", o.author,
		config.FileName, "balances.csv", accounts.FileName, ".gitignore")
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}
	fmt.Fprintf(out, "Initialized savings project at %s (%s)\n", dir, hash)
	return nil
}
