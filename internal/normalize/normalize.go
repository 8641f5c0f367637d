// Package normalize converts a multi-currency balance matrix into a single
// target currency.
package normalize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/savings/internal/log"
	"github.com/cleared-dev/savings/internal/model"
)

// RateResolver returns the rate converting one unit of from into to as of
// asOf.
type RateResolver interface {
	Resolve(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error)
}

// Normalizer converts each present cell with the rate of its own period.
type Normalizer struct {
	rates   RateResolver
	workers int
	log     *log.Logger
}

// New returns a Normalizer resolving at most workers cells at a time.
// workers <= 1 resolves sequentially.
func New(rates RateResolver, workers int, logger *log.Logger) *Normalizer {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Normalizer{rates: rates, workers: workers, log: logger}
}

// Normalize returns a new matrix with the same periods and accounts, where
// every present cell holds balance × rate × multiplier in target. Absent
// cells stay absent. currencies maps each account to its currency spec;
// a missing or malformed spec fails the whole run.
func (n *Normalizer) Normalize(ctx context.Context, target string, currencies map[string]string, balances *model.BalanceMatrix) (*model.BalanceMatrix, error) {
	target = strings.ToUpper(strings.TrimSpace(target))
	if target == "" {
		return nil, fmt.Errorf("%w: empty target currency", model.ErrMalformedCurrencySpec)
	}

	accounts := balances.Accounts()
	specs := make([]model.CurrencySpec, len(accounts))
	for a, name := range accounts {
		raw, ok := currencies[name]
		if !ok {
			return nil, fmt.Errorf("account %q: %w: no currency", name, model.ErrMalformedCurrencySpec)
		}
		spec, err := model.ParseCurrencySpec(raw)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", name, err)
		}
		specs[a] = spec
	}

	out := balances.Empty()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.workers)
	for p := 0; p < balances.NumPeriods(); p++ {
		period := balances.Period(p)
		for a, spec := range specs {
			cell := balances.At(p, a)
			if !cell.Valid {
				continue
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				rate, err := n.rates.Resolve(gctx, spec.Code, target, period)
				if err != nil {
					return fmt.Errorf("converting %s (%s) on %s: %w", accounts[a], spec, period.Format(time.DateOnly), err)
				}
				// distinct cells: safe to write concurrently.
				out.SetAt(p, a, cell.Decimal.Mul(rate).Mul(spec.Multiplier))
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n.log.Debug("normalized balances", "target", target,
		"periods", balances.NumPeriods(), "accounts", balances.NumAccounts())
	return out, nil
}
