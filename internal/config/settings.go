package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/accounts"
	"github.com/cleared-dev/savings/internal/provider"
	"github.com/cleared-dev/savings/internal/rates"
)

// ResolverOptions converts the rates section for rates.NewResolver.
func (c *Config) ResolverOptions() (rates.Options, error) {
	opts := rates.DefaultOptions()
	opts.Retries = c.Rates.Retries

	var err error
	if c.Rates.Backoff != "" {
		if opts.Backoff, err = time.ParseDuration(c.Rates.Backoff); err != nil {
			return rates.Options{}, fmt.Errorf("rates.backoff: %w", err)
		}
	}
	if c.Rates.Timeout != "" {
		if opts.Timeout, err = time.ParseDuration(c.Rates.Timeout); err != nil {
			return rates.Options{}, fmt.Errorf("rates.timeout: %w", err)
		}
	}
	return opts, nil
}

// StaticRates returns the configured pair rates keyed "FROM/TO".
func (c *Config) StaticRates() (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(c.Rates.Static))
	for pair, v := range c.Rates.Static {
		d, err := positive(v)
		if err != nil {
			return nil, fmt.Errorf("rates.static %s: %w", pair, err)
		}
		out[pair] = d
	}
	return out, nil
}

// ManualDefaults returns the fallback rates keyed by origin currency.
func (c *Config) ManualDefaults() (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(c.Rates.Defaults))
	for code, v := range c.Rates.Defaults {
		d, err := positive(v)
		if err != nil {
			return nil, fmt.Errorf("rates.defaults %s: %w", code, err)
		}
		out[strings.ToUpper(code)] = d
	}
	return out, nil
}

// Endpoints returns the configured JSON endpoints for provider.Build.
func (c *Config) Endpoints() []provider.Endpoint {
	out := make([]provider.Endpoint, len(c.Rates.Endpoints))
	for i, e := range c.Rates.Endpoints {
		out[i] = provider.Endpoint{Name: e.Name, URL: e.URL, Path: e.Path}
	}
	return out
}

// Filter returns the category filter for the report.
func (c *Config) Filter() accounts.Filter {
	return accounts.Filter{IncludePension: c.IncludePension, IncludeStock: c.IncludeStock}
}

// Target returns the upper-cased target currency.
func (c *Config) Target() string {
	return strings.ToUpper(strings.TrimSpace(c.TargetCurrency))
}
