package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/provider"
	"github.com/cleared-dev/savings/internal/rates"
)

// ValidationError describes a single problem in a config.
type ValidationError struct {
	Field       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

// ValidationErrors is every problem found by Validate.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Validate checks the whole config and returns ValidationErrors, or nil.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Description: fmt.Sprintf(format, args...)})
	}

	if code := strings.TrimSpace(c.TargetCurrency); code == "" || strings.ContainsAny(code, " \t:") {
		add("target_currency", "invalid currency code %q", c.TargetCurrency)
	}

	r := c.Rates
	if r.Retries < 0 || r.Retries > rates.MaxRetries {
		add("rates.retries", "must be between 0 and %d, got %d", rates.MaxRetries, r.Retries)
	}
	if r.Workers <= 0 {
		add("rates.workers", "must be positive, got %d", r.Workers)
	}
	if d, err := time.ParseDuration(r.Backoff); err != nil {
		add("rates.backoff", "%v", err)
	} else if d <= 0 {
		add("rates.backoff", "must be positive, got %s", r.Backoff)
	}
	if r.Timeout != "" {
		if d, err := time.ParseDuration(r.Timeout); err != nil {
			add("rates.timeout", "%v", err)
		} else if d < 0 {
			add("rates.timeout", "must not be negative, got %s", r.Timeout)
		}
	}

	endpoints := make(map[string]bool, len(r.Endpoints))
	for i, e := range r.Endpoints {
		field := fmt.Sprintf("rates.endpoints[%d]", i)
		switch {
		case e.Name == "":
			add(field, "missing name")
		case provider.IsBuiltin(e.Name):
			add(field, "name %q is a built-in provider", e.Name)
		case endpoints[e.Name]:
			add(field, "duplicate endpoint %q", e.Name)
		}
		if e.URL == "" {
			add(field, "missing url")
		}
		if e.Path == "" {
			add(field, "missing path")
		}
		endpoints[e.Name] = true
	}

	for i, name := range r.Providers {
		if !provider.IsBuiltin(name) && !endpoints[name] {
			add("rates.providers", "unknown provider %q", name)
		}
		if slices.Index(r.Providers, name) < i {
			add("rates.providers", "provider %q listed twice", name)
		}
	}

	for pair, v := range r.Static {
		if _, _, err := provider.SplitPair(pair); err != nil {
			add("rates.static", "%v", err)
			continue
		}
		if _, err := positive(v); err != nil {
			add("rates.static", "%s: %v", pair, err)
		}
	}
	for code, v := range r.Defaults {
		if _, err := positive(v); err != nil {
			add("rates.defaults", "%s: %v", code, err)
		}
	}

	if c.Archive.Path == "" && (c.Archive.Record || slices.Contains(r.Providers, "archive")) {
		add("archive.path", "required when the archive is used")
	}

	if len(errs) == 0 {
		return nil
	}
	slices.SortStableFunc(errs, func(a, b ValidationError) int { return strings.Compare(a.Field, b.Field) })
	return errs
}

func positive(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate %q", s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("rate %q must be positive", s)
	}
	return d, nil
}
