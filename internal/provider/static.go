package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/rates"
)

// Static answers from fixed pair rates regardless of date. The inverse of
// each configured pair is derived.
type Static struct {
	pairs map[string]decimal.Decimal
}

// NewStatic builds a Static provider from "FROM/TO" keyed rates. Keys are
// case-insensitive; an explicit rate always wins over a derived inverse.
func NewStatic(pairs map[string]decimal.Decimal) (*Static, error) {
	explicit := make(map[string]decimal.Decimal, len(pairs))
	for pair, rate := range pairs {
		from, to, err := SplitPair(pair)
		if err != nil {
			return nil, err
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("static rate %s must be positive, got %s", pair, rate)
		}
		key := from + "/" + to
		if prev, ok := explicit[key]; ok && !prev.Equal(rate) {
			return nil, fmt.Errorf("static rate %s configured twice with different values", key)
		}
		explicit[key] = rate
	}

	s := &Static{pairs: make(map[string]decimal.Decimal, len(explicit)*2)}
	for key, rate := range explicit {
		s.pairs[key] = rate
		from, to, _ := strings.Cut(key, "/")
		if _, ok := explicit[to+"/"+from]; !ok {
			s.pairs[to+"/"+from] = decimal.NewFromInt(1).Div(rate)
		}
	}
	return s, nil
}

// SplitPair parses "USD/EUR" into its upper-cased codes.
func SplitPair(pair string) (from, to string, err error) {
	from, to, ok := strings.Cut(strings.ToUpper(strings.TrimSpace(pair)), "/")
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if !ok || from == "" || to == "" {
		return "", "", fmt.Errorf("malformed currency pair %q, want FROM/TO", pair)
	}
	return from, to, nil
}

func (s *Static) Name() string { return "static" }

func (s *Static) Rate(_ context.Context, from, to string, _ time.Time) (decimal.Decimal, error) {
	rate, ok := s.pairs[from+"/"+to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no static rate for %s/%s", rates.ErrProviderUnavailable, from, to)
	}
	return rate, nil
}
