// Package rates resolves exchange rates through an ordered chain of providers,
// probing older dates when a provider has no data for the requested one and
// falling back to a manually entered rate when every provider fails.
package rates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrProviderUnavailable is returned by providers that cannot answer for
	// a pair or date. The resolver treats it as "no rate" and moves on.
	ErrProviderUnavailable = errors.New("rate provider unavailable")
	// ErrNoRate means every provider failed at every probed date.
	ErrNoRate = errors.New("no rate from any provider")
	// ErrInvalidManualInput means a manually entered rate could not be parsed.
	ErrInvalidManualInput = errors.New("invalid manual rate")
	// ErrManualUnavailable means no manual rate can be obtained, e.g. in a
	// non-interactive run without a configured default.
	ErrManualUnavailable = errors.New("manual rate entry unavailable")
)

// SourceManual is the Resolution.Source of manually entered rates.
const SourceManual = "manual"

// Provider wraps one external rate source.
type Provider interface {
	// Name identifies the provider in logs and rate records.
	Name() string
	// Rate returns how many units of to one unit of from is worth as of the
	// given date. A zero asOf asks for the latest known rate.
	Rate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error)
}

// ManualSource supplies a rate when every provider has failed.
type ManualSource interface {
	ManualRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Key identifies a rate lookup. A zero AsOf means no specific date.
type Key struct {
	From string
	To   string
	AsOf time.Time
}

// NewKey returns a normalized key: upper-case codes and a UTC timestamp
// without monotonic clock reading, so equal instants compare equal.
func NewKey(from, to string, asOf time.Time) Key {
	return Key{
		From: strings.ToUpper(strings.TrimSpace(from)),
		To:   strings.ToUpper(strings.TrimSpace(to)),
		AsOf: asOf.UTC().Round(0),
	}
}

func (k Key) String() string {
	if k.AsOf.IsZero() {
		return fmt.Sprintf("%s/%s@latest", k.From, k.To)
	}
	return fmt.Sprintf("%s/%s@%s", k.From, k.To, k.AsOf.Format(time.RFC3339))
}

// Resolution records how a rate was obtained.
type Resolution struct {
	Key    Key
	Rate   decimal.Decimal
	Source string    // provider name or SourceManual
	Probe  time.Time // date actually answered; zero for manual rates
	At     time.Time // when the rate was resolved
}
