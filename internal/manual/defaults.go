package manual

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/rates"
)

// Defaults answers from configured per-currency rates and delegates the rest
// to Next. With no Next, unknown currencies fail with rates.ErrManualUnavailable.
type Defaults struct {
	Rates map[string]decimal.Decimal // origin currency -> rate into the target
	Next  rates.ManualSource
}

// ManualRate implements rates.ManualSource.
func (d *Defaults) ManualRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if r, ok := d.Rates[strings.ToUpper(from)]; ok {
		return r, nil
	}
	if d.Next == nil {
		return decimal.Zero, fmt.Errorf("%w: no default rate for %s", rates.ErrManualUnavailable, from)
	}
	return d.Next.ManualRate(ctx, from, to)
}
