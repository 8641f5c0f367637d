package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/rates"
)

// DefaultFrankfurterURL is the public Frankfurter API.
const DefaultFrankfurterURL = "https://api.frankfurter.app"

// Frankfurter serves ECB reference rates through the Frankfurter API. The
// API answers a weekend or holiday with the last working day.
type Frankfurter struct {
	BaseURL string
	Client  *http.Client
}

// NewFrankfurter returns a Frankfurter provider using the public API.
func NewFrankfurter(client *http.Client) *Frankfurter {
	return &Frankfurter{BaseURL: DefaultFrankfurterURL, Client: client}
}

func (f *Frankfurter) Name() string { return "frankfurter" }

// {"amount":1.0,"base":"USD","date":"2024-01-31","rates":{"EUR":0.92336}}
type frankfurterResponse struct {
	Amount json.Number            `json:"amount"`
	Base   string                 `json:"base"`
	Date   string                 `json:"date"`
	Rates  map[string]json.Number `json:"rates"`
}

func (f *Frankfurter) Rate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	addr := fmt.Sprintf("%s/%s?%s", strings.TrimRight(f.BaseURL, "/"), dateParam(asOf), q.Encode())

	var resp frankfurterResponse
	if err := jwget(ctx, f.Client, addr, &resp); err != nil {
		return decimal.Zero, err
	}
	n, ok := resp.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: frankfurter has no %s/%s on %s", rates.ErrProviderUnavailable, from, to, dateParam(asOf))
	}
	rate, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: frankfurter rate %q: %v", rates.ErrProviderUnavailable, n, err)
	}
	// rates are quoted for amount units of base.
	if amount, err := decimal.NewFromString(resp.Amount.String()); err == nil && amount.IsPositive() && !amount.Equal(decimal.NewFromInt(1)) {
		rate = rate.Div(amount)
	}
	return rate, nil
}
