package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/rates"
)

// DefaultEODHDURL is the EODHD API root.
const DefaultEODHDURL = "https://eodhd.com/api"

// EODHD reads end-of-day forex quotes. Tickers are "FROMTO.FOREX".
type EODHD struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewEODHD returns an EODHD provider for the given API key.
func NewEODHD(apiKey string, client *http.Client) *EODHD {
	return &EODHD{APIKey: apiKey, BaseURL: DefaultEODHDURL, Client: client}
}

func (e *EODHD) Name() string { return "eodhd" }

// [{"date":"2024-01-31","open":0.9221,"high":0.9265,"low":0.9201,"close":0.9234,...}]
type eodhdQuote struct {
	Date  string          `json:"date"`
	Close decimal.Decimal `json:"close"`
}

func (e *EODHD) Rate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error) {
	if e.APIKey == "" {
		return decimal.Zero, fmt.Errorf("%w: eodhd api key not set", rates.ErrProviderUnavailable)
	}
	q := url.Values{}
	q.Set("fmt", "json")
	q.Set("api_token", e.APIKey)
	if !asOf.IsZero() {
		q.Set("from", dateParam(asOf))
		q.Set("to", dateParam(asOf))
	}
	addr := fmt.Sprintf("%s/eod/%s%s.FOREX?%s", strings.TrimRight(e.BaseURL, "/"), from, to, q.Encode())

	var quotes []eodhdQuote
	if err := jwget(ctx, e.Client, addr, &quotes); err != nil {
		return decimal.Zero, err
	}
	if len(quotes) == 0 {
		return decimal.Zero, fmt.Errorf("%w: eodhd has no %s/%s on %s", rates.ErrProviderUnavailable, from, to, dateParam(asOf))
	}
	return quotes[len(quotes)-1].Close, nil
}
