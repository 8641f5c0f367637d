package provider

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/rates"
)

// DefaultECBURL is the full history of ECB euro reference rates.
const DefaultECBURL = "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-hist.zip"

// ECB answers from the ECB's historical reference rate file, which is
// downloaded on first use and kept for the provider's lifetime. Rates are
// quoted against EUR; other pairs are crossed through EUR. Only exact
// publication dates are answered: older dates are left to the resolver's
// probes.
type ECB struct {
	URL    string
	Client *http.Client

	mu     sync.Mutex
	loaded bool
	err    error
	days   map[string]map[string]decimal.Decimal // date -> currency -> units per EUR
	latest string
}

// NewECB returns an ECB provider reading the public history file.
func NewECB(client *http.Client) *ECB {
	return &ECB{URL: DefaultECBURL, Client: client}
}

func (e *ECB) Name() string { return "ecb" }

func (e *ECB) Rate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error) {
	if err := e.load(ctx); err != nil {
		return decimal.Zero, err
	}

	day := e.latest
	if !asOf.IsZero() {
		day = asOf.UTC().Format(time.DateOnly)
	}
	quotes, ok := e.days[day]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: ecb has no reference rates on %s", rates.ErrProviderUnavailable, day)
	}
	perEURFrom, ok := eurQuote(quotes, from)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: ecb has no %s on %s", rates.ErrProviderUnavailable, from, day)
	}
	perEURTo, ok := eurQuote(quotes, to)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: ecb has no %s on %s", rates.ErrProviderUnavailable, to, day)
	}
	return perEURTo.Div(perEURFrom), nil
}

func eurQuote(quotes map[string]decimal.Decimal, code string) (decimal.Decimal, bool) {
	if code == "EUR" {
		return decimal.NewFromInt(1), true
	}
	q, ok := quotes[code]
	return q, ok
}

// load downloads and parses the history once. A failed download is not
// retried during the run.
func (e *ECB) load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return e.err
	}
	e.loaded = true

	body, err := wget(ctx, e.Client, e.URL)
	if err != nil {
		e.err = err
		return err
	}
	e.days, e.latest, e.err = parseECBHistory(body)
	if e.err != nil {
		e.err = fmt.Errorf("%w: %v", rates.ErrProviderUnavailable, e.err)
	}
	return e.err
}

// parseECBHistory reads eurofxref-hist.zip. The CSV inside looks like
//
//	Date,USD,JPY,...,
//	2024-01-31,1.0837,159.31,...,
//
// with "N/A" for currencies not quoted on that day.
func parseECBHistory(archive []byte) (map[string]map[string]decimal.Decimal, string, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, "", fmt.Errorf("opening ecb archive: %w", err)
	}
	var file *zip.File
	for _, f := range zr.File {
		if strings.EqualFold(path.Ext(f.Name), ".csv") {
			file = f
			break
		}
	}
	if file == nil {
		return nil, "", errors.New("ecb archive has no csv file")
	}
	rc, err := file.Open()
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, "", fmt.Errorf("reading ecb header: %w", err)
	}
	codes := make([]string, len(header))
	for i, h := range header {
		codes[i] = strings.ToUpper(strings.TrimSpace(h))
	}

	days := make(map[string]map[string]decimal.Decimal)
	latest := ""
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("reading ecb rates: %w", err)
		}
		if len(rec) == 0 {
			continue
		}
		day := strings.TrimSpace(rec[0])
		if _, err := time.Parse(time.DateOnly, day); err != nil {
			continue
		}
		quotes := make(map[string]decimal.Decimal)
		for i := 1; i < len(rec) && i < len(codes); i++ {
			if codes[i] == "" {
				continue
			}
			v := strings.TrimSpace(rec[i])
			if v == "" || v == "N/A" {
				continue
			}
			d, err := decimal.NewFromString(v)
			if err != nil || !d.IsPositive() {
				continue
			}
			quotes[codes[i]] = d
		}
		days[day] = quotes
		if day > latest {
			latest = day
		}
	}
	if len(days) == 0 {
		return nil, "", errors.New("ecb archive has no rates")
	}
	return days, latest, nil
}
