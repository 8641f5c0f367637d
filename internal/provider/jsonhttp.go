package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/rates"
)

// JSONHTTP queries any JSON endpoint. The URL template may use {from}, {to}
// and {date} (YYYY-MM-DD, or "latest" for undated lookups); Path is a
// JSONPath expression selecting the rate in the response.
type JSONHTTP struct {
	name   string
	URL    string
	Path   string
	Client *http.Client
}

// NewJSONHTTP validates the JSONPath expression and returns the provider.
func NewJSONHTTP(name, urlTemplate, path string, client *http.Client) (*JSONHTTP, error) {
	if name == "" {
		return nil, errors.New("http provider needs a name")
	}
	if urlTemplate == "" {
		return nil, fmt.Errorf("http provider %q: url is required", name)
	}
	if _, err := jsonpath.New(path); err != nil {
		return nil, fmt.Errorf("http provider %q: path %q: %w", name, path, err)
	}
	return &JSONHTTP{name: name, URL: urlTemplate, Path: path, Client: client}, nil
}

func (j *JSONHTTP) Name() string { return j.name }

func (j *JSONHTTP) Rate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error) {
	addr := strings.NewReplacer(
		"{from}", url.PathEscape(from),
		"{to}", url.PathEscape(to),
		"{date}", dateParam(asOf),
	).Replace(j.URL)

	var jobj any
	if err := jwget(ctx, j.Client, addr, &jobj); err != nil {
		return decimal.Zero, err
	}
	jval, err := jsonpath.Get(j.Path, jobj)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %q: %v", rates.ErrProviderUnavailable, j.name, j.Path, err)
	}
	// jsonpath returns a list for wildcard and slice expressions; keep the first.
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return decimal.Zero, fmt.Errorf("%w: %s: %q matched nothing", rates.ErrProviderUnavailable, j.name, j.Path)
		}
		jval = jlist[0]
	}
	rate, err := toDecimal(jval)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %q: %v", rates.ErrProviderUnavailable, j.name, j.Path, err)
	}
	return rate, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch v := v.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Zero, fmt.Errorf("not a number: %v", v)
	}
}
