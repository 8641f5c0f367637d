// Package provider holds the exchange rate sources the resolver can chain.
package provider

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/rates"
)

// Builtin lists the provider names Build understands besides configured
// http endpoints.
var Builtin = []string{"frankfurter", "ecb", "eodhd", "static", "archive"}

// IsBuiltin reports whether name is a builtin provider.
func IsBuiltin(name string) bool {
	return slices.Contains(Builtin, name)
}

// Endpoint configures one JSONHTTP provider.
type Endpoint struct {
	Name string
	URL  string
	Path string
}

// Settings carries what the providers need to be built.
type Settings struct {
	Client    *http.Client
	EODHDKey  string
	Static    map[string]decimal.Decimal
	Endpoints []Endpoint
	Archive   rates.Provider // nil when no archive is configured
}

// Build returns the providers named in names, in that order.
func Build(names []string, s Settings) ([]rates.Provider, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	var out []rates.Provider
	for _, name := range names {
		switch name {
		case "frankfurter":
			out = append(out, NewFrankfurter(client))
		case "ecb":
			out = append(out, NewECB(client))
		case "eodhd":
			out = append(out, NewEODHD(s.EODHDKey, client))
		case "static":
			p, err := NewStatic(s.Static)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		case "archive":
			if s.Archive == nil {
				return nil, fmt.Errorf("provider %q: no rate archive configured", name)
			}
			out = append(out, s.Archive)
		default:
			i := slices.IndexFunc(s.Endpoints, func(e Endpoint) bool { return e.Name == name })
			if i < 0 {
				return nil, fmt.Errorf("unknown rate provider %q", name)
			}
			e := s.Endpoints[i]
			p, err := NewJSONHTTP(e.Name, e.URL, e.Path, client)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
	}
	return out, nil
}
