package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformedCurrencySpec is returned when an account's currency tag cannot be parsed.
var ErrMalformedCurrencySpec = errors.New("malformed currency spec")

// CurrencySpec is the currency tag of an account: a currency code and the
// number of currency units one balance unit is worth. "USD" is worth 1 USD per
// unit, "USD:152.3" (a stock quoted in USD) is worth 152.3 USD per share.
type CurrencySpec struct {
	Code       string
	Multiplier decimal.Decimal
}

// ParseCurrencySpec parses "CODE" or "CODE:multiplier".
func ParseCurrencySpec(s string) (CurrencySpec, error) {
	raw := strings.TrimSpace(s)
	code, mult, hasMult := strings.Cut(raw, ":")
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return CurrencySpec{}, fmt.Errorf("%w: %q has no currency code", ErrMalformedCurrencySpec, s)
	}
	if strings.ContainsAny(code, " \t") {
		return CurrencySpec{}, fmt.Errorf("%w: invalid currency code %q", ErrMalformedCurrencySpec, code)
	}

	spec := CurrencySpec{Code: code, Multiplier: decimal.NewFromInt(1)}
	if !hasMult {
		return spec, nil
	}

	m, err := decimal.NewFromString(strings.TrimSpace(mult))
	if err != nil {
		return CurrencySpec{}, fmt.Errorf("%w: multiplier %q of %q: %v", ErrMalformedCurrencySpec, mult, s, err)
	}
	if !m.IsPositive() {
		return CurrencySpec{}, fmt.Errorf("%w: multiplier of %q must be positive", ErrMalformedCurrencySpec, s)
	}
	spec.Multiplier = m
	return spec, nil
}

// String returns the spec in its "CODE[:multiplier]" form.
func (c CurrencySpec) String() string {
	if c.Multiplier.IsZero() || c.Multiplier.Equal(decimal.NewFromInt(1)) {
		return c.Code
	}
	return c.Code + ":" + c.Multiplier.String()
}
