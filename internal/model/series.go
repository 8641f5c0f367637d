package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavingsSeries holds the per-period savings derived from a normalized matrix.
// Total is undefined (Valid=false) for a period where no account is present.
type SavingsSeries struct {
	Periods     []time.Time
	Total       []decimal.NullDecimal
	Incremental []decimal.NullDecimal
}

// Distribution holds each account's share of Total Savings per period.
// A share is undefined when the account is absent or the total is zero or undefined.
type Distribution struct {
	Periods  []time.Time
	Accounts []string
	Shares   [][]decimal.NullDecimal // [period][account]
}

// Share returns the share of account a in period p.
func (d Distribution) Share(p int, account string) (decimal.Decimal, bool) {
	for a, name := range d.Accounts {
		if name == account {
			s := d.Shares[p][a]
			return s.Decimal, s.Valid
		}
	}
	return decimal.Zero, false
}
