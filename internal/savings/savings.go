// Package savings derives total and incremental savings and their
// distribution across accounts from a normalized balance matrix.
package savings

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/model"
)

// Aggregate sums each period's present cells. A period with no present cell
// has an undefined total. Incremental[0] is zero; later increments are
// undefined when either total involved is undefined.
func Aggregate(normalized *model.BalanceMatrix) model.SavingsSeries {
	n := normalized.NumPeriods()
	s := model.SavingsSeries{
		Periods:     normalized.Periods(),
		Total:       make([]decimal.NullDecimal, n),
		Incremental: make([]decimal.NullDecimal, n),
	}
	for p := 0; p < n; p++ {
		sum, present := decimal.Zero, false
		for a := 0; a < normalized.NumAccounts(); a++ {
			if c := normalized.At(p, a); c.Valid {
				sum = sum.Add(c.Decimal)
				present = true
			}
		}
		if present {
			s.Total[p] = decimal.NewNullDecimal(sum)
		}
	}
	if n > 0 {
		s.Incremental[0] = decimal.NewNullDecimal(decimal.Zero)
	}
	for p := 1; p < n; p++ {
		cur, prev := s.Total[p], s.Total[p-1]
		if cur.Valid && prev.Valid {
			s.Incremental[p] = decimal.NewNullDecimal(cur.Decimal.Sub(prev.Decimal))
		}
	}
	return s
}

// Distribute returns each account's share of the period total. Shares are
// undefined for absent cells and for periods whose total is zero or
// undefined.
func Distribute(normalized *model.BalanceMatrix, series model.SavingsSeries) model.Distribution {
	d := model.Distribution{
		Periods:  normalized.Periods(),
		Accounts: normalized.Accounts(),
		Shares:   make([][]decimal.NullDecimal, normalized.NumPeriods()),
	}
	for p := range d.Shares {
		d.Shares[p] = make([]decimal.NullDecimal, normalized.NumAccounts())
		total := series.Total[p]
		if !total.Valid || total.Decimal.IsZero() {
			continue
		}
		for a := range d.Shares[p] {
			if c := normalized.At(p, a); c.Valid {
				d.Shares[p][a] = decimal.NewNullDecimal(c.Decimal.Div(total.Decimal))
			}
		}
	}
	return d
}
