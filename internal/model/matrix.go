package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnorderedPeriods is returned when periods are not strictly increasing.
	ErrUnorderedPeriods = errors.New("periods must be strictly increasing")
	// ErrDuplicateAccount is returned when two columns share a name.
	ErrDuplicateAccount = errors.New("duplicate account")
	// ErrUnknownAccount is returned when addressing a column that does not exist.
	ErrUnknownAccount = errors.New("unknown account")
)

// BalanceMatrix holds period-end balances: one row per period, one column per
// account. A cell with Valid=false means the account has no balance for that
// period, which is different from a zero balance.
type BalanceMatrix struct {
	periods  []time.Time
	accounts []string
	index    map[string]int
	cells    [][]decimal.NullDecimal // [period][account]
}

// NewBalanceMatrix creates an empty matrix. Periods must be strictly
// increasing and account names unique.
func NewBalanceMatrix(periods []time.Time, accounts []string) (*BalanceMatrix, error) {
	for i := 1; i < len(periods); i++ {
		if !periods[i].After(periods[i-1]) {
			return nil, fmt.Errorf("%w: %s follows %s", ErrUnorderedPeriods,
				periods[i].Format(time.DateOnly), periods[i-1].Format(time.DateOnly))
		}
	}

	index := make(map[string]int, len(accounts))
	for i, a := range accounts {
		if _, ok := index[a]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAccount, a)
		}
		index[a] = i
	}

	cells := make([][]decimal.NullDecimal, len(periods))
	for p := range cells {
		cells[p] = make([]decimal.NullDecimal, len(accounts))
	}

	return &BalanceMatrix{
		periods:  append([]time.Time(nil), periods...),
		accounts: append([]string(nil), accounts...),
		index:    index,
		cells:    cells,
	}, nil
}

// Periods returns the row index.
func (m *BalanceMatrix) Periods() []time.Time {
	return append([]time.Time(nil), m.periods...)
}

// Accounts returns the column names in order.
func (m *BalanceMatrix) Accounts() []string {
	return append([]string(nil), m.accounts...)
}

// NumPeriods returns the number of rows.
func (m *BalanceMatrix) NumPeriods() int { return len(m.periods) }

// NumAccounts returns the number of columns.
func (m *BalanceMatrix) NumAccounts() int { return len(m.accounts) }

// Period returns the timestamp of row p.
func (m *BalanceMatrix) Period(p int) time.Time { return m.periods[p] }

// AccountIndex returns the column of an account.
func (m *BalanceMatrix) AccountIndex(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

// At returns the cell at row p, column a.
func (m *BalanceMatrix) At(p, a int) decimal.NullDecimal {
	return m.cells[p][a]
}

// SetAt stores a present value at row p, column a.
func (m *BalanceMatrix) SetAt(p, a int, v decimal.Decimal) {
	m.cells[p][a] = decimal.NullDecimal{Decimal: v, Valid: true}
}

// Get returns the balance of account in period p and whether it is present.
func (m *BalanceMatrix) Get(p int, account string) (decimal.Decimal, bool) {
	a, ok := m.index[account]
	if !ok {
		return decimal.Zero, false
	}
	c := m.cells[p][a]
	return c.Decimal, c.Valid
}

// Set stores a present balance for account in period p.
func (m *BalanceMatrix) Set(p int, account string, v decimal.Decimal) error {
	a, ok := m.index[account]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAccount, account)
	}
	m.SetAt(p, a, v)
	return nil
}

// Clone returns a deep copy.
func (m *BalanceMatrix) Clone() *BalanceMatrix {
	c := m.Empty()
	for p := range m.cells {
		copy(c.cells[p], m.cells[p])
	}
	return c
}

// Empty returns a matrix with the same index and columns and no values.
func (m *BalanceMatrix) Empty() *BalanceMatrix {
	// Cannot fail: the shape was validated when m was built.
	c, _ := NewBalanceMatrix(m.periods, m.accounts)
	return c
}

// Select returns a new matrix restricted to the given accounts, in that order.
func (m *BalanceMatrix) Select(accounts []string) (*BalanceMatrix, error) {
	out, err := NewBalanceMatrix(m.periods, accounts)
	if err != nil {
		return nil, err
	}
	for j, name := range accounts {
		a, ok := m.index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAccount, name)
		}
		for p := range m.cells {
			out.cells[p][j] = m.cells[p][a]
		}
	}
	return out, nil
}
