package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(y, m int) time.Time {
	return time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
}

func TestParseCurrencySpec(t *testing.T) {
	tests := []struct {
		in       string
		code     string
		mult     string
		wantErr  bool
		asString string
	}{
		{in: "EUR", code: "EUR", mult: "1", asString: "EUR"},
		{in: " usd ", code: "USD", mult: "1", asString: "USD"},
		{in: "USD:152.5", code: "USD", mult: "152.5", asString: "USD:152.5"},
		{in: "GBP: 2", code: "GBP", mult: "2", asString: "GBP:2"},
		{in: "USD:abc", wantErr: true},
		{in: "USD:0", wantErr: true},
		{in: "USD:-3", wantErr: true},
		{in: ":3", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		spec, err := ParseCurrencySpec(tt.in)
		if tt.wantErr {
			require.Error(t, err, "ParseCurrencySpec(%q)", tt.in)
			assert.ErrorIs(t, err, ErrMalformedCurrencySpec)
			continue
		}
		require.NoError(t, err, "ParseCurrencySpec(%q)", tt.in)
		assert.Equal(t, tt.code, spec.Code)
		assert.True(t, spec.Multiplier.Equal(decimal.RequireFromString(tt.mult)), "multiplier of %q = %s", tt.in, spec.Multiplier)
		assert.Equal(t, tt.asString, spec.String())
	}
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryPension, CategoryOf("Company Pension"))
	assert.Equal(t, CategoryStock, CategoryOf("ACME stock"))
	assert.Equal(t, CategoryCash, CategoryOf("Checking"))
}

func TestNewBalanceMatrix_RejectsUnorderedPeriods(t *testing.T) {
	_, err := NewBalanceMatrix([]time.Time{month(2024, 2), month(2024, 1)}, []string{"A"})
	assert.ErrorIs(t, err, ErrUnorderedPeriods)

	_, err = NewBalanceMatrix([]time.Time{month(2024, 1), month(2024, 1)}, []string{"A"})
	assert.ErrorIs(t, err, ErrUnorderedPeriods)
}

func TestNewBalanceMatrix_RejectsDuplicateAccounts(t *testing.T) {
	_, err := NewBalanceMatrix([]time.Time{month(2024, 1)}, []string{"A", "A"})
	assert.ErrorIs(t, err, ErrDuplicateAccount)
}

func TestBalanceMatrix_AbsentIsNotZero(t *testing.T) {
	m, err := NewBalanceMatrix([]time.Time{month(2024, 1), month(2024, 2)}, []string{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, m.Set(0, "A", decimal.Zero))

	v, ok := m.Get(0, "A")
	assert.True(t, ok)
	assert.True(t, v.IsZero())

	_, ok = m.Get(0, "B")
	assert.False(t, ok)

	assert.ErrorIs(t, m.Set(0, "C", decimal.Zero), ErrUnknownAccount)
}

func TestBalanceMatrix_CloneIsIndependent(t *testing.T) {
	m, err := NewBalanceMatrix([]time.Time{month(2024, 1)}, []string{"A"})
	require.NoError(t, err)
	require.NoError(t, m.Set(0, "A", decimal.NewFromInt(10)))

	c := m.Clone()
	require.NoError(t, c.Set(0, "A", decimal.NewFromInt(20)))

	v, _ := m.Get(0, "A")
	assert.Equal(t, "10", v.String())
}

func TestBalanceMatrix_Select(t *testing.T) {
	m, err := NewBalanceMatrix([]time.Time{month(2024, 1)}, []string{"A", "B", "C"})
	require.NoError(t, err)
	require.NoError(t, m.Set(0, "C", decimal.NewFromInt(3)))

	s, err := m.Select([]string{"C", "A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, s.Accounts())
	v, ok := s.Get(0, "C")
	assert.True(t, ok)
	assert.Equal(t, "3", v.String())

	_, err = m.Select([]string{"Z"})
	assert.ErrorIs(t, err, ErrUnknownAccount)
}
