package accounts

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/savings/internal/model"
)

func TestRoundTrip(t *testing.T) {
	accounts := []model.Account{
		{Name: "Bank", Currency: model.CurrencySpec{Code: "EUR", Multiplier: decimal.NewFromInt(1)}, Category: model.CategoryCash},
		{Name: "Gold", Currency: model.CurrencySpec{Code: "XAU", Multiplier: decimal.RequireFromString("0.5")}, Category: model.CategoryStock},
	}

	var buf bytes.Buffer
	err := WriteAccounts(&buf, accounts)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Gold,XAU:0.5,stock")

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, accounts[0].Name, got[0].Name)
	assert.Equal(t, accounts[0].Category, got[0].Category)
	assert.Equal(t, "EUR", got[0].Currency.Code)
	assert.Equal(t, "XAU", got[1].Currency.Code)
	assert.True(t, got[1].Currency.Multiplier.Equal(decimal.RequireFromString("0.5")))
}

func TestAllCategories(t *testing.T) {
	for _, c := range []model.Category{model.CategoryCash, model.CategoryPension, model.CategoryStock} {
		var buf bytes.Buffer
		require.NoError(t, WriteAccounts(&buf, []model.Account{{Name: "Test", Category: c}}))

		got, err := ReadAccounts(&buf)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, c, got[0].Category, "category %q should survive round-trip", c)
	}
}

func TestReadTestdata(t *testing.T) {
	f, err := os.Open("../../testdata/accounts.csv")
	require.NoError(t, err)
	defer f.Close()

	accounts, err := ReadAccounts(f)
	require.NoError(t, err)
	require.Len(t, accounts, 4)

	assert.Equal(t, model.CategoryStock, accounts[1].Category)
	assert.Equal(t, "", accounts[0].Currency.Code, "empty currency is allowed")
	assert.Equal(t, model.Category(""), accounts[3].Category, "empty category is allowed")
}

func TestUnmarshalAccount_Errors(t *testing.T) {
	tests := [][]string{
		{"", "EUR", "cash"},
		{"Bank", "EUR:0", "cash"},
		{"Bank", "EUR", "crypto"},
		{"Bank", "EUR"},
	}
	for _, rec := range tests {
		_, err := UnmarshalAccount(rec)
		assert.Error(t, err, strings.Join(rec, ","))
	}
}

func TestReadAccounts_Empty(t *testing.T) {
	got, err := ReadAccounts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}
