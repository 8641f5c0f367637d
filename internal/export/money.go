package export

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatMoney renders amount in currency with its symbol and grouping, e.g.
// "$1,234.56". Codes go-money does not know fall back to "1234.56 XAU".
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return fmt.Sprintf("%s %s", amount.StringFixed(2), currency)
	}

	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := amount.Mul(factor).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}

// FormatNullMoney is FormatMoney for values that may be undefined.
func FormatNullMoney(v decimal.NullDecimal, currency string) string {
	if !v.Valid {
		return "n/a"
	}
	return FormatMoney(v.Decimal, currency)
}

// SignedMoney prefixes positive amounts with "+".
func SignedMoney(v decimal.NullDecimal, currency string) string {
	if v.Valid && v.Decimal.IsPositive() {
		return "+" + FormatMoney(v.Decimal, currency)
	}
	return FormatNullMoney(v, currency)
}

// FormatPercent renders a share in [0, 1] as a percentage.
func FormatPercent(share decimal.Decimal) string {
	return share.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}
