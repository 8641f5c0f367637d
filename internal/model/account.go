package model

import "strings"

// Category classifies an account column of the balance sheet.
type Category string

const (
	CategoryCash    Category = "cash"
	CategoryPension Category = "pension"
	CategoryStock   Category = "stock"
)

// Account represents one column of the balance sheet.
type Account struct {
	Name     string
	Currency CurrencySpec
	Category Category
}

// CategoryOf infers the category of an account from keywords in its name.
// "Pension Fund" -> pension, "Stock ACME" -> stock, anything else -> cash.
func CategoryOf(name string) Category {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, string(CategoryPension)):
		return CategoryPension
	case strings.Contains(lower, string(CategoryStock)):
		return CategoryStock
	default:
		return CategoryCash
	}
}
