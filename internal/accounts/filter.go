package accounts

import "github.com/cleared-dev/savings/internal/model"

// Filter decides which account categories take part in the savings.
type Filter struct {
	IncludePension bool
	IncludeStock   bool
}

// DefaultFilter leaves pension funds out and keeps stock holdings.
func DefaultFilter() Filter {
	return Filter{IncludePension: false, IncludeStock: true}
}

// Allows reports whether accounts of category c are kept.
func (f Filter) Allows(c model.Category) bool {
	switch c {
	case model.CategoryPension:
		return f.IncludePension
	case model.CategoryStock:
		return f.IncludeStock
	default:
		return true
	}
}

// Select returns the names of the kept accounts, in their original order.
func (f Filter) Select(accounts []model.Account) []string {
	var names []string
	for _, a := range accounts {
		if f.Allows(a.Category) {
			names = append(names, a.Name)
		}
	}
	return names
}
