package manual

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/rates"
)

// Form asks for a rate with an interactive terminal input. Invalid input is
// rejected in place, so the form only returns once a positive rate is typed
// or the user aborts.
type Form struct {
	Accessible bool
}

// ManualRate implements rates.ManualSource.
func (f *Form) ManualRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	var value string
	input := huh.NewInput().
		Title(fmt.Sprintf("No rate found for %s", from)).
		Description(fmt.Sprintf("1 %s = x %s", from, to)).
		Placeholder("e.g. 0.91").
		Value(&value).
		Validate(func(s string) error {
			_, err := ParseRate(s)
			return err
		})

	form := huh.NewForm(huh.NewGroup(input)).WithAccessible(f.Accessible)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return decimal.Zero, fmt.Errorf("%w: aborted", rates.ErrManualUnavailable)
		}
		return decimal.Zero, fmt.Errorf("rate form: %w", err)
	}
	return ParseRate(value)
}
