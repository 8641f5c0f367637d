// Package manual provides the last-resort rate sources used when every rate
// provider has failed: a line prompt, a terminal form and configured defaults.
package manual

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/rates"
)

// ParseRate parses a typed rate. Anything that is not a positive decimal is
// an ErrInvalidManualInput.
func ParseRate(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty input", rates.ErrInvalidManualInput)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", rates.ErrInvalidManualInput, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q is not positive", rates.ErrInvalidManualInput, s)
	}
	return d, nil
}

// ForTerminal picks the manual source for a CLI run. Configured defaults
// always win. Without them an interactive run prompts with a form on a
// terminal and with a plain line prompt on piped input; a non-interactive run
// fails with rates.ErrManualUnavailable instead of waiting for input.
func ForTerminal(in *os.File, out io.Writer, defaults map[string]decimal.Decimal, interactive bool) rates.ManualSource {
	var next rates.ManualSource
	switch {
	case !interactive:
		next = nil
	case isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd()):
		next = &Form{}
	default:
		next = NewLine(in, out)
	}
	return &Defaults{Rates: defaults, Next: next}
}
