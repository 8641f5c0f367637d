package manual

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/rates"
)

// Line prompts on out and reads one rate per line from in.
type Line struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewLine creates a line prompt.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: bufio.NewReader(in), out: out}
}

// ManualRate implements rates.ManualSource.
func (l *Line) ManualRate(_ context.Context, from, to string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.out, "Type exchange rate -> 1 %s = x %s: ", from, to)
	line, err := l.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return decimal.Zero, fmt.Errorf("reading rate: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		return decimal.Zero, fmt.Errorf("%w: no input for %s", rates.ErrInvalidManualInput, from)
	}
	return ParseRate(line)
}
