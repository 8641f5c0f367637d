package manual

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/savings/internal/rates"
)

func TestParseRate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "0.91", want: "0.91"},
		{in: " 1.2\n", want: "1.2"},
		{in: "0,85", want: "0.85"},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-1", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseRate(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, rates.ErrInvalidManualInput, "ParseRate(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseRate(%q)", tt.in)
		assert.Equal(t, tt.want, got.String())
	}
}

func TestLine_ReadsOneRatePerPrompt(t *testing.T) {
	var out bytes.Buffer
	l := NewLine(strings.NewReader("0.9\n1.15\n"), &out)

	r1, err := l.ManualRate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	r2, err := l.ManualRate(context.Background(), "GBP", "EUR")
	require.NoError(t, err)

	assert.Equal(t, "0.9", r1.String())
	assert.Equal(t, "1.15", r2.String())
	assert.Contains(t, out.String(), "Type exchange rate -> 1 USD = x EUR:")
	assert.Contains(t, out.String(), "1 GBP = x EUR")
}

func TestLine_LastLineWithoutNewline(t *testing.T) {
	l := NewLine(strings.NewReader("0.75"), &bytes.Buffer{})
	r, err := l.ManualRate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "0.75", r.String())
}

func TestLine_UnparsableInputIsFatal(t *testing.T) {
	l := NewLine(strings.NewReader("ninety cents\n"), &bytes.Buffer{})
	_, err := l.ManualRate(context.Background(), "USD", "EUR")
	assert.ErrorIs(t, err, rates.ErrInvalidManualInput)
}

func TestLine_EOFIsFatal(t *testing.T) {
	l := NewLine(strings.NewReader(""), &bytes.Buffer{})
	_, err := l.ManualRate(context.Background(), "USD", "EUR")
	assert.ErrorIs(t, err, rates.ErrInvalidManualInput)
}

func TestDefaults(t *testing.T) {
	next := NewLine(strings.NewReader("3\n"), &bytes.Buffer{})
	d := &Defaults{
		Rates: map[string]decimal.Decimal{"BTC": decimal.NewFromInt(60000)},
		Next:  next,
	}

	r, err := d.ManualRate(context.Background(), "btc", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "60000", r.String())

	r, err = d.ManualRate(context.Background(), "XAU", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "3", r.String())
}

func TestDefaults_WithoutNextFails(t *testing.T) {
	d := &Defaults{}
	_, err := d.ManualRate(context.Background(), "USD", "EUR")
	assert.ErrorIs(t, err, rates.ErrManualUnavailable)
}
