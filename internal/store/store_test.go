package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/savings/internal/rates"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "rates.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStore_PutAndRate(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "usd", "eur", day(2024, 1, 31), decimal.RequireFromString("0.92"), "test"))
	require.NoError(t, s.Put(ctx, "USD", "EUR", day(2024, 2, 29), decimal.RequireFromString("0.93"), "test"))

	rate, err := s.Rate(ctx, "USD", "EUR", day(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, "0.92", rate.String())

	rate, err = s.Rate(ctx, "USD", "EUR", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "0.93", rate.String(), "undated lookups take the latest day")

	rate, err = s.Rate(ctx, "EUR", "USD", day(2024, 1, 31))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1).Div(decimal.RequireFromString("0.92")).Equal(rate))

	_, err = s.Rate(ctx, "USD", "EUR", day(2024, 1, 30))
	assert.ErrorIs(t, err, rates.ErrProviderUnavailable)
}

func TestStore_PutReplaces(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "USD", "EUR", day(2024, 1, 31), decimal.RequireFromString("0.92"), "a"))
	require.NoError(t, s.Put(ctx, "USD", "EUR", day(2024, 1, 31), decimal.RequireFromString("0.91"), "b"))

	rate, err := s.Rate(ctx, "USD", "EUR", day(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, "0.91", rate.String())

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_PutRejectsNonPositive(t *testing.T) {
	s := openTest(t)
	err := s.Put(context.Background(), "USD", "EUR", day(2024, 1, 31), decimal.Zero, "x")
	assert.Error(t, err)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), "GBP", "EUR", day(2024, 1, 31), decimal.RequireFromString("1.17"), "x"))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	rate, err := s.Rate(context.Background(), "GBP", "EUR", day(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, "1.17", rate.String())
}

func TestStore_Record(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	jan := day(2024, 1, 31)

	n, err := s.Record(ctx, []rates.Resolution{
		{Key: rates.NewKey("USD", "EUR", jan), Rate: decimal.RequireFromString("0.9"), Source: "frankfurter", Probe: jan.Add(-24 * time.Hour)},
		{Key: rates.NewKey("XAU", "EUR", jan), Rate: decimal.RequireFromString("1900"), Source: rates.SourceManual},
		{Key: rates.NewKey("GBP", "EUR", time.Time{}), Rate: decimal.RequireFromString("1.1"), Source: "static"},
		{Key: rates.NewKey("CHF", "EUR", jan), Rate: decimal.RequireFromString("1.05"), Source: "archive", Probe: jan},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rate, err := s.Rate(ctx, "USD", "EUR", day(2024, 1, 30))
	require.NoError(t, err, "stored under the probed day")
	assert.Equal(t, "0.9", rate.String())
}

func TestStore_Import(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	in := strings.NewReader("date,from,to,rate\n" +
		"2024-01-31,usd,eur,0.92\n" +
		"# comment\n" +
		"2024-02-29, GBP, EUR, 1.17\n")
	n, err := s.Import(ctx, in, "import")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rate, err := s.Rate(ctx, "GBP", "EUR", day(2024, 2, 29))
	require.NoError(t, err)
	assert.Equal(t, "1.17", rate.String())
}

func TestStore_ImportIsAtomic(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	in := strings.NewReader("2024-01-31,USD,EUR,0.92\n2024-02-30,USD,EUR,0.93\n")
	_, err := s.Import(ctx, in, "import")
	assert.ErrorContains(t, err, "line 2")

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStore_ImportErrorNamesFileLine(t *testing.T) {
	s := openTest(t)

	in := strings.NewReader("# exported rates\n" +
		"date,from,to,rate\n" +
		"\n" +
		"# january\n" +
		"2024-01-31,USD,EUR,0.92\n" +
		"2024-02-29,USD,EUR,lots\n")
	_, err := s.Import(context.Background(), in, "import")
	require.Error(t, err)
	assert.ErrorContains(t, err, "line 6:")
}

func TestStore_ImportRejectsBadRows(t *testing.T) {
	tests := []string{
		"2024-01-31,USD,EUR\n",
		"2024-01-31,USD,EUR,abc\n",
		"2024-01-31,USD,EUR,-1\n",
		"2024-01-31,,EUR,1\n",
	}
	for _, in := range tests {
		s := openTest(t)
		_, err := s.Import(context.Background(), strings.NewReader(in), "import")
		assert.Error(t, err, in)
	}
}
