package rates

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// fakeProvider answers from a table keyed by date; missing dates fail.
type fakeProvider struct {
	name  string
	rates map[time.Time]decimal.Decimal
	any   *decimal.Decimal // answer for every date when set

	mu    sync.Mutex
	calls []time.Time
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Rate(_ context.Context, _, _ string, asOf time.Time) (decimal.Decimal, error) {
	f.mu.Lock()
	f.calls = append(f.calls, asOf)
	f.mu.Unlock()
	if f.any != nil {
		return *f.any, nil
	}
	if r, ok := f.rates[asOf]; ok {
		return r, nil
	}
	return decimal.Zero, ErrProviderUnavailable
}

func (f *fakeProvider) numCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func always(name, rate string) *fakeProvider {
	r := dec(rate)
	return &fakeProvider{name: name, any: &r}
}

func failing(name string) *fakeProvider {
	return &fakeProvider{name: name}
}

// fakeManual counts prompts and returns a fixed answer.
type fakeManual struct {
	rate  decimal.Decimal
	err   error
	calls atomic.Int32
}

func (m *fakeManual) ManualRate(context.Context, string, string) (decimal.Decimal, error) {
	m.calls.Add(1)
	return m.rate, m.err
}

func TestResolve_SameCurrencyIsOneWithoutProviderCall(t *testing.T) {
	p := always("p", "2")
	r := NewResolver([]Provider{p}, nil, DefaultOptions(), nil)

	for _, asOf := range []time.Time{{}, day(2024, 1, 31), day(1999, 12, 31)} {
		rate, err := r.Resolve(context.Background(), "EUR", "eur", asOf)
		require.NoError(t, err)
		assert.True(t, rate.Equal(decimal.NewFromInt(1)))
	}
	assert.Zero(t, p.numCalls())
	assert.Zero(t, r.Cache().Len())
}

func TestResolve_CachesByKey(t *testing.T) {
	p := always("p", "0.9")
	r := NewResolver([]Provider{p}, nil, DefaultOptions(), nil)
	ctx := context.Background()

	first, err := r.Resolve(ctx, "USD", "EUR", day(2024, 1, 31))
	require.NoError(t, err)
	second, err := r.Resolve(ctx, "usd", "EUR", day(2024, 1, 31))
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.Equal(t, 1, p.numCalls())
	require.Len(t, r.Resolutions(), 1)
	assert.Equal(t, "p", r.Resolutions()[0].Source)

	_, err = r.Resolve(ctx, "USD", "EUR", day(2024, 2, 29))
	require.NoError(t, err)
	assert.Equal(t, 2, p.numCalls(), "a different date is a different key")
}

func TestResolve_FallsBackInProviderOrder(t *testing.T) {
	first := failing("first")
	second := always("second", "0.8")
	third := always("third", "0.7")
	r := NewResolver([]Provider{first, second, third}, nil, DefaultOptions(), nil)

	rate, err := r.Resolve(context.Background(), "USD", "EUR", day(2024, 1, 31))
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("0.8")))
	assert.Equal(t, 1, first.numCalls())
	assert.Equal(t, 1, second.numCalls())
	assert.Zero(t, third.numCalls())
}

func TestResolve_ProbesOlderDatesWithGeometricBackoff(t *testing.T) {
	asOf := day(2024, 3, 31) // a Sunday
	opts := Options{Retries: 5, Backoff: 6 * time.Hour}
	// Only the probe 48h back (i=3: 6h·2^3) has data.
	p := &fakeProvider{name: "p", rates: map[time.Time]decimal.Decimal{
		asOf.Add(-48 * time.Hour): dec("0.92"),
	}}
	r := NewResolver([]Provider{p}, nil, opts, nil)

	rate, err := r.Resolve(context.Background(), "USD", "EUR", asOf)
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("0.92")))

	assert.Equal(t, []time.Time{
		asOf,
		asOf.Add(-6 * time.Hour),
		asOf.Add(-12 * time.Hour),
		asOf.Add(-24 * time.Hour),
		asOf.Add(-48 * time.Hour),
	}, p.calls)

	res := r.Resolutions()
	require.Len(t, res, 1)
	assert.Equal(t, asOf.Add(-48*time.Hour), res[0].Probe)
	assert.Equal(t, asOf, res[0].Key.AsOf, "cached under the requested date")
}

func TestResolve_RetriesWholeChainAtEachProbe(t *testing.T) {
	a := failing("a")
	b := failing("b")
	r := NewResolver([]Provider{a, b}, &fakeManual{rate: dec("1.1")}, Options{Retries: 3, Backoff: time.Hour}, nil)

	_, err := r.Resolve(context.Background(), "GBP", "EUR", day(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, 4, a.numCalls())
	assert.Equal(t, 4, b.numCalls())
}

func TestResolve_ManualOncePerOriginCurrency(t *testing.T) {
	manual := &fakeManual{rate: dec("0.05")}
	r := NewResolver([]Provider{failing("p")}, manual, Options{Retries: 2, Backoff: time.Hour}, nil)
	ctx := context.Background()

	for m := 1; m <= 6; m++ {
		rate, err := r.Resolve(ctx, "XYZ", "EUR", day(2024, m, 28))
		require.NoError(t, err)
		assert.True(t, rate.Equal(dec("0.05")))
	}
	// A different target reuses the same manual answer.
	_, err := r.Resolve(ctx, "XYZ", "USD", day(2024, 1, 28))
	require.NoError(t, err)

	assert.EqualValues(t, 1, manual.calls.Load())

	var manualRecords int
	for _, res := range r.Resolutions() {
		if res.Source == SourceManual {
			manualRecords++
		}
	}
	assert.Equal(t, 1, manualRecords)
}

func TestResolve_ManualPerDistinctCurrency(t *testing.T) {
	manual := &fakeManual{rate: dec("2")}
	r := NewResolver([]Provider{failing("p")}, manual, Options{Retries: 1, Backoff: time.Hour}, nil)
	ctx := context.Background()

	for _, cur := range []string{"AAA", "BBB", "AAA", "BBB"} {
		_, err := r.Resolve(ctx, cur, "EUR", day(2024, 1, 31))
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, manual.calls.Load())
}

func TestResolve_InvalidManualInputIsFatal(t *testing.T) {
	manual := &fakeManual{err: ErrInvalidManualInput}
	r := NewResolver([]Provider{failing("p")}, manual, Options{}, nil)

	_, err := r.Resolve(context.Background(), "USD", "EUR", day(2024, 1, 31))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidManualInput)
}

func TestResolve_NonPositiveManualRateIsInvalid(t *testing.T) {
	manual := &fakeManual{rate: dec("0")}
	r := NewResolver([]Provider{failing("p")}, manual, Options{}, nil)

	_, err := r.Resolve(context.Background(), "USD", "EUR", day(2024, 1, 31))
	assert.ErrorIs(t, err, ErrInvalidManualInput)
}

func TestResolve_NoManualSourceFailsExplicitly(t *testing.T) {
	r := NewResolver([]Provider{failing("p")}, nil, Options{}, nil)

	_, err := r.Resolve(context.Background(), "USD", "EUR", day(2024, 1, 31))
	assert.ErrorIs(t, err, ErrManualUnavailable)
}

func TestResolve_NonPositiveProviderRateIsFailure(t *testing.T) {
	zero := always("zero", "0")
	good := always("good", "0.9")
	r := NewResolver([]Provider{zero, good}, nil, Options{}, nil)

	rate, err := r.Resolve(context.Background(), "USD", "EUR", day(2024, 1, 31))
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("0.9")))
}

type slowProvider struct{}

func (slowProvider) Name() string { return "slow" }

func (slowProvider) Rate(ctx context.Context, _, _ string, _ time.Time) (decimal.Decimal, error) {
	select {
	case <-ctx.Done():
		return decimal.Zero, ctx.Err()
	case <-time.After(5 * time.Second):
		return decimal.NewFromInt(99), nil
	}
}

type panickingProvider struct{}

func (panickingProvider) Name() string { return "panic" }

func (panickingProvider) Rate(context.Context, string, string, time.Time) (decimal.Decimal, error) {
	panic("boom")
}

func TestResolve_TimeoutAndPanicAreProviderFailures(t *testing.T) {
	good := always("good", "0.9")
	r := NewResolver([]Provider{slowProvider{}, panickingProvider{}, good}, nil,
		Options{Timeout: 20 * time.Millisecond}, nil)

	start := time.Now()
	rate, err := r.Resolve(context.Background(), "USD", "EUR", day(2024, 1, 31))
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("0.9")))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestResolve_CancelledContextSkipsManual(t *testing.T) {
	manual := &fakeManual{rate: dec("1")}
	r := NewResolver([]Provider{failing("p")}, manual, Options{Retries: 2, Backoff: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Resolve(ctx, "USD", "EUR", day(2024, 1, 31))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, manual.calls.Load())
}

func TestResolve_ConcurrentCallersShareOneLookup(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	p := &blockingProvider{release: release, calls: &calls}
	r := NewResolver([]Provider{p}, nil, Options{}, nil)

	var wg sync.WaitGroup
	results := make([]decimal.Decimal, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rate, err := r.Resolve(context.Background(), "USD", "EUR", day(2024, 1, 31))
			assert.NoError(t, err)
			results[i] = rate
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, rate := range results {
		assert.True(t, rate.Equal(dec("0.9")))
	}
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, 1, r.Cache().Len())
}

type blockingProvider struct {
	release chan struct{}
	calls   *atomic.Int32
}

func (b *blockingProvider) Name() string { return "blocking" }

func (b *blockingProvider) Rate(context.Context, string, string, time.Time) (decimal.Decimal, error) {
	b.calls.Add(1)
	<-b.release
	return dec("0.9"), nil
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		i    int
		want time.Duration
	}{
		{0, 6 * time.Hour},
		{1, 12 * time.Hour},
		{2, 24 * time.Hour},
		{5, 192 * time.Hour},
		{18, 6 * time.Hour << 18},
		{19, math.MaxInt64},
		{63, math.MaxInt64},
		{200, math.MaxInt64},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(6*time.Hour, tt.i), "Backoff(6h, %d)", tt.i)
	}
}

func TestResolve_LargeRetriesNeverProbeAfterAsOf(t *testing.T) {
	asOf := day(2024, 3, 31)
	p := failing("p")
	r := NewResolver([]Provider{p}, &fakeManual{rate: dec("1")}, Options{Retries: 25, Backoff: 6 * time.Hour}, nil)

	_, err := r.Resolve(context.Background(), "USD", "EUR", asOf)
	require.NoError(t, err)

	require.Len(t, p.calls, MaxRetries+1, "retries are capped")
	for i, probe := range p.calls {
		assert.False(t, probe.After(asOf), "probe %d at %s is after %s", i, probe, asOf)
		if i > 0 {
			assert.True(t, probe.Before(p.calls[i-1]), "probe %d goes back in time", i)
		}
	}
}

func TestKey_NormalizesZonesAndCase(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	utc := day(2024, 1, 31)

	a := NewKey("usd", "eur", utc)
	b := NewKey("USD", "EUR", utc.In(paris))
	assert.Equal(t, a, b)
	assert.Equal(t, "USD/EUR@2024-01-31T00:00:00Z", a.String())
	assert.Equal(t, "USD/EUR@latest", NewKey("USD", "EUR", time.Time{}).String())
}
