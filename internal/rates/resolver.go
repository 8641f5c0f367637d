package rates

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/cleared-dev/savings/internal/log"
)

// Options tunes the resolver's retry policy.
type Options struct {
	// Retries is the number of older dates probed once the exact date fails.
	Retries int
	// Backoff is the offset of the first probe; each further probe doubles it.
	Backoff time.Duration
	// Timeout bounds a single provider call. Zero means no bound.
	Timeout time.Duration
}

// MaxRetries caps Options.Retries. With the default 6h backoff the last
// probe lands about 22 years back.
const MaxRetries = 16

// DefaultOptions probes up to 6 older dates, from 6h back to 8 days back.
func DefaultOptions() Options {
	return Options{
		Retries: 6,
		Backoff: 6 * time.Hour,
		Timeout: 5 * time.Second,
	}
}

// Resolver resolves rates through an ordered provider chain. It owns the
// run's Cache and is safe for concurrent use.
type Resolver struct {
	providers []Provider
	manual    ManualSource
	cache     *Cache
	opts      Options
	log       *log.Logger

	flight   singleflight.Group
	manualMu sync.Mutex // one prompt at a time

	mu      sync.Mutex
	history []Resolution
}

// NewResolver creates a resolver with a fresh cache. manual may be nil, in
// which case exhausting the providers fails with ErrManualUnavailable.
func NewResolver(providers []Provider, manual ManualSource, opts Options, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Discard()
	}
	opts.Retries = min(max(opts.Retries, 0), MaxRetries)
	return &Resolver{
		providers: providers,
		manual:    manual,
		cache:     NewCache(),
		opts:      opts,
		log:       logger,
	}
}

// Cache returns the resolver's cache.
func (r *Resolver) Cache() *Cache { return r.cache }

// Resolutions returns every rate obtained from a provider or a manual entry
// so far, in resolution order. Cache hits are not repeated.
func (r *Resolver) Resolutions() []Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Resolution(nil), r.history...)
}

// Resolve returns the rate converting one unit of from into to as of asOf.
// Provider failures are never returned: the only errors are a failed manual
// entry and a cancelled context.
func (r *Resolver) Resolve(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error) {
	key := NewKey(from, to, asOf)
	if key.From == key.To {
		return decimal.NewFromInt(1), nil
	}
	if rate, ok := r.cache.Get(key); ok {
		return rate, nil
	}

	v, err, _ := r.flight.Do(key.String(), func() (any, error) {
		if rate, ok := r.cache.Get(key); ok {
			return rate, nil
		}

		res, err := r.query(ctx, key)
		if err == nil {
			r.cache.Put(key, res.Rate)
			r.record(res)
			return res.Rate, nil
		}
		if !errors.Is(err, ErrNoRate) {
			return nil, err
		}

		r.log.Warn("all rate providers failed, falling back to manual entry",
			log.FieldFrom, key.From, log.FieldTo, key.To, log.FieldAsOf, key.AsOf)
		rate, err := r.manualRate(ctx, key)
		if err != nil {
			return nil, err
		}
		r.cache.Put(key, rate)
		return rate, nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return v.(decimal.Decimal), nil
}

// query runs the provider chain at the exact date, then at each probe.
func (r *Resolver) query(ctx context.Context, key Key) (Resolution, error) {
	for i, probe := range r.probes(key.AsOf) {
		for _, p := range r.providers {
			if err := ctx.Err(); err != nil {
				return Resolution{}, err
			}
			rate, err := r.attempt(ctx, p, key.From, key.To, probe)
			if err != nil {
				r.log.Debug("rate provider failed",
					log.FieldProvider, p.Name(), log.FieldFrom, key.From, log.FieldTo, key.To,
					log.FieldProbe, probe, log.FieldAttempt, i, log.FieldError, err)
				continue
			}
			r.log.Debug("rate resolved",
				log.FieldProvider, p.Name(), log.FieldFrom, key.From, log.FieldTo, key.To,
				log.FieldProbe, probe, log.FieldRate, rate.String())
			return Resolution{Key: key, Rate: rate, Source: p.Name(), Probe: probe, At: time.Now()}, nil
		}
	}
	return Resolution{}, fmt.Errorf("%w: %s", ErrNoRate, key)
}

// probes returns the exact date followed by Retries older dates, each
// Backoff·2^i before asOf. A dateless lookup is tried once.
func (r *Resolver) probes(asOf time.Time) []time.Time {
	if asOf.IsZero() {
		return []time.Time{{}}
	}
	out := make([]time.Time, 0, r.opts.Retries+1)
	out = append(out, asOf)
	for i := 0; i < r.opts.Retries; i++ {
		out = append(out, asOf.Add(-Backoff(r.opts.Backoff, i)))
	}
	return out
}

// Backoff returns base·2^i, saturating at math.MaxInt64 instead of
// overflowing.
func Backoff(base time.Duration, i int) time.Duration {
	if base <= 0 || i <= 0 {
		return base
	}
	if i >= 63 || base > math.MaxInt64>>uint(i) {
		return math.MaxInt64
	}
	return base << uint(i)
}

// attempt calls one provider with the configured timeout and turns panics
// and non-positive rates into errors.
func (r *Resolver) attempt(ctx context.Context, p Provider, from, to string, asOf time.Time) (rate decimal.Decimal, err error) {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}
	defer func() {
		if v := recover(); v != nil {
			rate, err = decimal.Zero, fmt.Errorf("%w: %s panicked: %v", ErrProviderUnavailable, p.Name(), v)
		}
	}()

	rate, err = p.Rate(ctx, from, to, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s returned non-positive rate %s", ErrProviderUnavailable, p.Name(), rate)
	}
	return rate, nil
}

// manualRate asks the manual source once per origin currency per run.
func (r *Resolver) manualRate(ctx context.Context, key Key) (decimal.Decimal, error) {
	r.manualMu.Lock()
	defer r.manualMu.Unlock()

	if rate, ok := r.cache.Manual(key.From); ok {
		return rate, nil
	}
	if r.manual == nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, ErrManualUnavailable)
	}

	rate, err := r.manual.ManualRate(ctx, key.From, key.To)
	if err != nil {
		return decimal.Zero, fmt.Errorf("manual rate for %s: %w", key.From, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("manual rate for %s: %w: %s is not positive", key.From, ErrInvalidManualInput, rate)
	}

	r.cache.PutManual(key.From, rate)
	r.record(Resolution{Key: key, Rate: rate, Source: SourceManual, At: time.Now()})
	return rate, nil
}

func (r *Resolver) record(res Resolution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, res)
}
