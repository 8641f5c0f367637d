package savings

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/model"
)

// DefaultWindow is the rolling mean window, in periods.
const DefaultWindow = 6

const stddevPrecision = 16

var half = decimal.RequireFromString("0.5")

// Share is one account's part of the last period's total.
type Share struct {
	Account string
	Share   decimal.Decimal
}

// Summary holds the figures shown next to the savings plots.
type Summary struct {
	Last            time.Time
	LastTotal       decimal.NullDecimal
	LastIncremental decimal.NullDecimal

	// Statistics over Incremental[1:], skipping undefined values.
	Mean   decimal.NullDecimal
	Median decimal.NullDecimal
	StdDev decimal.NullDecimal // sample standard deviation

	DeltaPrevious decimal.NullDecimal // last increment minus the one before
	DeltaMean     decimal.NullDecimal // last increment minus Mean

	Window             int
	RollingTotal       []decimal.NullDecimal // centered rolling mean, aligned with Periods
	RollingIncremental []decimal.NullDecimal

	Current []Share // last period, undefined shares dropped, in column order
}

// Summarize computes the summary of a series and its distribution. window
// <= 0 uses DefaultWindow.
func Summarize(series model.SavingsSeries, dist model.Distribution, window int) Summary {
	if window <= 0 {
		window = DefaultWindow
	}
	s := Summary{Window: window}
	n := len(series.Periods)
	if n == 0 {
		return s
	}
	last := n - 1
	s.Last = series.Periods[last]
	s.LastTotal = series.Total[last]
	s.LastIncremental = series.Incremental[last]

	var incs []decimal.Decimal
	if n > 1 {
		incs = defined(series.Incremental[1:])
	}
	s.Mean = mean(incs)
	s.Median = median(incs)
	s.StdDev = stddev(incs)

	if n > 1 && s.LastIncremental.Valid && series.Incremental[last-1].Valid {
		s.DeltaPrevious = decimal.NewNullDecimal(s.LastIncremental.Decimal.Sub(series.Incremental[last-1].Decimal))
	}
	if s.LastIncremental.Valid && s.Mean.Valid {
		s.DeltaMean = decimal.NewNullDecimal(s.LastIncremental.Decimal.Sub(s.Mean.Decimal))
	}

	s.RollingTotal = Rolling(series.Total, window)
	s.RollingIncremental = Rolling(series.Incremental, window)

	if len(dist.Shares) > last {
		for a, share := range dist.Shares[last] {
			if share.Valid {
				s.Current = append(s.Current, Share{Account: dist.Accounts[a], Share: share.Decimal})
			}
		}
	}
	return s
}

// Rolling returns the mean of each window of values, centered on the
// period: out[p] averages values[p+window/2-window+1 .. p+window/2]. A
// window that runs past either end or holds an undefined value is undefined.
func Rolling(values []decimal.NullDecimal, window int) []decimal.NullDecimal {
	out := make([]decimal.NullDecimal, len(values))
	if window <= 0 {
		return out
	}
	size := decimal.NewFromInt(int64(window))
	for p := range out {
		end := p + window/2
		start := end - window + 1
		if start < 0 || end >= len(values) {
			continue
		}
		sum, ok := decimal.Zero, true
		for _, v := range values[start : end+1] {
			if !v.Valid {
				ok = false
				break
			}
			sum = sum.Add(v.Decimal)
		}
		if ok {
			out[p] = decimal.NewNullDecimal(sum.Div(size))
		}
	}
	return out
}

func defined(values []decimal.NullDecimal) []decimal.Decimal {
	var out []decimal.Decimal
	for _, v := range values {
		if v.Valid {
			out = append(out, v.Decimal)
		}
	}
	return out
}

func mean(values []decimal.Decimal) decimal.NullDecimal {
	if len(values) == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.Sum(decimal.Zero, values...).Div(decimal.NewFromInt(int64(len(values)))))
}

func median(values []decimal.Decimal) decimal.NullDecimal {
	if len(values) == 0 {
		return decimal.NullDecimal{}
	}
	sorted := append([]decimal.Decimal(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return decimal.NewNullDecimal(sorted[mid])
	}
	return decimal.NewNullDecimal(sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2)))
}

// stddev is the sample standard deviation; undefined below two values.
func stddev(values []decimal.Decimal) decimal.NullDecimal {
	if len(values) < 2 {
		return decimal.NullDecimal{}
	}
	m := mean(values).Decimal
	sq := decimal.Zero
	for _, v := range values {
		d := v.Sub(m)
		sq = sq.Add(d.Mul(d))
	}
	variance := sq.Div(decimal.NewFromInt(int64(len(values) - 1)))
	if variance.IsZero() {
		return decimal.NewNullDecimal(decimal.Zero)
	}
	sd, err := variance.PowWithPrecision(half, stddevPrecision)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(sd.Round(stddevPrecision))
}
