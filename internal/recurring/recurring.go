// Package recurring finds subscription-like payments: groups of debits with
// the same description, a consistent amount and a consistent interval.
package recurring

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/spendsight/internal/model"
)

const (
	DefaultMinOccurrences    = 2
	DefaultAmountTolerance   = 0.10
	DefaultIntervalTolerance = 2 * 24 * time.Hour
	DefaultMaxResults        = 1

	// Interval consistency is only checked from this many occurrences up.
	minIntervalSamples = 3
)

// Options tune detection. Zero values take the defaults; a negative
// MaxResults means unlimited.
type Options struct {
	MinOccurrences    int
	AmountTolerance   float64 // relative deviation from the mean
	IntervalTolerance time.Duration
	MaxResults        int
	Logger            *zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.MinOccurrences < 2 {
		o.MinOccurrences = DefaultMinOccurrences
	}
	if o.AmountTolerance <= 0 {
		o.AmountTolerance = DefaultAmountTolerance
	}
	if o.IntervalTolerance <= 0 {
		o.IntervalTolerance = DefaultIntervalTolerance
	}
	if o.MaxResults == 0 {
		o.MaxResults = DefaultMaxResults
	}
	return o
}

type occurrence struct {
	amount decimal.Decimal
	date   time.Time
}

// Detect returns every recurring pattern ranked by significance, highest
// first. Groups are keyed by exact description.
func Detect(txns []model.Transaction, opts Options) []model.RecurringPattern {
	opts = opts.withDefaults()
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	log.Debug().Str("detector", "recurring").Int("transactions", len(txns)).Msg("detector.start")

	groups := make(map[string][]occurrence)
	for _, txn := range txns {
		if !txn.IsDebit() || txn.Timestamp.IsZero() {
			continue
		}
		groups[txn.Description] = append(groups[txn.Description], occurrence{
			amount: txn.Spend(),
			date:   txn.Timestamp,
		})
	}

	tolerance := decimal.NewFromFloat(opts.AmountTolerance)
	var patterns []model.RecurringPattern
	for key, occ := range groups {
		if len(occ) < opts.MinOccurrences {
			continue
		}
		sort.SliceStable(occ, func(i, j int) bool { return occ[i].date.Before(occ[j].date) })

		sum := decimal.Zero
		for _, o := range occ {
			sum = sum.Add(o.amount)
		}
		count := decimal.NewFromInt(int64(len(occ)))
		mean := sum.Div(count)
		if !consistentAmounts(occ, mean, tolerance) {
			continue
		}

		avgInterval, ok := averageInterval(occ, opts.IntervalTolerance)
		if !ok {
			continue
		}

		p := model.RecurringPattern{
			MerchantKey:     key,
			Amounts:         make([]decimal.Decimal, len(occ)),
			Dates:           make([]time.Time, len(occ)),
			AverageAmount:   mean,
			AverageInterval: avgInterval,
			Frequency:       Frequency(avgInterval),
			MonthlyImpact:   MonthlyImpact(mean, avgInterval),
			// average * count, kept exact as the sum.
			Significance: sum,
		}
		for i, o := range occ {
			p.Amounts[i] = o.amount
			p.Dates[i] = o.date
		}
		p.Category = Categorize(key, mean)
		p.Recommendation = Recommend(p)
		patterns = append(patterns, p)
	}

	sort.Slice(patterns, func(i, j int) bool {
		if c := patterns[i].Significance.Cmp(patterns[j].Significance); c != 0 {
			return c > 0
		}
		return patterns[i].MerchantKey < patterns[j].MerchantKey
	})

	log.Debug().Str("detector", "recurring").Int("results", len(patterns)).Msg("detector.done")
	return patterns
}

// Insights converts the top MaxResults patterns into insights.
func Insights(patterns []model.RecurringPattern, opts Options) []model.Insight {
	opts = opts.withDefaults()
	if opts.MaxResults > 0 && len(patterns) > opts.MaxResults {
		patterns = patterns[:opts.MaxResults]
	}
	out := make([]model.Insight, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, ToInsight(p))
	}
	return out
}

// consistentAmounts rejects the group if any amount deviates from the mean
// by more than mean*tolerance.
func consistentAmounts(occ []occurrence, mean, tolerance decimal.Decimal) bool {
	limit := mean.Mul(tolerance)
	for _, o := range occ {
		if o.amount.Sub(mean).Abs().GreaterThan(limit) {
			return false
		}
	}
	return true
}

// averageInterval returns the mean gap between sorted dates. With at least
// three occurrences every gap must be within tolerance of that mean.
func averageInterval(occ []occurrence, tolerance time.Duration) (time.Duration, bool) {
	if len(occ) < 2 {
		return 0, true
	}
	intervals := make([]time.Duration, len(occ)-1)
	var total time.Duration
	for i := 1; i < len(occ); i++ {
		intervals[i-1] = occ[i].date.Sub(occ[i-1].date)
		total += intervals[i-1]
	}
	avg := total / time.Duration(len(intervals))

	if len(occ) < minIntervalSamples {
		return avg, true
	}
	for _, iv := range intervals {
		diff := iv - avg
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			return avg, false
		}
	}
	return avg, true
}
