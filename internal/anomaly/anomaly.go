// Package anomaly flags outlier transactions by z-score within a category.
package anomaly

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/spendsight/internal/model"
)

const (
	DefaultZThreshold = 2.0
	DefaultMinSamples = 3
	DefaultMaxResults = 1

	maxConfidence = 0.95
)

// Classifier resolves a transaction's category.
type Classifier interface {
	Classify(description, fallback string) string
}

// Options tune detection. Zero values take the defaults, except MaxResults
// where a negative value means unlimited.
type Options struct {
	ZThreshold float64
	MinSamples int
	MaxResults int
	Logger     *zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.ZThreshold <= 0 {
		o.ZThreshold = DefaultZThreshold
	}
	if o.MinSamples <= 0 {
		o.MinSamples = DefaultMinSamples
	}
	if o.MaxResults == 0 {
		o.MaxResults = DefaultMaxResults
	}
	return o
}

// Anomaly is a flagged transaction with the statistics of its category.
type Anomaly struct {
	Transaction model.Transaction
	Category    string
	Amount      float64 // absolute spend
	Mean        float64
	StdDev      float64
	ZScore      float64
}

// Stats returns the mean and population standard deviation of values.
func Stats(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// Find returns every flagged transaction, most significant first. Only
// debits are considered. Categories with fewer than MinSamples debits or a
// zero standard deviation never produce an anomaly.
func Find(txns []model.Transaction, classifier Classifier, opts Options) []Anomaly {
	opts = opts.withDefaults()
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	log.Debug().Str("detector", "anomaly").Int("transactions", len(txns)).Msg("detector.start")

	groups := make(map[string][]model.Transaction)
	var order []string
	for _, txn := range txns {
		if !txn.IsDebit() {
			continue
		}
		cat := classifier.Classify(txn.Description, txn.Category)
		if _, ok := groups[cat]; !ok {
			order = append(order, cat)
		}
		groups[cat] = append(groups[cat], txn)
	}

	var found []Anomaly
	for _, cat := range order {
		group := groups[cat]
		if len(group) < opts.MinSamples {
			continue
		}
		amounts := make([]float64, len(group))
		for i, txn := range group {
			amounts[i] = txn.Spend().InexactFloat64()
		}
		mean, std := Stats(amounts)
		if std == 0 {
			continue
		}
		for i, txn := range group {
			z := (amounts[i] - mean) / std
			if math.Abs(z) <= opts.ZThreshold {
				continue
			}
			found = append(found, Anomaly{
				Transaction: txn,
				Category:    cat,
				Amount:      amounts[i],
				Mean:        mean,
				StdDev:      std,
				ZScore:      z,
			})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		zi, zj := math.Abs(found[i].ZScore), math.Abs(found[j].ZScore)
		if zi != zj {
			return zi > zj
		}
		ti, tj := found[i].Transaction.Timestamp, found[j].Transaction.Timestamp
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return found[i].Transaction.ID < found[j].Transaction.ID
	})

	log.Debug().Str("detector", "anomaly").Int("results", len(found)).Msg("detector.done")
	return found
}

// Detect runs Find and converts the top MaxResults anomalies to insights.
func Detect(txns []model.Transaction, classifier Classifier, opts Options) []model.Insight {
	opts = opts.withDefaults()
	found := Find(txns, classifier, opts)
	if opts.MaxResults > 0 && len(found) > opts.MaxResults {
		found = found[:opts.MaxResults]
	}
	out := make([]model.Insight, 0, len(found))
	for _, a := range found {
		out = append(out, a.Insight())
	}
	return out
}

// Confidence maps a z-score to min(|z|/4, 0.95).
func Confidence(z float64) float64 {
	return math.Min(math.Abs(z)/4, maxConfidence)
}

// Insight renders the anomaly.
func (a Anomaly) Insight() model.Insight {
	desc := a.Transaction.Description
	if desc == "" {
		desc = a.Transaction.MerchantName
	}
	direction := "higher"
	if a.ZScore < 0 {
		direction = "lower"
	}
	return model.Insight{
		Type:  model.InsightAnomaly,
		Title: fmt.Sprintf("Unusual %s transaction", a.Category),
		Description: fmt.Sprintf("%s on %s for %.2f is much %s than your typical %s spend of %.2f.",
			desc, a.Transaction.Timestamp.Format(time.DateOnly), a.Amount, direction, a.Category, a.Mean),
		Impact:     math.Abs(a.Amount - a.Mean),
		Confidence: Confidence(a.ZScore),
		Category:   a.Category,
		Source:     model.SourceStatistical,
	}.Normalize()
}
