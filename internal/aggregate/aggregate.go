// Package aggregate buckets transactions by period and category.
package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/spendsight/internal/model"
)

// Classifier resolves a transaction's display category and color.
type Classifier interface {
	Classify(description, fallback string) string
	Color(category string) string
}

// Result is the aggregation of one period.
type Result struct {
	Total      decimal.Decimal // absolute spend, debits only
	Income     decimal.Decimal // credits only
	Categories []model.CategoryAggregate
	Count      int // transactions in window
}

// Aggregate totals the transactions in [start, end). Debits feed Total and
// the per-category amounts; credits feed Income only. Transactions with a
// zero timestamp are skipped.
func Aggregate(txns []model.Transaction, start, end time.Time, classifier Classifier) Result {
	res := Result{Categories: []model.CategoryAggregate{}}

	byName := make(map[string]*model.CategoryAggregate)
	var order []string
	for _, txn := range txns {
		if txn.Timestamp.IsZero() || !txn.InWindow(start, end) {
			continue
		}
		res.Count++

		if txn.IsCredit() {
			res.Income = res.Income.Add(txn.Amount)
			continue
		}
		if !txn.IsDebit() {
			continue
		}

		spend := txn.Amount.Abs()
		res.Total = res.Total.Add(spend)

		name := classifier.Classify(txn.Description, txn.Category)
		agg, ok := byName[name]
		if !ok {
			agg = &model.CategoryAggregate{Name: name, Color: classifier.Color(name)}
			byName[name] = agg
			order = append(order, name)
		}
		agg.Amount = agg.Amount.Add(spend)
		agg.Count++
	}

	for _, name := range order {
		agg := *byName[name]
		agg.Percentage = Share(agg.Amount, res.Total)
		res.Categories = append(res.Categories, agg)
	}
	SortCategories(res.Categories)
	return res
}

// SortCategories orders aggregates by amount descending, then name.
func SortCategories(cats []model.CategoryAggregate) {
	sort.SliceStable(cats, func(i, j int) bool {
		if c := cats[i].Amount.Cmp(cats[j].Amount); c != 0 {
			return c > 0
		}
		return cats[i].Name < cats[j].Name
	})
}

// Share returns part/total as a percentage, or 0 when total is zero.
func Share(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

// MonthBounds returns the first instant of t's month and of the following
// month, in t's location.
func MonthBounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// PreviousMonth returns the bounds of the month before the one starting at start.
func PreviousMonth(start time.Time) (time.Time, time.Time) {
	return MonthBounds(start.AddDate(0, -1, 0))
}
