package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryAggregate is the total spend for one category in a period.
type CategoryAggregate struct {
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"` // always positive
	Color      string          `json:"color"`
	Percentage float64         `json:"percentage"` // share of period total, 0..100
	Count      int             `json:"count"`
}

// MonthlyComparison compares the current period total to the previous one.
type MonthlyComparison struct {
	PercentageChange   float64         `json:"percentageChange"`
	PreviousMonthTotal decimal.Decimal `json:"previousMonthTotal"`
}

// SpendingAnalysis is the derived summary handed to the presentation layer.
// It is recomputed on every input change and has no identity.
type SpendingAnalysis struct {
	PeriodStart       time.Time           `json:"periodStart"`
	PeriodEnd         time.Time           `json:"periodEnd"`
	Total             decimal.Decimal     `json:"total"`
	Income            decimal.Decimal     `json:"income"`
	MonthlyComparison MonthlyComparison   `json:"monthlyComparison"`
	Categories        []CategoryAggregate `json:"categories"`
	Insights          []Insight           `json:"insights"`
	// Empty is set when there were no transactions at all.
	Empty bool `json:"empty"`
}

// RecurringPattern is a merchant group that passed the amount and interval
// consistency tests.
type RecurringPattern struct {
	MerchantKey     string            `json:"merchantKey"`
	Amounts         []decimal.Decimal `json:"amounts"`
	Dates           []time.Time       `json:"dates"`
	AverageAmount   decimal.Decimal   `json:"averageAmount"`
	AverageInterval time.Duration     `json:"averageInterval"` // 0 when fewer than 2 dates
	Frequency       string            `json:"frequency"`
	MonthlyImpact   decimal.Decimal   `json:"monthlyImpact"`
	Significance    decimal.Decimal   `json:"significance"`
	Category        string            `json:"category"`
	Recommendation  string            `json:"recommendation"`
}

// Occurrences returns the number of transactions in the pattern.
func (p RecurringPattern) Occurrences() int {
	return len(p.Amounts)
}
