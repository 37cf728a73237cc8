package recurring

import (
	"time"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// Frequency labels.
const (
	Weekly      = "weekly"
	Fortnightly = "fortnightly"
	Monthly     = "monthly"
	Quarterly   = "quarterly"
	Yearly      = "yearly"
	Irregular   = "irregular"
)

var frequencyBands = []struct {
	label    string
	min, max time.Duration
}{
	{Weekly, 6 * day, 8 * day},
	{Fortnightly, 13 * day, 15 * day},
	{Monthly, 27 * day, 33 * day},
	{Quarterly, 85 * day, 95 * day},
	{Yearly, 355 * day, 375 * day},
}

// Frequency labels an average interval.
func Frequency(avg time.Duration) string {
	for _, b := range frequencyBands {
		if avg >= b.min && avg <= b.max {
			return b.label
		}
	}
	return Irregular
}

var monthDays = decimal.NewFromInt(30)

// MonthlyImpact scales an average payment to a 30-day month. Without a
// usable interval the average itself is returned.
func MonthlyImpact(avg decimal.Decimal, interval time.Duration) decimal.Decimal {
	if interval <= 0 {
		return avg.Round(2)
	}
	days := decimal.NewFromFloat(interval.Hours() / 24)
	return avg.Mul(monthDays).Div(days).Round(2)
}
