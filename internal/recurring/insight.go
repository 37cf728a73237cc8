package recurring

import (
	"fmt"
	"math"

	"github.com/cleared-dev/spendsight/internal/model"
)

const maxConfidence = 0.95

// Confidence grows with the number of occurrences: min(0.5 + 0.1*n, 0.95).
func Confidence(occurrences int) float64 {
	return math.Min(0.5+0.1*float64(occurrences), maxConfidence)
}

// ToInsight renders a pattern as a saving_opportunity insight.
func ToInsight(p model.RecurringPattern) model.Insight {
	actionType := model.ActionReviewSubscription
	if p.Category == Utilities || p.Category == Telecom {
		actionType = model.ActionConsolidatePayments
	}

	freq := p.Frequency
	if freq == "" {
		freq = Frequency(p.AverageInterval)
	}
	return model.Insight{
		Type:  model.InsightSavingOpportunity,
		Title: fmt.Sprintf("Recurring payment to %s", p.MerchantKey),
		Description: fmt.Sprintf("%d %s payments averaging %s (about %s a month).",
			p.Occurrences(), freq, p.AverageAmount.StringFixed(2), p.MonthlyImpact.StringFixed(2)),
		Impact:     p.MonthlyImpact.InexactFloat64(),
		Confidence: Confidence(p.Occurrences()),
		Category:   p.Category,
		Actionable: true,
		Action: &model.Action{
			Type:        actionType,
			Description: p.Recommendation,
		},
		Source: model.SourceStatistical,
	}.Normalize()
}
