package recurring

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/spendsight/internal/model"
)

var start = time.Date(2025, 1, 3, 8, 0, 0, 0, time.UTC)

func series(desc, amount string, gapsDays ...int) []model.Transaction {
	at := start
	out := []model.Transaction{{
		ID: desc + "-0", Timestamp: at, Amount: decimal.RequireFromString(amount), Description: desc,
	}}
	for i, g := range gapsDays {
		at = at.AddDate(0, 0, g)
		out = append(out, model.Transaction{
			ID:          fmt.Sprintf("%s-%d", desc, i+1),
			Timestamp:   at,
			Amount:      decimal.RequireFromString(amount),
			Description: desc,
		})
	}
	return out
}

func TestDetect_NetflixMonthly(t *testing.T) {
	txns := series("Netflix", "-9.99", 30, 30, 30, 30)

	got := Detect(txns, Options{})

	require.Len(t, got, 1)
	p := got[0]
	assert.Equal(t, "Netflix", p.MerchantKey)
	assert.Equal(t, 5, p.Occurrences())
	assert.Equal(t, "49.95", p.Significance.String())
	assert.True(t, p.AverageAmount.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, 30*24*time.Hour, p.AverageInterval)
	assert.Equal(t, Monthly, p.Frequency)
	assert.Equal(t, "9.99", p.MonthlyImpact.StringFixed(2))
	assert.Equal(t, Streaming, p.Category)
	assert.Contains(t, p.Recommendation, "Netflix")
}

func TestDetect_TwoOccurrencesAmountsDiffer(t *testing.T) {
	txns := []model.Transaction{
		{ID: "1", Timestamp: start, Amount: decimal.NewFromInt(-10), Description: "Gym"},
		{ID: "2", Timestamp: start.AddDate(0, 1, 0), Amount: decimal.NewFromInt(-13), Description: "Gym"},
	}
	assert.Empty(t, Detect(txns, Options{}))
}

func TestDetect_TwoOccurrencesWithinTolerance(t *testing.T) {
	txns := []model.Transaction{
		{ID: "1", Timestamp: start, Amount: decimal.NewFromInt(-10), Description: "Gym"},
		{ID: "2", Timestamp: start.AddDate(0, 0, 90), Amount: decimal.RequireFromString("-10.50"), Description: "Gym"},
	}
	got := Detect(txns, Options{})
	require.Len(t, got, 1)
	assert.Equal(t, Quarterly, got[0].Frequency)
}

func TestDetect_IrregularIntervals(t *testing.T) {
	// Average gap 30 days, but 25 and 35 are each 5 days away from it.
	txns := series("Spotify", "-11.99", 25, 35, 30)
	assert.Empty(t, Detect(txns, Options{}))
}

func TestDetect_IntervalsWithinTwoDays(t *testing.T) {
	txns := series("Spotify", "-11.99", 29, 31, 30)
	assert.Len(t, Detect(txns, Options{}), 1)
}

func TestDetect_IgnoresCreditsAndSingletons(t *testing.T) {
	txns := series("SALARY", "2500", 30, 30)
	txns = append(txns, series("One off", "-40")...)
	assert.Empty(t, Detect(txns, Options{}))
}

func TestDetect_GroupingIsCaseSensitive(t *testing.T) {
	txns := []model.Transaction{
		{ID: "1", Timestamp: start, Amount: decimal.NewFromInt(-5), Description: "netflix"},
		{ID: "2", Timestamp: start.AddDate(0, 0, 30), Amount: decimal.NewFromInt(-5), Description: "NETFLIX"},
	}
	assert.Empty(t, Detect(txns, Options{}))
}

func TestDetect_RankedBySignificance(t *testing.T) {
	txns := series("Netflix", "-9.99", 30, 30)
	txns = append(txns, series("Rent payment", "-900", 30, 30)...)
	txns = append(txns, series("Spotify", "-9.99", 30, 30)...)

	got := Detect(txns, Options{})

	require.Len(t, got, 3)
	assert.Equal(t, "Rent payment", got[0].MerchantKey)
	assert.Equal(t, "Netflix", got[1].MerchantKey)
	assert.Equal(t, "Spotify", got[2].MerchantKey)
}

func TestInsights_TopOnlyByDefault(t *testing.T) {
	txns := series("Netflix", "-9.99", 30, 30)
	txns = append(txns, series("Rent payment", "-900", 30, 30)...)
	patterns := Detect(txns, Options{})

	got := Insights(patterns, Options{})
	require.Len(t, got, 1)
	assert.Equal(t, "Recurring payment to Rent payment", got[0].Title)

	assert.Len(t, Insights(patterns, Options{MaxResults: -1}), 2)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		key    string
		amount string
		want   string
	}{
		{"NETFLIX.COM", "9.99", Streaming},
		{"Adobe Creative Cloud", "19.97", Software},
		{"Octopus Energy", "85", Utilities},
		{"VODAFONE LTD", "30", Telecom},
		{"Aviva Home", "22", Insurance},
		{"PureGym Ltd", "24.99", Fitness},
		{"Council Tax", "150", Housing},
		{"Klarna", "40", Loans},
		{"ACME PROPERTY", "1200", MajorExpense},
		{"APP STORE TIP", "0.79", MicroTransaction},
		{"MYSTERY", "12", Uncategorized},
		{"MYSTERY", "500", Uncategorized},
		{"MYSTERY", "1", Uncategorized},
	}
	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.key, decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestRecommend_StrongerAboveHundred(t *testing.T) {
	p := model.RecurringPattern{MerchantKey: "Octopus Energy", Category: Utilities, MonthlyImpact: decimal.NewFromInt(60)}
	weak := Recommend(p)
	assert.Equal(t, "Review your Octopus Energy tariff once a year.", weak)

	p.MonthlyImpact = decimal.RequireFromString("100.01")
	strong := Recommend(p)
	assert.Equal(t, "Octopus Energy costs 100.01 a month. Compare tariffs and consider switching supplier.", strong)

	p.MonthlyImpact = decimal.NewFromInt(100)
	assert.Equal(t, weak, Recommend(p))
}

func TestRecommend_UnknownCategory(t *testing.T) {
	p := model.RecurringPattern{MerchantKey: "X", Category: "NOPE", MonthlyImpact: decimal.NewFromInt(5)}
	assert.Equal(t, "Review whether you still need the regular payment to X.", Recommend(p))
}

func TestToInsight(t *testing.T) {
	p := Detect(series("Vodafone", "-30", 30, 30), Options{})[0]

	in := ToInsight(p)

	assert.Equal(t, model.InsightSavingOpportunity, in.Type)
	assert.True(t, in.Actionable)
	require.NotNil(t, in.Action)
	assert.Equal(t, model.ActionConsolidatePayments, in.Action.Type)
	assert.Equal(t, p.Recommendation, in.Action.Description)
	assert.Equal(t, 30.0, in.Impact)
	assert.InDelta(t, 0.8, in.Confidence, 1e-9)
	assert.Equal(t, Telecom, in.Category)
}

func TestConfidence(t *testing.T) {
	assert.InDelta(t, 0.7, Confidence(2), 1e-9)
	assert.Equal(t, 0.95, Confidence(5))
	assert.Equal(t, 0.95, Confidence(50))
}

func TestFrequencyAndMonthlyImpact(t *testing.T) {
	assert.Equal(t, Weekly, Frequency(7*day))
	assert.Equal(t, Fortnightly, Frequency(14*day))
	assert.Equal(t, Yearly, Frequency(365*day))
	assert.Equal(t, Irregular, Frequency(50*day))
	assert.Equal(t, Irregular, Frequency(0))

	assert.Equal(t, "40.00", MonthlyImpact(decimal.NewFromInt(10), 7*day+12*time.Hour).StringFixed(2))
	assert.Equal(t, "10.00", MonthlyImpact(decimal.NewFromInt(10), 0).StringFixed(2))
}
