package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/spendsight/internal/model"
)

func TestRank_OrdersByImpactThenConfidence(t *testing.T) {
	in := []model.Insight{
		{Type: model.InsightAnomaly, Title: "small", Impact: 5, Confidence: 0.9, Source: model.SourceStatistical},
		{Type: model.InsightForecast, Title: "big", Impact: 50, Confidence: 0.1, Source: model.SourceNarrative},
		{Type: model.InsightSpendingPattern, Title: "tie-low", Impact: 20, Confidence: 0.4, Source: model.SourceStatistical},
		{Type: model.InsightSpendingPattern, Title: "tie-high", Impact: 20, Confidence: 0.8, Source: model.SourceStatistical},
	}

	got := Rank(in)

	require.Len(t, got, 4)
	assert.Equal(t, []string{"big", "tie-high", "tie-low", "small"}, titles(got))
}

func TestRank_SourceTypeAndTitleTieBreaks(t *testing.T) {
	in := []model.Insight{
		{Type: model.InsightForecast, Title: "fallback", Source: model.SourceFallback},
		{Type: model.InsightForecast, Title: "narr", Source: model.SourceNarrative},
		{Type: model.InsightAnomaly, Title: "stat-anomaly", Source: model.SourceStatistical},
		{Type: model.InsightSavingOpportunity, Title: "stat-b", Source: model.SourceStatistical},
		{Type: model.InsightSavingOpportunity, Title: "stat-a", Source: model.SourceStatistical},
	}
	assert.Equal(t, []string{"stat-a", "stat-b", "stat-anomaly", "narr", "fallback"}, titles(Rank(in)))
}

func TestRank_Deduplicates(t *testing.T) {
	in := []model.Insight{
		{Type: model.InsightSavingOpportunity, Title: "Cancel Netflix", Category: "STREAMING", Impact: 5},
		{Type: model.InsightSavingOpportunity, Title: "cancel netflix ", Category: "STREAMING", Impact: 9},
		{Type: model.InsightSavingOpportunity, Title: "Cancel Netflix", Category: "Entertainment", Impact: 1},
	}
	got := Rank(in)
	require.Len(t, got, 2)
	assert.Equal(t, 9.0, got[0].Impact)
}

func TestRank_NormalizesAndIsDeterministic(t *testing.T) {
	in := []model.Insight{
		{Type: "bogus", Title: "x", Impact: -3, Confidence: 4},
	}
	got := Rank(in)
	require.Len(t, got, 1)
	assert.Equal(t, model.InsightSpendingPattern, got[0].Type)
	assert.Equal(t, 3.0, got[0].Impact)
	assert.Equal(t, 1.0, got[0].Confidence)
	assert.Equal(t, -3.0, in[0].Impact, "input untouched")

	assert.NotNil(t, Rank(nil))
}

func TestTop(t *testing.T) {
	in := []model.Insight{
		{Title: "a", Impact: 1}, {Title: "b", Impact: 2}, {Title: "c", Impact: 3}, {Title: "d", Impact: 4},
	}
	assert.Equal(t, []string{"d", "c", "b"}, titles(Top(in, 3)))
	assert.Len(t, Top(in, 0), 4)
	assert.Len(t, Top(in[:1], 3), 1)
}

func TestTemplates(t *testing.T) {
	all := Templates()
	require.Len(t, all, 10)

	cats := map[string]int{}
	ids := map[string]bool{}
	for _, tmpl := range all {
		cats[tmpl.Category]++
		assert.False(t, ids[tmpl.ID], "duplicate id %s", tmpl.ID)
		ids[tmpl.ID] = true
		assert.NotEmpty(t, tmpl.Question)
		assert.NotEmpty(t, tmpl.Prompt)
	}
	for _, c := range []string{TemplateSpending, TemplateSavings, TemplateBudgeting, TemplatePatterns, TemplateGoals} {
		assert.Equal(t, 2, cats[c], c)
	}

	all[0].ID = "mutated"
	_, ok := LookupTemplate("mutated")
	assert.False(t, ok)

	tmpl, ok := LookupTemplate("subscription-audit")
	require.True(t, ok)
	assert.Equal(t, TemplateSavings, tmpl.Category)
}

func titles(in []model.Insight) []string {
	out := make([]string, len(in))
	for i, x := range in {
		out[i] = x.Title
	}
	return out
}
