// Package export ships analysis results to external stores.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/spendsight/internal/model"
)

// Document kinds.
const (
	KindInsight = "insight"
	KindSummary = "summary"
)

// Sink receives the documents produced by one run.
type Sink interface {
	Write(ctx context.Context, docs []Document) error
}

// Summary is the period-level half of a SpendingAnalysis.
type Summary struct {
	PeriodStart        time.Time                 `json:"period_start"`
	PeriodEnd          time.Time                 `json:"period_end"`
	Total              decimal.Decimal           `json:"total"`
	Income             decimal.Decimal           `json:"income"`
	PercentageChange   float64                   `json:"percentage_change"`
	PreviousMonthTotal decimal.Decimal           `json:"previous_month_total"`
	Categories         []model.CategoryAggregate `json:"categories"`
	Empty              bool                      `json:"empty"`
}

// Document is one exported record. Exactly one of Insight and Summary is set.
type Document struct {
	ID          string         `json:"id"`
	RunID       string         `json:"run_id"`
	Kind        string         `json:"kind"`
	Rank        int            `json:"rank,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
	Currency    string         `json:"currency,omitempty"`
	Insight     *model.Insight `json:"insight,omitempty"`
	Summary     *Summary       `json:"summary,omitempty"`
}

// Documents flattens an analysis into one summary document followed by one
// document per insight. IDs derive from the run ID, so re-exporting the
// same run overwrites rather than duplicates.
func Documents(runID, currency string, at time.Time, a model.SpendingAnalysis) []Document {
	docs := make([]Document, 0, len(a.Insights)+1)
	docs = append(docs, Document{
		ID:          docID(runID, KindSummary, 0),
		RunID:       runID,
		Kind:        KindSummary,
		GeneratedAt: at,
		Currency:    currency,
		Summary: &Summary{
			PeriodStart:        a.PeriodStart,
			PeriodEnd:          a.PeriodEnd,
			Total:              a.Total,
			Income:             a.Income,
			PercentageChange:   a.MonthlyComparison.PercentageChange,
			PreviousMonthTotal: a.MonthlyComparison.PreviousMonthTotal,
			Categories:         a.Categories,
			Empty:              a.Empty,
		},
	})
	for i := range a.Insights {
		ins := a.Insights[i]
		docs = append(docs, Document{
			ID:          docID(runID, KindInsight, i+1),
			RunID:       runID,
			Kind:        KindInsight,
			Rank:        i + 1,
			GeneratedAt: at,
			Currency:    currency,
			Insight:     &ins,
		})
	}
	return docs
}

func docID(runID, kind string, n int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("spendsight:%s/%s/%d", runID, kind, n))).String()
}
