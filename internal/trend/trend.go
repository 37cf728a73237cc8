// Package trend compares a period against the one before it.
package trend

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/spendsight/internal/model"
)

// DefaultThreshold is the minimum absolute percentage change, exclusive,
// for a category change to be reported.
const DefaultThreshold = 15.0

const (
	changeConfidence = 0.8
	// Increases above this percentage get a reduce_spending action instead of
	// a set_budget one.
	steepIncreasePct = 50.0
)

var hundred = decimal.NewFromInt(100)

// Direction of a category change.
type Direction string

const (
	Increase Direction = "increase"
	Decrease Direction = "decrease"
)

// Change is a per-category movement between two periods.
type Change struct {
	Category   string
	Direction  Direction
	Amount     decimal.Decimal // |current - previous|
	Percentage float64         // rounded |Δ%|
	Current    decimal.Decimal
	Previous   decimal.Decimal
}

// Compare returns the percentage change from previous to current. A zero
// previous total yields exactly 0.
func Compare(current, previous decimal.Decimal) model.MonthlyComparison {
	return model.MonthlyComparison{
		PercentageChange:   PercentChange(current, previous),
		PreviousMonthTotal: previous,
	}
}

// PercentChange is ((current-previous)/|previous|)*100, or 0 when previous is 0.
func PercentChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return current.Sub(previous).Div(previous.Abs()).Mul(hundred).InexactFloat64()
}

// CategoryChanges reports categories present in both periods whose spend
// moved by more than thresholdPct percent. Results are ordered by absolute
// delta descending, then category name.
func CategoryChanges(current, previous []model.CategoryAggregate, thresholdPct float64) []Change {
	prev := make(map[string]decimal.Decimal, len(previous))
	for _, c := range previous {
		prev[c.Name] = c.Amount
	}

	var changes []Change
	for _, c := range current {
		p, ok := prev[c.Name]
		if !ok || p.IsZero() {
			continue
		}
		pct := PercentChange(c.Amount, p)
		if math.Abs(pct) <= thresholdPct {
			continue
		}
		dir := Increase
		if pct < 0 {
			dir = Decrease
		}
		changes = append(changes, Change{
			Category:   c.Name,
			Direction:  dir,
			Amount:     c.Amount.Sub(p).Abs(),
			Percentage: math.Round(math.Abs(pct)),
			Current:    c.Amount,
			Previous:   p,
		})
	}

	sort.SliceStable(changes, func(i, j int) bool {
		if c := changes[i].Amount.Cmp(changes[j].Amount); c != 0 {
			return c > 0
		}
		return changes[i].Category < changes[j].Category
	})
	return changes
}

// ChangeInsights converts changes into spending_pattern insights.
func ChangeInsights(changes []Change) []model.Insight {
	out := make([]model.Insight, 0, len(changes))
	for _, c := range changes {
		out = append(out, c.Insight())
	}
	return out
}

// Insight renders a single change.
func (c Change) Insight() model.Insight {
	in := model.Insight{
		Type:       model.InsightSpendingPattern,
		Category:   c.Category,
		Impact:     c.Amount.InexactFloat64(),
		Confidence: changeConfidence,
		Source:     model.SourceStatistical,
	}

	amount := c.Amount.StringFixed(2)
	switch c.Direction {
	case Increase:
		in.Title = fmt.Sprintf("%s spending up %.0f%%", c.Category, c.Percentage)
		in.Description = fmt.Sprintf("You spent %s more on %s than last month (%s vs %s).",
			amount, c.Category, c.Current.StringFixed(2), c.Previous.StringFixed(2))
		in.Actionable = true
		action := model.Action{
			Type:        model.ActionSetBudget,
			Description: fmt.Sprintf("Set a monthly budget for %s around %s.", c.Category, c.Previous.StringFixed(2)),
		}
		if c.Percentage > steepIncreasePct {
			action = model.Action{
				Type:        model.ActionReduceSpending,
				Description: fmt.Sprintf("Cut back on %s to bring it closer to last month.", c.Category),
			}
		}
		in.Action = &action
	default:
		in.Title = fmt.Sprintf("%s spending down %.0f%%", c.Category, c.Percentage)
		in.Description = fmt.Sprintf("You spent %s less on %s than last month.", amount, c.Category)
	}
	return in.Normalize()
}
