package model

import "math"

// InsightType tags the kind of finding an Insight carries.
type InsightType string

const (
	InsightSavingOpportunity InsightType = "saving_opportunity"
	InsightSpendingPattern   InsightType = "spending_pattern"
	InsightAnomaly           InsightType = "anomaly"
	InsightForecast          InsightType = "forecast"
)

// InsightTypes lists the closed set of insight types in display order.
var InsightTypes = []InsightType{
	InsightSavingOpportunity,
	InsightSpendingPattern,
	InsightAnomaly,
	InsightForecast,
}

// Valid reports whether t is one of the known insight types.
func (t InsightType) Valid() bool {
	for _, known := range InsightTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ActionType is a typed recommendation attached to an actionable insight.
type ActionType string

const (
	ActionReduceSpending      ActionType = "reduce_spending"
	ActionSetBudget           ActionType = "set_budget"
	ActionReviewSubscription  ActionType = "review_subscription"
	ActionConsolidatePayments ActionType = "consolidate_payments"
)

// ActionTypes lists the closed set of action types.
var ActionTypes = []ActionType{
	ActionReduceSpending,
	ActionSetBudget,
	ActionReviewSubscription,
	ActionConsolidatePayments,
}

// Valid reports whether a is one of the known action types.
func (a ActionType) Valid() bool {
	for _, known := range ActionTypes {
		if a == known {
			return true
		}
	}
	return false
}

// Action is the recommendation for an actionable insight.
type Action struct {
	Type        ActionType `json:"type"`
	Description string     `json:"description"`
}

// Source records which path produced an insight.
type Source string

const (
	SourceStatistical Source = "statistical"
	SourceNarrative   Source = "narrative"
	SourceFallback    Source = "fallback"
)

// Insight is a single user-facing finding.
type Insight struct {
	Type        InsightType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Impact      float64     `json:"impact"`     // monetary magnitude, >= 0
	Confidence  float64     `json:"confidence"` // 0..1
	Category    string      `json:"category,omitempty"`
	Actionable  bool        `json:"actionable"`
	Action      *Action     `json:"action,omitempty"`
	Source      Source      `json:"source"`
}

// Normalize enforces the Insight invariants: impact >= 0, confidence in [0,1],
// and a known type. NaN values collapse to zero.
func (i Insight) Normalize() Insight {
	if math.IsNaN(i.Impact) || math.IsInf(i.Impact, 0) {
		i.Impact = 0
	}
	i.Impact = math.Abs(i.Impact)
	i.Confidence = ClampConfidence(i.Confidence)
	if !i.Type.Valid() {
		i.Type = InsightSpendingPattern
	}
	if i.Action != nil && !i.Action.Type.Valid() {
		a := *i.Action
		a.Type = ActionReduceSpending
		i.Action = &a
	}
	return i
}

// ClampConfidence maps c into [0,1]. NaN becomes 0.
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
