// Package insight merges the statistical detectors and the optional narrative
// collaborator into a ranked list of insights.
package insight

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/spendsight/internal/aggregate"
	"github.com/cleared-dev/spendsight/internal/anomaly"
	"github.com/cleared-dev/spendsight/internal/categories"
	"github.com/cleared-dev/spendsight/internal/config"
	"github.com/cleared-dev/spendsight/internal/model"
	"github.com/cleared-dev/spendsight/internal/narrative"
	"github.com/cleared-dev/spendsight/internal/recurring"
	"github.com/cleared-dev/spendsight/internal/trend"
)

// QuestionSampleSize caps the transactions sent with a templated question.
const QuestionSampleSize = 50

// Fallback titles.
const (
	TitleUnavailable      = "Analysis unavailable"
	TitleError            = "Analysis error"
	TitleTemplateNotFound = "Template not found"
)

// Status describes how the narrative step ended.
type Status string

const (
	StatusOK          Status = "ok"
	StatusSkipped     Status = "skipped" // no transactions
	StatusUnavailable Status = "unavailable"
	StatusFailed      Status = "failed"
	StatusParseError  Status = "parse_error"
)

// NarrativeResult is the slow-path output. It is never an error: failures
// are carried as a fallback insight and a Status.
type NarrativeResult struct {
	Analysis string          `json:"analysis,omitempty"`
	Insights []model.Insight `json:"insights"`
	Status   Status          `json:"status"`
	Err      string          `json:"error,omitempty"`
}

// Result holds the fast and slow outputs separately plus their ranked merge.
type Result struct {
	Statistical []model.Insight `json:"statistical"`
	Narrative   NarrativeResult `json:"narrative"`
	Insights    []model.Insight `json:"insights"`
}

// Report is a full analysis of one period.
type Report struct {
	Analysis  model.SpendingAnalysis   `json:"analysis"`
	Narrative *NarrativeResult         `json:"narrative,omitempty"`
	Recurring []model.RecurringPattern `json:"recurring"`
}

// Synthesizer runs the detectors. It holds no mutable state and is safe for
// concurrent use.
type Synthesizer struct {
	gen        narrative.Generator
	log        zerolog.Logger
	now        func() time.Time
	classifier aggregate.Classifier
	analysis   config.Analysis
	narr       config.Narrative
	currency   string
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithGenerator sets the narrative collaborator. Without one every narrative
// request degrades to the "Analysis unavailable" fallback.
func WithGenerator(g narrative.Generator) Option {
	return func(s *Synthesizer) { s.gen = g }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Synthesizer) { s.log = l }
}

// WithClock sets the clock that picks the current month.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

func WithClassifier(c aggregate.Classifier) Option {
	return func(s *Synthesizer) { s.classifier = c }
}

func WithConfig(a config.Analysis) Option {
	return func(s *Synthesizer) { s.analysis = a }
}

func WithNarrativeConfig(n config.Narrative) Option {
	return func(s *Synthesizer) { s.narr = n }
}

func WithCurrency(code string) Option {
	return func(s *Synthesizer) { s.currency = code }
}

// New creates a Synthesizer with default configuration.
func New(opts ...Option) *Synthesizer {
	def := config.Default()
	s := &Synthesizer{
		log:        zerolog.Nop(),
		now:        time.Now,
		classifier: categories.Default(),
		analysis:   def.Analysis,
		narr:       def.Narrative,
		currency:   def.Currency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synthesizer) period() (start, end, prevStart, prevEnd time.Time) {
	start, end = aggregate.MonthBounds(s.now())
	prevStart, prevEnd = aggregate.PreviousMonth(start)
	return
}

// Statistical runs the trend, anomaly and recurring detectors and ranks
// their insights. It does no I/O.
func (s *Synthesizer) Statistical(txns []model.Transaction) []model.Insight {
	if len(txns) == 0 {
		return []model.Insight{}
	}
	start, end, prevStart, prevEnd := s.period()
	cur := aggregate.Aggregate(txns, start, end, s.classifier)
	prev := aggregate.Aggregate(txns, prevStart, prevEnd, s.classifier)

	var all []model.Insight
	changes := trend.CategoryChanges(cur.Categories, prev.Categories, s.trendThreshold())
	all = append(all, trend.ChangeInsights(changes)...)
	all = append(all, anomaly.Detect(txns, s.classifier, s.anomalyOptions())...)
	all = append(all, recurring.Insights(s.Recurring(txns), s.recurringOptions())...)

	ranked := Rank(all)
	s.log.Debug().
		Int("transactions", len(txns)).
		Int("changes", len(changes)).
		Int("results", len(ranked)).
		Msg("statistical.done")
	return ranked
}

// Recurring exposes the full ranked list of recurring patterns.
func (s *Synthesizer) Recurring(txns []model.Transaction) []model.RecurringPattern {
	return recurring.Detect(txns, s.recurringOptions())
}

// Narrative asks the generator for an analysis of the most recent
// transactions. It never fails; see NarrativeResult.
func (s *Synthesizer) Narrative(ctx context.Context, txns []model.Transaction) NarrativeResult {
	if len(txns) == 0 {
		return NarrativeResult{Insights: []model.Insight{}, Status: StatusSkipped}
	}
	if s.gen == nil {
		return unavailable(nil)
	}

	prompt, err := narrative.AnalysisPrompt(narrative.NewPayload(s.currency, mostRecent(txns, s.maxTransactions())))
	if err != nil {
		return s.failed(err)
	}
	return s.generate(ctx, prompt, "")
}

// Synthesize computes the statistical insights first, then the narrative.
// The statistical slice is complete even if ctx is cancelled.
func (s *Synthesizer) Synthesize(ctx context.Context, txns []model.Transaction) Result {
	res := Result{Statistical: s.Statistical(txns)}
	res.Narrative = s.Narrative(ctx, txns)

	merged := make([]model.Insight, 0, len(res.Statistical)+len(res.Narrative.Insights))
	merged = append(merged, res.Statistical...)
	merged = append(merged, res.Narrative.Insights...)
	res.Insights = Rank(merged)
	return res
}

// Analyze builds the SpendingAnalysis for the clock's month, including the
// narrative step.
func (s *Synthesizer) Analyze(ctx context.Context, txns []model.Transaction) model.SpendingAnalysis {
	return s.Report(ctx, txns, true).Analysis
}

// AnalyzeStatistical is Analyze without the narrative step.
func (s *Synthesizer) AnalyzeStatistical(txns []model.Transaction) model.SpendingAnalysis {
	return s.Report(context.Background(), txns, false).Analysis
}

// Report is Analyze plus the narrative text and the recurring patterns.
func (s *Synthesizer) Report(ctx context.Context, txns []model.Transaction, withNarrative bool) Report {
	start, end, prevStart, prevEnd := s.period()
	rep := Report{
		Analysis: model.SpendingAnalysis{
			PeriodStart: start,
			PeriodEnd:   end,
			Categories:  []model.CategoryAggregate{},
			Insights:    []model.Insight{},
		},
		Recurring: []model.RecurringPattern{},
	}
	if len(txns) == 0 {
		rep.Analysis.Empty = true
		rep.Analysis.MonthlyComparison = trend.Compare(decimal.Zero, decimal.Zero)
		return rep
	}

	cur := aggregate.Aggregate(txns, start, end, s.classifier)
	prev := aggregate.Aggregate(txns, prevStart, prevEnd, s.classifier)
	rep.Analysis.Total = cur.Total
	rep.Analysis.Income = cur.Income
	rep.Analysis.Categories = cur.Categories
	rep.Analysis.MonthlyComparison = trend.Compare(cur.Total, prev.Total)
	rep.Recurring = s.Recurring(txns)

	insights := s.Statistical(txns)
	if withNarrative {
		n := s.Narrative(ctx, txns)
		rep.Narrative = &n
		insights = append(insights, n.Insights...)
	}
	rep.Analysis.Insights = Top(insights, s.analysis.TopInsights)
	return rep
}

// Ask answers one templated question from a sample of the first
// QuestionSampleSize transactions.
func (s *Synthesizer) Ask(ctx context.Context, templateID string, txns []model.Transaction) []model.Insight {
	if len(txns) == 0 {
		return []model.Insight{}
	}
	tmpl, ok := LookupTemplate(templateID)
	if !ok {
		return []model.Insight{Fallback(TitleTemplateNotFound,
			"No question template matches \""+templateID+"\".")}
	}
	if s.gen == nil {
		return unavailable(nil).Insights
	}

	sample := txns
	if len(sample) > QuestionSampleSize {
		sample = sample[:QuestionSampleSize]
	}
	prompt, err := narrative.QuestionPrompt(narrative.NewPayload(s.currency, sample), tmpl.Question, tmpl.Prompt)
	if err != nil {
		return s.failed(err).Insights
	}
	res := s.generate(ctx, prompt, tmpl.ID)
	if res.Status == StatusOK && len(res.Insights) == 0 && res.Analysis != "" {
		return []model.Insight{model.Insight{
			Type:        model.InsightSpendingPattern,
			Title:       tmpl.Question,
			Description: res.Analysis,
			Confidence:  0.5,
			Source:      model.SourceNarrative,
		}.Normalize()}
	}
	return Rank(res.Insights)
}

func (s *Synthesizer) generate(ctx context.Context, prompt narrative.Prompt, templateID string) NarrativeResult {
	ctx, cancel := context.WithTimeout(ctx, s.narr.Timeout())
	defer cancel()

	log := s.log.With().Str("template", templateID).Logger()
	log.Debug().Msg("narrative.start")

	raw, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, narrative.ErrNotConfigured) {
			return unavailable(err)
		}
		log.Warn().Err(err).Msg("narrative.failed")
		return s.failed(err)
	}

	resp, err := narrative.Parse(raw)
	if err != nil {
		log.Warn().Err(err).Msg("narrative.failed")
		return NarrativeResult{
			Insights: []model.Insight{Fallback(TitleError,
				"The analysis service returned a response that could not be read. Statistical insights are still shown.")},
			Status: StatusParseError,
			Err:    err.Error(),
		}
	}

	log.Debug().Int("results", len(resp.Insights)).Msg("narrative.done")
	insights := resp.Insights
	if insights == nil {
		insights = []model.Insight{}
	}
	return NarrativeResult{Analysis: resp.Analysis, Insights: insights, Status: StatusOK}
}

func (s *Synthesizer) failed(err error) NarrativeResult {
	res := unavailable(err)
	res.Status = StatusFailed
	return res
}

func unavailable(err error) NarrativeResult {
	res := NarrativeResult{
		Insights: []model.Insight{Fallback(TitleUnavailable,
			"AI analysis is not available right now. Statistical insights are still shown.")},
		Status: StatusUnavailable,
	}
	if err != nil {
		res.Err = err.Error()
	}
	return res
}

// Fallback builds the informational forecast insight used when the narrative
// step degrades.
func Fallback(title, description string) model.Insight {
	return model.Insight{
		Type:        model.InsightForecast,
		Title:       title,
		Description: description,
		Source:      model.SourceFallback,
	}
}

// mostRecent returns up to n transactions, newest first, without modifying txns.
func mostRecent(txns []model.Transaction, n int) []model.Transaction {
	out := make([]model.Transaction, len(txns))
	copy(out, txns)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func (s *Synthesizer) maxTransactions() int {
	if s.narr.MaxTransactions <= 0 {
		return config.Default().Narrative.MaxTransactions
	}
	return s.narr.MaxTransactions
}

func (s *Synthesizer) trendThreshold() float64 {
	if s.analysis.TrendThresholdPct <= 0 {
		return trend.DefaultThreshold
	}
	return s.analysis.TrendThresholdPct
}

func (s *Synthesizer) anomalyOptions() anomaly.Options {
	return anomaly.Options{
		ZThreshold: s.analysis.AnomalyZThreshold,
		MinSamples: s.analysis.AnomalyMinSamples,
		MaxResults: s.analysis.AnomalyMaxResults,
		Logger:     &s.log,
	}
}

func (s *Synthesizer) recurringOptions() recurring.Options {
	return recurring.Options{
		MinOccurrences:    s.analysis.RecurringMinOccurrences,
		AmountTolerance:   s.analysis.RecurringAmountTolerance,
		IntervalTolerance: s.analysis.RecurringIntervalTolerance(),
		MaxResults:        s.analysis.RecurringMaxResults,
		Logger:            &s.log,
	}
}
