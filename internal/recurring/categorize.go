package recurring

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/spendsight/internal/model"
)

// Coarse recurring-payment categories. These are deliberately separate from
// the display categories in package categories.
const (
	Streaming        = "STREAMING"
	Software         = "SOFTWARE"
	Utilities        = "UTILITIES"
	Telecom          = "TELECOM"
	Insurance        = "INSURANCE"
	Fitness          = "FITNESS"
	Housing          = "HOUSING"
	Loans            = "LOANS"
	MajorExpense     = "MAJOR_EXPENSE"
	MicroTransaction = "MICRO_TRANSACTION"
	Uncategorized    = "UNCATEGORIZED"
)

var (
	majorExpenseAbove = decimal.NewFromInt(500)
	microBelow        = decimal.NewFromInt(1)
	strongImpactAbove = decimal.NewFromInt(100)
)

var keywordRules = []struct {
	category string
	keywords []string
}{
	{Streaming, []string{"netflix", "spotify", "disney", "hulu", "prime video", "youtube", "apple music", "now tv", "paramount"}},
	{Software, []string{"adobe", "microsoft", "icloud", "google storage", "dropbox", "github", "notion", "openai", "1password"}},
	{Utilities, []string{"british gas", "octopus energy", "edf", "energy", "electric", "water", "gas supply"}},
	{Telecom, []string{"vodafone", "o2 uk", "ee limited", "virgin media", "bt group", "sky digital", "broadband", "mobile"}},
	{Insurance, []string{"insurance", "aviva", "direct line", "admiral"}},
	{Fitness, []string{"puregym", "gym", "fitness", "peloton", "strava"}},
	{Housing, []string{"rent payment", "rental", "mortgage", "council tax", "landlord", "letting"}},
	{Loans, []string{"loan", "klarna", "repayment", "credit card"}},
}

// Categorize assigns a coarse category from the merchant key, falling back to
// the average amount: above 500 is MAJOR_EXPENSE, below 1 is
// MICRO_TRANSACTION, otherwise UNCATEGORIZED.
func Categorize(merchantKey string, average decimal.Decimal) string {
	lower := strings.ToLower(merchantKey)
	for _, r := range keywordRules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category
			}
		}
	}
	switch {
	case average.GreaterThan(majorExpenseAbove):
		return MajorExpense
	case average.LessThan(microBelow):
		return MicroTransaction
	default:
		return Uncategorized
	}
}

type advice struct {
	normal string
	strong string
}

// %[1]s is the merchant, %[2]s the monthly impact.
var adviceByCategory = map[string]advice{
	Streaming: {
		normal: "Check you still watch %[1]s regularly.",
		strong: "Streaming with %[1]s costs %[2]s a month. Cancel services you rarely use or rotate them month to month.",
	},
	Software: {
		normal: "Confirm you still need the %[1]s subscription.",
		strong: "%[1]s costs %[2]s a month. Look for an annual plan or a cheaper tier.",
	},
	Utilities: {
		normal: "Review your %[1]s tariff once a year.",
		strong: "%[1]s costs %[2]s a month. Compare tariffs and consider switching supplier.",
	},
	Telecom: {
		normal: "Check whether your %[1]s contract is out of its minimum term.",
		strong: "%[1]s costs %[2]s a month. Haggle at renewal or move to a SIM-only or cheaper plan.",
	},
	Insurance: {
		normal: "Shop around for %[1]s before it auto-renews.",
		strong: "%[1]s costs %[2]s a month. Get comparison quotes before renewal.",
	},
	Fitness: {
		normal: "Make sure you use %[1]s enough to justify it.",
		strong: "%[1]s costs %[2]s a month. Consider an off-peak or pay-as-you-go option.",
	},
	Housing: {
		normal: "%[1]s is a fixed commitment. Keep it in your budget.",
		strong: "%[1]s is %[2]s a month. Check whether a better rate or rebate is available.",
	},
	Loans: {
		normal: "Track the remaining balance on %[1]s.",
		strong: "%[1]s repayments are %[2]s a month. Look into overpaying or refinancing at a lower rate.",
	},
	MajorExpense: {
		normal: "%[1]s is a large regular payment. Confirm it is expected.",
		strong: "%[1]s is a large regular payment of %[2]s a month. Confirm it is still needed.",
	},
	MicroTransaction: {
		normal: "Small repeated charges from %[1]s add up over time.",
		strong: "Small repeated charges from %[1]s add up to %[2]s a month.",
	},
}

var defaultAdvice = advice{
	normal: "Review whether you still need the regular payment to %[1]s.",
	strong: "The regular payment to %[1]s costs %[2]s a month. Review whether you still need it.",
}

// Recommend produces advice for a pattern from its coarse category. Monthly
// impact above 100 switches to stronger wording.
func Recommend(p model.RecurringPattern) string {
	a, ok := adviceByCategory[p.Category]
	if !ok {
		a = defaultAdvice
	}
	tmpl := a.normal
	if p.MonthlyImpact.GreaterThan(strongImpactAbove) {
		tmpl = a.strong
	}
	return fmt.Sprintf(tmpl, p.MerchantKey, p.MonthlyImpact.StringFixed(2))
}
