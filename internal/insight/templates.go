package insight

// Template scopes a narrative request to one question.
type Template struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Question string `json:"question"`
	Prompt   string `json:"prompt"`
}

// Template categories.
const (
	TemplateSpending  = "spending"
	TemplateSavings   = "savings"
	TemplateBudgeting = "budgeting"
	TemplatePatterns  = "patterns"
	TemplateGoals     = "goals"
)

var templates = []Template{
	{
		ID:       "top-spending-categories",
		Category: TemplateSpending,
		Question: "Where does most of my money go?",
		Prompt:   "Rank the spending categories by total and explain which ones dominate and why.",
	},
	{
		ID:       "unusual-purchases",
		Category: TemplateSpending,
		Question: "Have I made any unusual purchases recently?",
		Prompt:   "Identify transactions that are unusually large or out of character compared to the rest.",
	},
	{
		ID:       "quick-savings",
		Category: TemplateSavings,
		Question: "Where can I save money quickly?",
		Prompt:   "Find discretionary spending that could be cut next month with little effort. Quantify the savings.",
	},
	{
		ID:       "subscription-audit",
		Category: TemplateSavings,
		Question: "Which subscriptions should I review?",
		Prompt:   "List recurring payments and subscriptions, their monthly cost, and which look unused or duplicated.",
	},
	{
		ID:       "monthly-budget",
		Category: TemplateBudgeting,
		Question: "What monthly budget should I set per category?",
		Prompt:   "Propose a realistic monthly budget for each spending category based on recent spend.",
	},
	{
		ID:       "overspending",
		Category: TemplateBudgeting,
		Question: "Am I overspending anywhere?",
		Prompt:   "Compare spending between periods and point out categories that are growing fastest.",
	},
	{
		ID:       "weekday-habits",
		Category: TemplatePatterns,
		Question: "How do my spending habits change through the week?",
		Prompt:   "Describe how spending varies by day of week and time of month.",
	},
	{
		ID:       "impulse-spending",
		Category: TemplatePatterns,
		Question: "Do I have impulse spending patterns?",
		Prompt:   "Look for clusters of small frequent purchases and late-night or weekend spending bursts.",
	},
	{
		ID:       "emergency-fund",
		Category: TemplateGoals,
		Question: "How fast could I build an emergency fund?",
		Prompt:   "Estimate how much could be set aside each month and how long three months of expenses would take to save.",
	},
	{
		ID:       "savings-goal",
		Category: TemplateGoals,
		Question: "What would help me reach a savings goal sooner?",
		Prompt:   "Suggest the two or three changes with the largest monthly impact on savings.",
	},
}

// Templates returns a copy of the built-in question templates.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// LookupTemplate finds a template by ID.
func LookupTemplate(id string) (Template, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}
