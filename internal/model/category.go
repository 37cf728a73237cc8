package model

// CategoryOther is the label used when no rule and no fallback apply.
const CategoryOther = "Other"

// CategoryRule maps description keywords to a display category.
// Rules are evaluated in slice order; the first match wins.
type CategoryRule struct {
	Category string
	Color    string   // semantic display tag, e.g. "#4CAF50"
	Keywords []string // lower-case substrings
}
