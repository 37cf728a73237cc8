// Package categories maps transaction descriptions to display categories
// using an ordered keyword rule table.
package categories

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/spendsight/internal/model"
)

// Service classifies descriptions against an ordered rule table.
type Service struct {
	rules  []model.CategoryRule
	colors map[string]string
}

// NewService creates a Service from rules. Keywords are lower-cased; rule
// order is preserved as priority.
func NewService(rules []model.CategoryRule) *Service {
	normalized := make([]model.CategoryRule, len(rules))
	colors := make(map[string]string, len(rules))
	for i, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		normalized[i] = model.CategoryRule{Category: r.Category, Color: r.Color, Keywords: kws}
		if _, seen := colors[r.Category]; !seen && r.Color != "" {
			colors[r.Category] = r.Color
		}
	}
	return &Service{rules: normalized, colors: colors}
}

// Default returns a Service over DefaultRules.
func Default() *Service {
	return NewService(DefaultRules())
}

var defaultService = Default()

// Classify resolves a category with the built-in rules.
func Classify(description, fallback string) string {
	return defaultService.Classify(description, fallback)
}

// rulesPath is the rule table location relative to a project root.
const rulesPath = "categories/rules.csv"

// Load reads categories/rules.csv from a project root.
func Load(root string) (*Service, error) {
	f, err := os.Open(filepath.Join(root, rulesPath))
	if err != nil {
		return nil, fmt.Errorf("opening category rules: %w", err)
	}
	defer f.Close()

	rules, err := ReadRules(f)
	if err != nil {
		return nil, fmt.Errorf("reading category rules: %w", err)
	}
	return NewService(rules), nil
}

// LoadOrDefault is Load, falling back to the built-in rules when the project
// has no rules file.
func LoadOrDefault(root string) (*Service, error) {
	if _, err := os.Stat(filepath.Join(root, rulesPath)); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(root)
}

// Classify lower-cases the description and returns the category of the
// first rule with a keyword contained in it. With no match it returns
// fallback when non-empty, else "Other".
func (s *Service) Classify(description, fallback string) string {
	desc := strings.ToLower(description)
	if desc != "" {
		for _, r := range s.rules {
			for _, kw := range r.Keywords {
				if strings.Contains(desc, kw) {
					return r.Category
				}
			}
		}
	}
	if fb := strings.TrimSpace(fallback); fb != "" {
		return fb
	}
	return model.CategoryOther
}

// Color returns the display color for a category, or DefaultOtherColor.
func (s *Service) Color(category string) string {
	if c, ok := s.colors[category]; ok {
		return c
	}
	return DefaultOtherColor
}

// Rules returns the rule table in priority order.
func (s *Service) Rules() []model.CategoryRule {
	return s.rules
}

// Save writes the rule table to categories/rules.csv under root.
func (s *Service) Save(root string) error {
	dir := filepath.Join(root, filepath.Dir(rulesPath))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating categories dir: %w", err)
	}

	f, err := os.Create(filepath.Join(root, rulesPath))
	if err != nil {
		return fmt.Errorf("creating category rules file: %w", err)
	}
	defer f.Close()

	if err := WriteRules(f, s.rules); err != nil {
		return fmt.Errorf("writing category rules: %w", err)
	}
	return nil
}
