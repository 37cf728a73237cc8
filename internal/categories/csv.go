package categories

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/spendsight/internal/model"
)

const (
	numFields   = 3
	colCategory = 0
	colColor    = 1
	colKeywords = 2

	keywordSep = ";"
)

// ReadRules reads a rules CSV (header + one rule per row, in priority order).
func ReadRules(r io.Reader) ([]model.CategoryRule, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading rules CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var rules []model.CategoryRule
	for i, rec := range records[1:] {
		rule, err := UnmarshalRule(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// WriteRules writes a rules CSV including the header.
func WriteRules(w io.Writer, rules []model.CategoryRule) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"category", "color", "keywords"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rule := range rules {
		if err := cw.Write(MarshalRule(rule)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalRule converts a rule to a CSV row.
func MarshalRule(rule model.CategoryRule) []string {
	row := make([]string, numFields)
	row[colCategory] = rule.Category
	row[colColor] = rule.Color
	row[colKeywords] = strings.Join(rule.Keywords, keywordSep)
	return row
}

// UnmarshalRule converts a CSV row to a rule.
func UnmarshalRule(record []string) (model.CategoryRule, error) {
	if len(record) != numFields {
		return model.CategoryRule{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	name := strings.TrimSpace(record[colCategory])
	if name == "" {
		return model.CategoryRule{}, fmt.Errorf("empty category name")
	}

	var keywords []string
	for _, kw := range strings.Split(record[colKeywords], keywordSep) {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	return model.CategoryRule{
		Category: name,
		Color:    strings.TrimSpace(record[colColor]),
		Keywords: keywords,
	}, nil
}
