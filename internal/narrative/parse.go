package narrative

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cleared-dev/spendsight/internal/model"
)

// ParseError reports model output that could not be turned into a Response.
type ParseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse narrative response: %s: %v", e.Reason, e.Err)
	}
	return "parse narrative response: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse extracts the first balanced JSON object from raw and decodes it
// leniently. Missing or invalid fields get defaults; unknown enum values are
// coerced to spending_pattern and reduce_spending. Only a missing or
// syntactically broken object is an error.
func Parse(raw string) (Response, error) {
	obj, ok := ExtractObject(raw)
	if !ok {
		return Response{}, &ParseError{Reason: "no JSON object found", Raw: raw}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &top); err != nil {
		return Response{}, &ParseError{Reason: "invalid JSON", Raw: raw, Err: err}
	}

	resp := Response{Analysis: stringField(top["analysis"])}

	var items []json.RawMessage
	if err := json.Unmarshal(top["insights"], &items); err != nil {
		return resp, nil
	}
	for _, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			continue
		}
		in, ok := decodeInsight(fields)
		if !ok {
			continue
		}
		resp.Insights = append(resp.Insights, in)
	}
	return resp, nil
}

func decodeInsight(f map[string]json.RawMessage) (model.Insight, bool) {
	in := model.Insight{
		Type:        model.InsightType(strings.ToLower(stringField(f["type"]))),
		Title:       strings.TrimSpace(stringField(f["title"])),
		Description: strings.TrimSpace(stringField(f["description"])),
		Impact:      numberField(f["impact"]),
		Confidence:  numberField(f["confidence"]),
		Category:    strings.TrimSpace(stringField(f["category"])),
		Actionable:  boolField(f["actionable"]),
		Source:      model.SourceNarrative,
	}
	if in.Title == "" && in.Description == "" {
		return model.Insight{}, false
	}
	if in.Title == "" {
		in.Title = in.Description
	}

	if raw, ok := f["action"]; ok {
		var af map[string]json.RawMessage
		if json.Unmarshal(raw, &af) == nil && af != nil {
			in.Action = &model.Action{
				Type:        model.ActionType(strings.ToLower(stringField(af["type"]))),
				Description: strings.TrimSpace(stringField(af["description"])),
			}
			in.Actionable = true
		}
	}
	return in.Normalize(), true
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return ""
}

// numberField accepts numbers and numeric strings such as "12.50" or "£12".
func numberField(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return n
	}
	s := stringField(raw)
	s = strings.Trim(strings.TrimSpace(s), "£$€%")
	s = strings.ReplaceAll(s, ",", "")
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) {
		return v
	}
	return 0
}

func boolField(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return b
	}
	v, _ := strconv.ParseBool(stringField(raw))
	return v
}

// ExtractObject returns the first balanced {...} block in s. Braces inside
// JSON strings are ignored.
func ExtractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
