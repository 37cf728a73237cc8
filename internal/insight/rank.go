package insight

import (
	"sort"
	"strings"

	"github.com/cleared-dev/spendsight/internal/model"
)

var sourceOrder = map[model.Source]int{
	model.SourceStatistical: 0,
	model.SourceNarrative:   1,
	model.SourceFallback:    2,
}

func typeOrder(t model.InsightType) int {
	for i, known := range model.InsightTypes {
		if t == known {
			return i
		}
	}
	return len(model.InsightTypes)
}

type dedupeKey struct {
	typ      model.InsightType
	category string
	title    string
}

// Rank normalizes, deduplicates and orders insights. Duplicates share type,
// category and case-insensitive title; the higher-impact copy is kept.
// Order is impact desc, confidence desc, source (statistical, narrative,
// fallback), type, then title.
func Rank(insights []model.Insight) []model.Insight {
	out := make([]model.Insight, 0, len(insights))
	seen := make(map[dedupeKey]int, len(insights))
	for _, in := range insights {
		in = in.Normalize()
		key := dedupeKey{in.Type, in.Category, strings.ToLower(strings.TrimSpace(in.Title))}
		if i, ok := seen[key]; ok {
			if in.Impact > out[i].Impact {
				out[i] = in
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, in)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Impact != b.Impact {
			return a.Impact > b.Impact
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if sa, sb := sourceOrder[a.Source], sourceOrder[b.Source]; sa != sb {
			return sa < sb
		}
		if ta, tb := typeOrder(a.Type), typeOrder(b.Type); ta != tb {
			return ta < tb
		}
		return a.Title < b.Title
	})
	return out
}

// Top returns the first n ranked insights. n <= 0 returns all of them.
func Top(insights []model.Insight, n int) []model.Insight {
	ranked := Rank(insights)
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
