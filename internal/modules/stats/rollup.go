package stats

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Default labels for rows whose grouping column is unset
const (
	UnknownTaskLabel = "Unknown task"
	UnknownLabel     = "Unknown"
)

// NameCount is one rollup bucket
type NameCount struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

// Chart ordering depends on a locale-aware name comparison, so the collator
// is fixed here rather than left to byte order.
var rollupCollator = collate.New(language.English)

// RollupByName counts occurrences per label, substituting defaultLabel for
// blank labels, and sorts descending by total with ties broken ascending by
// name under locale-aware collation. The ordering is deterministic and
// charts depend on it.
func RollupByName(labels []string, defaultLabel string) []NameCount {
	counts := make(map[string]int)
	for _, label := range labels {
		if label == "" {
			label = defaultLabel
		}
		counts[label]++
	}

	out := make([]NameCount, 0, len(counts))
	for name, total := range counts {
		out = append(out, NameCount{Name: name, Total: total})
	}

	SortByTotalThenName(out)
	return out
}

// SortByTotalThenName sorts in place: descending by total, ties ascending by
// name (locale-aware).
func SortByTotalThenName(items []NameCount) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Total != items[j].Total {
			return items[i].Total > items[j].Total
		}
		return rollupCollator.CompareString(items[i].Name, items[j].Name) < 0
	})
}
