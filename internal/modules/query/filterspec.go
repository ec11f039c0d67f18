package query

import "strings"

// FilterSpec is the normalized set of user-selected facets. A nil/empty slice
// means "no restriction" for that facet, never an empty-set restriction.
// Values are trimmed, deduplicated and case-preserving.
type FilterSpec struct {
	Services       []string
	RoleCategories []string
	Regions        []string
	Locations      []string
	TaskNames      []string
	WorkTypes      []string
	CaseWorkers    []string

	// Date bounds, YYYY-MM-DD, empty = unbounded
	CompletedFrom string
	CompletedTo   string
	EventsFrom    string
	EventsTo      string
}

// NormalizeValues trims, drops blanks and deduplicates while preserving the
// first-seen order and the original casing.
func NormalizeValues(values []string) []string {
	var out []string
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// CoerceValues filters a loosely typed value list (e.g. a decoded JSON array)
// down to its string members and normalizes them. Non-string members are
// dropped silently: a malformed facet degrades to "no restriction", it is
// never an error.
func CoerceValues(values []interface{}) []string {
	var raw []string
	for _, v := range values {
		if s, ok := v.(string); ok {
			raw = append(raw, s)
		}
	}
	return NormalizeValues(raw)
}

// Normalize returns a copy with every facet list normalized
func (f FilterSpec) Normalize() FilterSpec {
	f.Services = NormalizeValues(f.Services)
	f.RoleCategories = NormalizeValues(f.RoleCategories)
	f.Regions = NormalizeValues(f.Regions)
	f.Locations = NormalizeValues(f.Locations)
	f.TaskNames = NormalizeValues(f.TaskNames)
	f.WorkTypes = NormalizeValues(f.WorkTypes)
	f.CaseWorkers = NormalizeValues(f.CaseWorkers)
	f.CompletedFrom = strings.TrimSpace(f.CompletedFrom)
	f.CompletedTo = strings.TrimSpace(f.CompletedTo)
	f.EventsFrom = strings.TrimSpace(f.EventsFrom)
	f.EventsTo = strings.TrimSpace(f.EventsTo)
	return f
}

// IsEmpty reports whether the spec restricts nothing
func (f FilterSpec) IsEmpty() bool {
	return len(f.Services) == 0 &&
		len(f.RoleCategories) == 0 &&
		len(f.Regions) == 0 &&
		len(f.Locations) == 0 &&
		len(f.TaskNames) == 0 &&
		len(f.WorkTypes) == 0 &&
		len(f.CaseWorkers) == 0 &&
		f.CompletedFrom == "" && f.CompletedTo == "" &&
		f.EventsFrom == "" && f.EventsTo == ""
}
