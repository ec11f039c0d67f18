package stats

import "sort"

// TimelineEntry is one row contribution to a per-date timeline
type TimelineEntry struct {
	DateKey string // YYYY-MM-DD
	Within  bool   // completed within the configured threshold
}

// TimelinePoint is the accumulated count for one date key
type TimelinePoint struct {
	DateKey string `json:"date_key"`
	Total   int    `json:"total"`
	Within  int    `json:"within"`
	Beyond  int    `json:"beyond"`
}

// Timeline groups entries by date key and accumulates total / within /
// beyond counts, ascending by date key. Dates with no entries are not
// synthesized: only dates present in the input appear.
func Timeline(entries []TimelineEntry) []TimelinePoint {
	byDate := make(map[string]*TimelinePoint)

	for _, e := range entries {
		p, ok := byDate[e.DateKey]
		if !ok {
			p = &TimelinePoint{DateKey: e.DateKey}
			byDate[e.DateKey] = p
		}
		p.Total++
		if e.Within {
			p.Within++
		} else {
			p.Beyond++
		}
	}

	out := make([]TimelinePoint, 0, len(byDate))
	for _, p := range byDate {
		out = append(out, *p)
	}

	// YYYY-MM-DD keys sort chronologically as strings
	sort.Slice(out, func(i, j int) bool {
		return out[i].DateKey < out[j].DateKey
	})

	return out
}
