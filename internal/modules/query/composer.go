package query

// facetColumns maps each facet to its warehouse column. The map is fixed in
// code, so identifiers never come from user input.
var facetColumns = []struct {
	column string
	values func(FilterSpec) []string
}{
	// Declared order is the render order of the facet fragments. The
	// conjunction is order-independent logically, the fixed order keeps the
	// generated text deterministic.
	{"service", func(f FilterSpec) []string { return f.Services }},
	{"role_category", func(f FilterSpec) []string { return f.RoleCategories }},
	{"region", func(f FilterSpec) []string { return f.Regions }},
	{"location", func(f FilterSpec) []string { return f.Locations }},
	{"task_name", func(f FilterSpec) []string { return f.TaskNames }},
	{"work_type", func(f FilterSpec) []string { return f.WorkTypes }},
	{"case_worker", func(f FilterSpec) []string { return f.CaseWorkers }},
}

// BuildWhere combines base conditions (snapshot validity, row-kind
// discriminators) with the facet and date-bound restrictions of the spec into
// one conjunction. When nothing applies the result is neutral and Where
// renders no clause at all.
func BuildWhere(filters FilterSpec, base ...Condition) Condition {
	filters = filters.Normalize()

	conds := make([]Condition, 0, len(base)+len(facetColumns)+4)
	conds = append(conds, base...)

	for _, facet := range facetColumns {
		if values := facet.values(filters); len(values) > 0 {
			conds = append(conds, InSet(facet.column, values))
		}
	}

	if filters.CompletedFrom != "" {
		conds = append(conds, Raw("completed_date >= ?", filters.CompletedFrom))
	}
	if filters.CompletedTo != "" {
		conds = append(conds, Raw("completed_date <= ?", filters.CompletedTo))
	}
	if filters.EventsFrom != "" {
		conds = append(conds, Raw("created_date >= ?", filters.EventsFrom))
	}
	if filters.EventsTo != "" {
		conds = append(conds, Raw("created_date <= ?", filters.EventsTo))
	}

	return And(conds...)
}
