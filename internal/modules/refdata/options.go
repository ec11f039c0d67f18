package refdata

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/atheril/caseflow/internal/modules/query"
)

// FilterOptions is the set of selectable facet values visible at one
// snapshot, used to populate the report filter controls.
type FilterOptions struct {
	Services       []string `json:"services" msgpack:"services"`
	RoleCategories []string `json:"role_categories" msgpack:"role_categories"`
	Regions        []string `json:"regions" msgpack:"regions"`
	Locations      []string `json:"locations" msgpack:"locations"`
	TaskNames      []string `json:"task_names" msgpack:"task_names"`
	WorkTypes      []string `json:"work_types" msgpack:"work_types"`
	CaseWorkers    []string `json:"case_workers" msgpack:"case_workers"`
}

// DefaultVariant is the filter-option set warmed for every snapshot.
// Further variants apply extra base conditions and are warmed when named in
// the configuration.
const DefaultVariant = "default"

// optionVariants maps a variant name to the extra base condition it applies.
// The default variant hides cancelled task versions from the filter
// controls; "all" keeps everything.
var optionVariants = map[string]func() query.Condition{
	DefaultVariant: func() query.Condition { return query.Raw("status <> ?", "Cancelled") },
	"all":          func() query.Condition { return nil },
	"open-only":    func() query.Condition { return query.Raw("completed_date IS NULL") },
}

// KnownVariant reports whether a variant name is registered
func KnownVariant(name string) bool {
	_, ok := optionVariants[name]
	return ok
}

// OptionsRepository derives filter-option sets from the fact table
type OptionsRepository struct {
	warehouseDB *sql.DB
	log         zerolog.Logger
}

// NewOptionsRepository creates a new filter-options repository
func NewOptionsRepository(warehouseDB *sql.DB, log zerolog.Logger) *OptionsRepository {
	return &OptionsRepository{
		warehouseDB: warehouseDB,
		log:         log.With().Str("repo", "filter_options").Logger(),
	}
}

// GetOptions collects the distinct facet values visible as of the given
// snapshot under the named variant. Unknown variants fall back to the
// default variant with a warning.
func (r *OptionsRepository) GetOptions(snapshotID int64, variant string) (*FilterOptions, error) {
	variantCond, ok := optionVariants[variant]
	if !ok {
		r.log.Warn().Str("variant", variant).Msg("Unknown filter-option variant, using default")
		variantCond = optionVariants[DefaultVariant]
	}

	base := []query.Condition{query.SnapshotValid(snapshotID, "")}
	if extra := variantCond(); extra != nil {
		base = append(base, extra)
	}

	opts := &FilterOptions{}
	facets := []struct {
		column string
		dest   *[]string
	}{
		{"service", &opts.Services},
		{"role_category", &opts.RoleCategories},
		{"region", &opts.Regions},
		{"location", &opts.Locations},
		{"task_name", &opts.TaskNames},
		{"work_type", &opts.WorkTypes},
		{"case_worker", &opts.CaseWorkers},
	}

	for _, facet := range facets {
		values, err := r.distinctValues(facet.column, base)
		if err != nil {
			return nil, fmt.Errorf("failed to collect %s options: %w", facet.column, err)
		}
		*facet.dest = values
	}

	return opts, nil
}

func (r *OptionsRepository) distinctValues(column string, base []query.Condition) ([]string, error) {
	conds := append([]query.Condition{query.Raw(column + " IS NOT NULL AND " + column + " <> ''")}, base...)
	clause, args := query.Where(query.And(conds...))

	// column names come from the fixed facet table above, never from input
	rows, err := r.warehouseDB.Query(
		"SELECT DISTINCT "+column+" FROM task_facts"+clause+" ORDER BY "+column, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
