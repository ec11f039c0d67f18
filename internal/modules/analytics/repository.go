// Package analytics implements the reporting operations: snapshot-scoped
// timelines, rollups, priority breakdowns and handling-time statistics over
// the task fact table.
package analytics

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/atheril/caseflow/internal/modules/priority"
	"github.com/atheril/caseflow/internal/modules/query"
)

// CompletedRow is one completed task version: when it was created and when
// it completed, both YYYY-MM-DD.
type CompletedRow struct {
	CompletedDate string
	CreatedDate   string
}

// PriorityRow is the raw material for in-process priority bucketing
type PriorityRow struct {
	Priority *int64
	DueDate  string // YYYY-MM-DD, empty when unset
}

// HandlingRow is one completed task's handling time, grouped later by service
type HandlingRow struct {
	Service         string
	HandlingMinutes float64
}

// Repository runs the parameterised fact queries. Every query conjoins the
// snapshot-validity predicate with the caller's FilterSpec; store errors on
// these request paths propagate to the caller.
type Repository struct {
	warehouseDB *sql.DB
	log         zerolog.Logger
}

// NewRepository creates a new analytics repository
func NewRepository(warehouseDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		warehouseDB: warehouseDB,
		log:         log.With().Str("repo", "analytics").Logger(),
	}
}

// CompletedRows returns the completed task versions visible at the snapshot
func (r *Repository) CompletedRows(snapshotID int64, filters query.FilterSpec) ([]CompletedRow, error) {
	clause, args := query.Where(query.BuildWhere(filters,
		query.SnapshotValid(snapshotID, ""),
		query.Raw("completed_date IS NOT NULL"),
	))

	rows, err := r.warehouseDB.Query(
		"SELECT completed_date, COALESCE(created_date, completed_date) FROM task_facts"+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed rows: %w", err)
	}
	defer rows.Close()

	var out []CompletedRow
	for rows.Next() {
		var row CompletedRow
		if err := rows.Scan(&row.CompletedDate, &row.CreatedDate); err != nil {
			return nil, fmt.Errorf("failed to scan completed row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// TaskNames returns the task-name column of the visible rows, one element
// per row (blank names included, defaulted later by the rollup).
func (r *Repository) TaskNames(snapshotID int64, filters query.FilterSpec) ([]string, error) {
	return r.labelColumn("task_name", snapshotID, filters)
}

// RegionLabels returns the region column of the visible rows
func (r *Repository) RegionLabels(snapshotID int64, filters query.FilterSpec) ([]string, error) {
	return r.labelColumn("region", snapshotID, filters)
}

// LocationLabels returns the location column of the visible rows
func (r *Repository) LocationLabels(snapshotID int64, filters query.FilterSpec) ([]string, error) {
	return r.labelColumn("location", snapshotID, filters)
}

// labelColumn fetches one categorical column. The column name always comes
// from the fixed callers above, never from input.
func (r *Repository) labelColumn(column string, snapshotID int64, filters query.FilterSpec) ([]string, error) {
	clause, args := query.Where(query.BuildWhere(filters, query.SnapshotValid(snapshotID, "")))

	rows, err := r.warehouseDB.Query(
		"SELECT COALESCE("+column+", '') FROM task_facts"+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s labels: %w", column, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan %s label: %w", column, err)
		}
		out = append(out, label)
	}
	return out, rows.Err()
}

// OpenPriorityRows returns priority and due date of the open (not yet
// completed) task versions visible at the snapshot, for in-process
// bucketing.
func (r *Repository) OpenPriorityRows(snapshotID int64, filters query.FilterSpec) ([]PriorityRow, error) {
	clause, args := query.Where(query.BuildWhere(filters,
		query.SnapshotValid(snapshotID, ""),
		query.Raw("completed_date IS NULL"),
	))

	rows, err := r.warehouseDB.Query(
		"SELECT priority, COALESCE(due_date, '') FROM task_facts"+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query priority rows: %w", err)
	}
	defer rows.Close()

	var out []PriorityRow
	for rows.Next() {
		var row PriorityRow
		if err := rows.Scan(&row.Priority, &row.DueDate); err != nil {
			return nil, fmt.Errorf("failed to scan priority row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// OpenPriorityRankCounts buckets the open task versions inside the query
// using the SQL encoding of the classifier rule. The result maps rank
// (4..1, 0 for unknown) to row count. This must agree with bucketing
// OpenPriorityRows in process.
func (r *Repository) OpenPriorityRankCounts(snapshotID int64, filters query.FilterSpec, ref time.Time, loc *time.Location) (map[int]int, error) {
	rankExpr, rankArgs := query.Render(priority.RankCase("priority", "due_date", ref, loc))

	clause, args := query.Where(query.BuildWhere(filters,
		query.SnapshotValid(snapshotID, ""),
		query.Raw("completed_date IS NULL"),
	))

	sqlText := "SELECT " + rankExpr + " AS bucket_rank, COUNT(*) FROM task_facts" + clause + " GROUP BY bucket_rank"
	allArgs := append(append([]interface{}{}, rankArgs...), args...)

	rows, err := r.warehouseDB.Query(sqlText, allArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query priority rank counts: %w", err)
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var rank, count int
		if err := rows.Scan(&rank, &count); err != nil {
			return nil, fmt.Errorf("failed to scan priority rank count: %w", err)
		}
		out[rank] = count
	}
	return out, rows.Err()
}

// HandlingRows returns service and handling minutes of the completed task
// versions that carry a handling time.
func (r *Repository) HandlingRows(snapshotID int64, filters query.FilterSpec) ([]HandlingRow, error) {
	clause, args := query.Where(query.BuildWhere(filters,
		query.SnapshotValid(snapshotID, ""),
		query.Raw("handling_minutes IS NOT NULL"),
	))

	rows, err := r.warehouseDB.Query(
		"SELECT COALESCE(service, ''), handling_minutes FROM task_facts"+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query handling rows: %w", err)
	}
	defer rows.Close()

	var out []HandlingRow
	for rows.Next() {
		var row HandlingRow
		if err := rows.Scan(&row.Service, &row.HandlingMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan handling row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
