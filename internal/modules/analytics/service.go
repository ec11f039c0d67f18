package analytics

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/atheril/caseflow/internal/domain"
	"github.com/atheril/caseflow/internal/modules/priority"
	"github.com/atheril/caseflow/internal/modules/query"
	"github.com/atheril/caseflow/internal/modules/refdata"
	"github.com/atheril/caseflow/internal/modules/stats"
)

// RegionCount is one region rollup bucket with its display label resolved
type RegionCount struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Total       int    `json:"total"`
}

// ServiceHandlingStats is the handling-time summary for one service
type ServiceHandlingStats struct {
	Service string            `json:"service"`
	Count   int               `json:"count"`
	Stats   stats.Descriptive `json:"stats"`
}

// HandlingTimeReport combines per-service summaries with the overall
// average of all handling times.
type HandlingTimeReport struct {
	PerService     []ServiceHandlingStats `json:"per_service"`
	OverallAverage float64                `json:"overall_average"`
}

// RollingPoint is one entry of the rolling-average timeline
type RollingPoint struct {
	DateKey string  `json:"date_key"`
	Average float64 `json:"average"`
}

// Service combines the fact queries with classification and aggregation.
// Callers resolve the snapshot id once per request and thread it through
// every call, so one request always observes one snapshot.
type Service struct {
	repo          *Repository
	refdata       *refdata.Service
	clock         domain.Clock
	loc           *time.Location
	thresholdDays int
	log           zerolog.Logger
}

// NewService creates a new analytics service
func NewService(
	repo *Repository,
	refdataService *refdata.Service,
	clock domain.Clock,
	loc *time.Location,
	thresholdDays int,
	log zerolog.Logger,
) *Service {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:          repo,
		refdata:       refdataService,
		clock:         clock,
		loc:           loc,
		thresholdDays: thresholdDays,
		log:           log.With().Str("service", "analytics").Logger(),
	}
}

// CompletedTimeline groups completed tasks per completion date, splitting
// each date into within/beyond the handling threshold (calendar days between
// creation and completion). Dates without completions do not appear.
func (s *Service) CompletedTimeline(snapshotID int64, filters query.FilterSpec) ([]stats.TimelinePoint, error) {
	rows, err := s.repo.CompletedRows(snapshotID, filters)
	if err != nil {
		return nil, err
	}

	entries := make([]stats.TimelineEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, stats.TimelineEntry{
			DateKey: row.CompletedDate,
			Within:  s.withinThreshold(row),
		})
	}

	return stats.Timeline(entries), nil
}

// CompletedToday counts tasks completed on the current calendar date in the
// reporting timezone.
func (s *Service) CompletedToday(snapshotID int64, filters query.FilterSpec) (int, error) {
	points, err := s.CompletedTimeline(snapshotID, filters)
	if err != nil {
		return 0, err
	}

	today := s.clock.Now().In(s.loc).Format("2006-01-02")
	for _, p := range points {
		if p.DateKey == today {
			return p.Total, nil
		}
	}
	return 0, nil
}

// TaskNameRollup counts visible rows per task name, blank names grouped
// under "Unknown task", ordered for charting.
func (s *Service) TaskNameRollup(snapshotID int64, filters query.FilterSpec) ([]stats.NameCount, error) {
	names, err := s.repo.TaskNames(snapshotID, filters)
	if err != nil {
		return nil, err
	}
	return stats.RollupByName(names, stats.UnknownTaskLabel), nil
}

// RegionRollup counts visible rows per region code and resolves each code
// to its display description through the reference cache.
func (s *Service) RegionRollup(snapshotID int64, filters query.FilterSpec) ([]RegionCount, error) {
	labels, err := s.repo.RegionLabels(snapshotID, filters)
	if err != nil {
		return nil, err
	}

	rollup := stats.RollupByName(labels, stats.UnknownLabel)

	out := make([]RegionCount, 0, len(rollup))
	for _, item := range rollup {
		description := item.Name
		if item.Name != stats.UnknownLabel {
			description = s.refdata.RegionDescription(item.Name)
		}
		out = append(out, RegionCount{
			Code:        item.Name,
			Description: description,
			Total:       item.Total,
		})
	}
	return out, nil
}

// LocationRollup counts visible rows per location, blank locations grouped
// under "Unknown".
func (s *Service) LocationRollup(snapshotID int64, filters query.FilterSpec) ([]stats.NameCount, error) {
	labels, err := s.repo.LocationLabels(snapshotID, filters)
	if err != nil {
		return nil, err
	}
	return stats.RollupByName(labels, stats.UnknownLabel), nil
}

// PriorityBreakdown buckets the open tasks server-side using the SQL
// encoding of the classifier rule.
func (s *Service) PriorityBreakdown(snapshotID int64, filters query.FilterSpec) (map[priority.Bucket]int, error) {
	counts, err := s.repo.OpenPriorityRankCounts(snapshotID, filters, s.clock.Now(), s.loc)
	if err != nil {
		return nil, err
	}

	out := make(map[priority.Bucket]int, len(counts))
	for rank, count := range counts {
		out[priority.FromRank(rank)] += count
	}
	return out, nil
}

// PriorityBreakdownInProcess buckets the open tasks by fetching the raw
// rows and applying the classifier in process. It must always agree with
// PriorityBreakdown; the two encodings of the rule are kept equivalent.
func (s *Service) PriorityBreakdownInProcess(snapshotID int64, filters query.FilterSpec) (map[priority.Bucket]int, error) {
	rows, err := s.repo.OpenPriorityRows(snapshotID, filters)
	if err != nil {
		return nil, err
	}

	ref := s.clock.Now()
	out := make(map[priority.Bucket]int)
	for _, row := range rows {
		out[s.classifyRow(row, ref)]++
	}
	return out, nil
}

// classifyRow applies the classifier to a fetched row, mirroring the SQL
// encoding's NULL handling: missing priority is Unknown, a 5000-priority row
// without a parseable due date is Low.
func (s *Service) classifyRow(row PriorityRow, ref time.Time) priority.Bucket {
	if row.Priority == nil {
		return priority.Unknown
	}

	due, err := time.ParseInLocation("2006-01-02", row.DueDate, s.loc)
	if err != nil {
		// SQL's date('') is NULL, which fails both boundary comparisons and
		// falls through to Low. A future due date reproduces that here.
		due = ref.AddDate(1, 0, 0)
	}

	return priority.Classify(*row.Priority, due, ref, s.loc)
}

// HandlingTimeStats summarises handling minutes per service and computes
// the overall average by merging the per-service partial sums, weighting by
// count.
func (s *Service) HandlingTimeStats(snapshotID int64, filters query.FilterSpec) (*HandlingTimeReport, error) {
	rows, err := s.repo.HandlingRows(snapshotID, filters)
	if err != nil {
		return nil, err
	}

	samples := make(map[string][]float64)
	for _, row := range rows {
		service := row.Service
		if service == "" {
			service = stats.UnknownLabel
		}
		samples[service] = append(samples[service], row.HandlingMinutes)
	}

	report := &HandlingTimeReport{}
	partials := make([]stats.Partial, 0, len(samples))
	order := make([]stats.NameCount, 0, len(samples))

	for service, sample := range samples {
		order = append(order, stats.NameCount{Name: service, Total: len(sample)})
	}
	stats.SortByTotalThenName(order)

	for _, item := range order {
		sample := samples[item.Name]
		report.PerService = append(report.PerService, ServiceHandlingStats{
			Service: item.Name,
			Count:   len(sample),
			Stats:   stats.Describe(sample),
		})

		var sum float64
		for _, v := range sample {
			sum += v
		}
		partials = append(partials, stats.Partial{Sum: sum, Count: int64(len(sample))})
	}

	report.OverallAverage = stats.MergeAverage(partials)
	return report, nil
}

// RollingCompletedAverage smooths the per-day completion totals with a
// trailing window.
func (s *Service) RollingCompletedAverage(snapshotID int64, filters query.FilterSpec, window int) ([]RollingPoint, error) {
	points, err := s.CompletedTimeline(snapshotID, filters)
	if err != nil {
		return nil, err
	}

	totals := make([]float64, len(points))
	for i, p := range points {
		totals[i] = float64(p.Total)
	}

	averages := stats.RollingAverage(totals, window)

	out := make([]RollingPoint, len(points))
	for i, p := range points {
		out[i] = RollingPoint{DateKey: p.DateKey, Average: averages[i]}
	}
	return out, nil
}

// withinThreshold reports whether the row completed within the configured
// number of calendar days after creation. Unparseable dates count as beyond.
func (s *Service) withinThreshold(row CompletedRow) bool {
	// Plain dates carry no zone. Counting in UTC keeps every day exactly 24h,
	// so DST transitions in the reporting zone cannot skew the difference.
	created, err := time.Parse("2006-01-02", row.CreatedDate)
	if err != nil {
		return false
	}
	completed, err := time.Parse("2006-01-02", row.CompletedDate)
	if err != nil {
		return false
	}

	days := int(completed.Sub(created).Hours() / 24)
	return days <= s.thresholdDays
}
