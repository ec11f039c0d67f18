// Package handlers exposes the analytics operations as JSON endpoints.
// Each request resolves the snapshot id exactly once (explicit ?snapshot=
// or the published snapshot) and threads it through every query it runs, so
// the whole response is consistent with a single snapshot.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/atheril/caseflow/internal/modules/analytics"
	"github.com/atheril/caseflow/internal/modules/query"
	"github.com/atheril/caseflow/internal/modules/refdata"
	"github.com/atheril/caseflow/internal/modules/snapshots"
)

// Handler handles analytics HTTP requests
type Handler struct {
	service      *analytics.Service
	snapshotRepo *snapshots.Repository
	refdata      *refdata.Service
	log          zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(
	service *analytics.Service,
	snapshotRepo *snapshots.Repository,
	refdataService *refdata.Service,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:      service,
		snapshotRepo: snapshotRepo,
		refdata:      refdataService,
		log:          log.With().Str("handler", "analytics").Logger(),
	}
}

// resolveSnapshot picks the snapshot for this request: an explicit
// ?snapshot=<id> wins, otherwise the currently published snapshot. Returns
// 0 and writes the response when resolution fails.
func (h *Handler) resolveSnapshot(w http.ResponseWriter, r *http.Request) (int64, bool) {
	if raw := r.URL.Query().Get("snapshot"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			http.Error(w, "snapshot must be a positive integer", http.StatusBadRequest)
			return 0, false
		}
		return id, true
	}

	snap, err := h.snapshotRepo.GetPublished()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to resolve published snapshot")
		http.Error(w, "failed to resolve snapshot", http.StatusInternalServerError)
		return 0, false
	}
	if snap == nil {
		http.Error(w, "no published snapshot", http.StatusConflict)
		return 0, false
	}
	return snap.ID, true
}

// filtersFromRequest builds the FilterSpec from repeated query parameters.
// Malformed values are normalized away, never rejected.
func filtersFromRequest(r *http.Request) query.FilterSpec {
	q := r.URL.Query()
	return query.FilterSpec{
		Services:       q["service"],
		RoleCategories: q["role_category"],
		Regions:        q["region"],
		Locations:      q["location"],
		TaskNames:      q["task_name"],
		WorkTypes:      q["work_type"],
		CaseWorkers:    q["case_worker"],
		CompletedFrom:  q.Get("completed_from"),
		CompletedTo:    q.Get("completed_to"),
		EventsFrom:     q.Get("events_from"),
		EventsTo:       q.Get("events_to"),
	}.Normalize()
}

func (h *Handler) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

// HandleCompletedTimeline handles GET /api/analytics/completed-timeline
func (h *Handler) HandleCompletedTimeline(w http.ResponseWriter, r *http.Request) {
	snapshotID, ok := h.resolveSnapshot(w, r)
	if !ok {
		return
	}

	points, err := h.service.CompletedTimeline(snapshotID, filtersFromRequest(r))
	if err != nil {
		h.log.Error().Err(err).Int64("snapshot", snapshotID).Msg("Completed timeline failed")
		http.Error(w, "completed timeline failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"snapshot_id": snapshotID,
		"points":      points,
	})
}

// HandleCompletedToday handles GET /api/analytics/completed-today
func (h *Handler) HandleCompletedToday(w http.ResponseWriter, r *http.Request) {
	snapshotID, ok := h.resolveSnapshot(w, r)
	if !ok {
		return
	}

	count, err := h.service.CompletedToday(snapshotID, filtersFromRequest(r))
	if err != nil {
		h.log.Error().Err(err).Int64("snapshot", snapshotID).Msg("Completed today failed")
		http.Error(w, "completed today failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"snapshot_id": snapshotID,
		"total":       count,
	})
}

// HandleTaskNameRollup handles GET /api/analytics/rollup/task-names
func (h *Handler) HandleTaskNameRollup(w http.ResponseWriter, r *http.Request) {
	snapshotID, ok := h.resolveSnapshot(w, r)
	if !ok {
		return
	}

	rollup, err := h.service.TaskNameRollup(snapshotID, filtersFromRequest(r))
	if err != nil {
		h.log.Error().Err(err).Int64("snapshot", snapshotID).Msg("Task name rollup failed")
		http.Error(w, "task name rollup failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"snapshot_id": snapshotID,
		"rollup":      rollup,
	})
}

// HandleRegionRollup handles GET /api/analytics/rollup/regions
func (h *Handler) HandleRegionRollup(w http.ResponseWriter, r *http.Request) {
	snapshotID, ok := h.resolveSnapshot(w, r)
	if !ok {
		return
	}

	rollup, err := h.service.RegionRollup(snapshotID, filtersFromRequest(r))
	if err != nil {
		h.log.Error().Err(err).Int64("snapshot", snapshotID).Msg("Region rollup failed")
		http.Error(w, "region rollup failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"snapshot_id": snapshotID,
		"rollup":      rollup,
	})
}

// HandleLocationRollup handles GET /api/analytics/rollup/locations
func (h *Handler) HandleLocationRollup(w http.ResponseWriter, r *http.Request) {
	snapshotID, ok := h.resolveSnapshot(w, r)
	if !ok {
		return
	}

	rollup, err := h.service.LocationRollup(snapshotID, filtersFromRequest(r))
	if err != nil {
		h.log.Error().Err(err).Int64("snapshot", snapshotID).Msg("Location rollup failed")
		http.Error(w, "location rollup failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"snapshot_id": snapshotID,
		"rollup":      rollup,
	})
}

// HandlePriorityBreakdown handles GET /api/analytics/priority-breakdown
func (h *Handler) HandlePriorityBreakdown(w http.ResponseWriter, r *http.Request) {
	snapshotID, ok := h.resolveSnapshot(w, r)
	if !ok {
		return
	}

	breakdown, err := h.service.PriorityBreakdown(snapshotID, filtersFromRequest(r))
	if err != nil {
		h.log.Error().Err(err).Int64("snapshot", snapshotID).Msg("Priority breakdown failed")
		http.Error(w, "priority breakdown failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"snapshot_id": snapshotID,
		"breakdown":   breakdown,
	})
}

// HandleHandlingTime handles GET /api/analytics/handling-time
func (h *Handler) HandleHandlingTime(w http.ResponseWriter, r *http.Request) {
	snapshotID, ok := h.resolveSnapshot(w, r)
	if !ok {
		return
	}

	report, err := h.service.HandlingTimeStats(snapshotID, filtersFromRequest(r))
	if err != nil {
		h.log.Error().Err(err).Int64("snapshot", snapshotID).Msg("Handling time stats failed")
		http.Error(w, "handling time stats failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"snapshot_id": snapshotID,
		"report":      report,
	})
}

// HandleRollingAverage handles GET /api/analytics/rolling-average
func (h *Handler) HandleRollingAverage(w http.ResponseWriter, r *http.Request) {
	snapshotID, ok := h.resolveSnapshot(w, r)
	if !ok {
		return
	}

	window := 7
	if raw := r.URL.Query().Get("window"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 1 {
			window = parsed
		}
	}

	points, err := h.service.RollingCompletedAverage(snapshotID, filtersFromRequest(r), window)
	if err != nil {
		h.log.Error().Err(err).Int64("snapshot", snapshotID).Msg("Rolling average failed")
		http.Error(w, "rolling average failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"snapshot_id": snapshotID,
		"window":      window,
		"points":      points,
	})
}

// HandleFilterOptions handles GET /api/analytics/filter-options
func (h *Handler) HandleFilterOptions(w http.ResponseWriter, r *http.Request) {
	snapshotID, ok := h.resolveSnapshot(w, r)
	if !ok {
		return
	}

	variant := r.URL.Query().Get("variant")
	if variant == "" {
		variant = refdata.DefaultVariant
	}

	opts, err := h.refdata.Options(snapshotID, variant)
	if err != nil {
		h.log.Error().Err(err).Int64("snapshot", snapshotID).Msg("Filter options failed")
		http.Error(w, "filter options failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"snapshot_id": snapshotID,
		"variant":     variant,
		"options":     opts,
	})
}
