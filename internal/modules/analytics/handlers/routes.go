package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all analytics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/completed-timeline", h.HandleCompletedTimeline)
		r.Get("/completed-today", h.HandleCompletedToday)
		r.Get("/rollup/task-names", h.HandleTaskNameRollup)
		r.Get("/rollup/regions", h.HandleRegionRollup)
		r.Get("/rollup/locations", h.HandleLocationRollup)
		r.Get("/priority-breakdown", h.HandlePriorityBreakdown)
		r.Get("/handling-time", h.HandleHandlingTime)
		r.Get("/rolling-average", h.HandleRollingAverage)
		r.Get("/filter-options", h.HandleFilterOptions)
	})
}
