// Package handlers provides HTTP handlers for the snapshot catalog.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/atheril/caseflow/internal/modules/snapshots"
)

// Handler handles snapshot HTTP requests
type Handler struct {
	repo *snapshots.Repository
	log  zerolog.Logger
}

// NewHandler creates a new snapshot handler
func NewHandler(repo *snapshots.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "snapshots").Logger(),
	}
}

// HandleList handles GET /api/snapshots
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.repo.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list snapshots")
		http.Error(w, "failed to list snapshots", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"snapshots": snaps,
	})
}

// HandleGetPublished handles GET /api/snapshots/published
func (h *Handler) HandleGetPublished(w http.ResponseWriter, r *http.Request) {
	snap, err := h.repo.GetPublished()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get published snapshot")
		http.Error(w, "failed to get published snapshot", http.StatusInternalServerError)
		return
	}

	if snap == nil {
		http.Error(w, "no published snapshot", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}
