// Package server provides the HTTP server and routing for Caseflow.
package server

import (
	"encoding/json"
	"net/http"
)

// handleHealth handles health check requests. A quick ping of both
// databases, cheap enough for a liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	warehouseOK := s.warehouseDB.QuickCheck(r.Context()) == nil
	jobHistoryOK := s.jobHistoryDB.QuickCheck(r.Context()) == nil

	status := "healthy"
	code := http.StatusOK
	if !warehouseOK || !jobHistoryOK {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, map[string]interface{}{
		"status":      status,
		"version":     "1.0.0",
		"service":     "caseflow",
		"warehouse":   warehouseOK,
		"job_history": jobHistoryOK,
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
