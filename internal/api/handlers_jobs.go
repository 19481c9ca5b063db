package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListJobs lists all jobs still held in the store, newest first.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	snaps := s.orchestrator.Jobs().List()

	// Optional status filter.
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := snaps[:0]
		for _, snap := range snaps {
			if string(snap.Status) == status {
				filtered = append(filtered, snap)
			}
		}
		snaps = filtered
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"jobs":  snaps,
		"count": len(snaps),
	})
}

// handleDeleteJob removes a job and its held result.
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if !s.orchestrator.Jobs().Delete(jobID) {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": jobID})
}
