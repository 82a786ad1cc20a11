package api

import (
	"net/http"
)

func (s *Server) handleSweepStats(w http.ResponseWriter, r *http.Request) {
	if s.sweeps == nil {
		jsonError(w, "sweep stats unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": s.sessions.Len(),
		"sweeps":   s.sweeps.Snapshot(),
	})
}
