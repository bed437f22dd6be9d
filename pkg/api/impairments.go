package api

import "net/http"

// impairmentsToggle returns a handler setting the global impairments
// switch to enabled, closed over at registration time so one handler
// body serves both /enable and /disable.
func (s *Server) impairmentsToggle(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.engine.SetImpairmentsEnabled(enabled); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"impairments_enabled": enabled})
	}
}
