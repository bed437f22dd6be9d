package api

import "net/http"

func (s *Server) featuresStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Features())
}
