package api

import (
	"io"
	"net/http"
)

func (s *Server) saveConfig(w http.ResponseWriter, r *http.Request) {
	data, err := s.engine.Snapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeRawJSON(w, http.StatusOK, data)
}

func (s *Server) loadConfig(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.Restore(data); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
