package api

import (
	"fmt"
	"net/http"

	"github.com/netgenlab/trafficgen/pkg/iface"
)

func (s *Server) listInterfaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Interfaces())
}

func (s *Server) admitInterface(w http.ResponseWriter, r *http.Request) {
	var cfg iface.Config
	if err := decodeJSON(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if cfg.Name == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("api: name is required"))
		return
	}
	if err := s.engine.AdmitInterface(cfg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

func (s *Server) discoverInterface(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	cfg, err := s.engine.DiscoverInterface(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
