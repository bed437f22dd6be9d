package api

import (
	"fmt"
	"net/http"

	"github.com/netgenlab/trafficgen/pkg/scheduler"
)

func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Profiles())
}

func (s *Server) createProfile(w http.ResponseWriter, r *http.Request) {
	var p scheduler.Profile
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if p.Name == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("api: name is required"))
		return
	}
	if err := s.engine.PutProfile(p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	p, ok := s.engine.Profile(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("api: profile %s not found", name))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var p scheduler.Profile
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p.Name = name
	if err := s.engine.PutProfile(p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProfile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.engine.DeleteProfile(name); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
