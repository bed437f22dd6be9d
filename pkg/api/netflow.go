package api

import (
	"fmt"
	"net/http"
	"time"
)

type netflowStartRequest struct {
	CollectorAddr string `json:"collector_addr"`
	IntervalSec   int    `json:"interval_sec"`
	UseIPFIX      bool   `json:"use_ipfix"`
}

func (s *Server) netflowStart(w http.ResponseWriter, r *http.Request) {
	var req netflowStartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.CollectorAddr == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("api: collector_addr is required"))
		return
	}
	interval := time.Duration(req.IntervalSec) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}

	if err := s.engine.StartNetflow(req.CollectorAddr, interval, req.UseIPFIX); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
