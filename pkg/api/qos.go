package api

import (
	"net/http"
	"time"

	"github.com/netgenlab/trafficgen/pkg/control"
)

type qosTestRequest struct {
	Cases      []control.QoSCase `json:"cases"`
	DurationMs int               `json:"duration_ms"`
}

func (s *Server) qosTest(w http.ResponseWriter, r *http.Request) {
	var req qosTestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	duration := time.Duration(req.DurationMs) * time.Millisecond
	if duration <= 0 {
		duration = time.Second
	}

	result, err := s.engine.RunQoSScenario(req.Cases, duration)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
