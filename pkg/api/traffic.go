package api

import "net/http"

func (s *Server) startTraffic(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.StartTraffic(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) stopTraffic(w http.ResponseWriter, r *http.Request) {
	s.engine.StopTraffic()
	writeJSON(w, http.StatusOK, nil)
}

// profileStats is one entry of GET /api/traffic/stats's per-profile
// breakdown.
type profileStats struct {
	Name    string `json:"name"`
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
}

// trafficStatsDoc is the full GET /api/traffic/stats response: engine
// running state, per-interface counters (from the interface layer) and
// per-profile counters (from each running worker).
type trafficStatsDoc struct {
	Running    bool                `json:"running"`
	Interfaces []interfaceStatsRow `json:"interfaces"`
	Profiles   []profileStats      `json:"profiles"`
}

type interfaceStatsRow struct {
	Name      string `json:"name"`
	Mode      string `json:"mode"`
	Sent      uint64 `json:"sent"`
	Dropped   uint64 `json:"dropped"`
	BytesSent uint64 `json:"bytes_sent"`
}

func (s *Server) trafficStats(w http.ResponseWriter, r *http.Request) {
	doc := trafficStatsDoc{Running: s.engine.Running()}

	for _, cfg := range s.engine.Interfaces() {
		snap, ok := s.engine.InterfaceStats(cfg.Name)
		if !ok {
			continue
		}
		doc.Interfaces = append(doc.Interfaces, interfaceStatsRow{
			Name:      cfg.Name,
			Mode:      snap.Mode,
			Sent:      snap.Sent,
			Dropped:   snap.Dropped,
			BytesSent: snap.BytesSent,
		})
	}

	for _, p := range s.engine.Profiles() {
		sent, dropped, ok := s.engine.ProfileStats(p.Name)
		if !ok {
			continue
		}
		doc.Profiles = append(doc.Profiles, profileStats{Name: p.Name, Sent: sent, Dropped: dropped})
	}

	writeJSON(w, http.StatusOK, doc)
}
