package api

import (
	"net"
	"net/http"
	"time"

	"github.com/netgenlab/trafficgen/pkg/bgp"
)

func parseRouterID(s string) net.IP {
	return net.ParseIP(s)
}

// bgpStartRequest mirrors bgp.Config with JSON tags for wire decoding;
// bgp.Config itself carries no tags since it is exercised directly
// in-process by bgp_test.go, not over JSON there.
type bgpStartRequest struct {
	PeerAddr        string `json:"peer_addr"`
	LocalASN        uint32 `json:"local_asn"`
	RouterID        string `json:"router_id"`
	HoldTimeSec     uint16 `json:"hold_time_sec"`
	FourByteASN     bool   `json:"four_byte_asn"`
	RouteRefresh    bool   `json:"route_refresh"`
	Multiprotocol   bool   `json:"multiprotocol"`
	GracefulRestart bool   `json:"graceful_restart"`
	ConnectTimeout  int    `json:"connect_timeout_sec"`
}

func (s *Server) bgpStart(w http.ResponseWriter, r *http.Request) {
	var req bgpStartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg := bgp.Config{
		PeerAddr:        req.PeerAddr,
		LocalASN:        req.LocalASN,
		RouterID:        parseRouterID(req.RouterID),
		HoldTimeSec:     req.HoldTimeSec,
		FourByteASN:     req.FourByteASN,
		RouteRefresh:    req.RouteRefresh,
		Multiprotocol:   req.Multiprotocol,
		GracefulRestart: req.GracefulRestart,
	}
	if req.ConnectTimeout > 0 {
		cfg.ConnectTimeout = time.Duration(req.ConnectTimeout) * time.Second
	}

	if err := s.engine.StartBGP(cfg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) bgpStop(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.StopBGP(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
