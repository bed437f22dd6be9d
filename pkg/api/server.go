package api

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netgenlab/trafficgen/pkg/control"
	"github.com/netgenlab/trafficgen/pkg/rfc2544"
)

// Server wires an Engine into the endpoint table: one ServeMux
// handler per (method, path) pair. It additionally owns the
// per-profile RFC 2544 harnesses, which are a test-running concern
// rather than engine registry state.
type Server struct {
	engine *control.Engine
	mux    *http.ServeMux

	mu      sync.Mutex
	harness map[string]*rfc2544.Harness
}

// NewServer builds a Server and registers every route. The returned
// Server's Handler method is an http.Handler ready for
// http.ListenAndServe or httptest.NewServer.
func NewServer(engine *control.Engine) *Server {
	s := &Server{
		engine:  engine,
		mux:     http.NewServeMux(),
		harness: make(map[string]*rfc2544.Harness),
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(control.NewCollector(engine))

	s.mux.HandleFunc("GET /api/interfaces", s.listInterfaces)
	s.mux.HandleFunc("POST /api/interfaces", s.admitInterface)
	s.mux.HandleFunc("POST /api/interfaces/{name}/discover", s.discoverInterface)

	s.mux.HandleFunc("GET /api/traffic-profiles", s.listProfiles)
	s.mux.HandleFunc("POST /api/traffic-profiles", s.createProfile)
	s.mux.HandleFunc("GET /api/traffic-profiles/{name}", s.getProfile)
	s.mux.HandleFunc("PUT /api/traffic-profiles/{name}", s.updateProfile)
	s.mux.HandleFunc("DELETE /api/traffic-profiles/{name}", s.deleteProfile)

	s.mux.HandleFunc("POST /api/traffic/start", s.startTraffic)
	s.mux.HandleFunc("POST /api/traffic/stop", s.stopTraffic)
	s.mux.HandleFunc("GET /api/traffic/stats", s.trafficStats)

	s.mux.HandleFunc("POST /api/config", s.saveConfig)
	s.mux.HandleFunc("POST /api/config/load", s.loadConfig)

	s.mux.HandleFunc("POST /api/rfc2544/start", s.startRFC2544)
	s.mux.HandleFunc("GET /api/rfc2544/results/{name}", s.rfc2544Results)

	s.mux.HandleFunc("POST /api/qos/test", s.qosTest)

	s.mux.HandleFunc("POST /api/impairments/enable", s.impairmentsToggle(true))
	s.mux.HandleFunc("POST /api/impairments/disable", s.impairmentsToggle(false))

	s.mux.HandleFunc("POST /api/bgp/start", s.bgpStart)
	s.mux.HandleFunc("POST /api/bgp/stop", s.bgpStop)

	s.mux.HandleFunc("POST /api/snmp/start", snmpUnavailable)
	s.mux.HandleFunc("POST /api/snmp/stop", snmpUnavailable)

	s.mux.HandleFunc("POST /api/netflow/start", s.netflowStart)

	s.mux.HandleFunc("GET /api/features/status", s.featuresStatus)

	s.mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return s
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server on addr.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}
