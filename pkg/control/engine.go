// Package control is the top-level lifecycle and registry surface: it
// admits interfaces and profiles, spawns one scheduler worker per
// enabled profile, aggregates stats, and exposes JSON
// snapshot/restore, Prometheus metrics, the QoS validation scenario,
// and periodic NetFlow/IPFIX export. It is the one place that
// serializes configuration mutation behind a single coarse lock, per
// the concurrency model: stats reads hold it only for the registry
// lookup and then read atomic counters.
package control

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/netgenlab/trafficgen/pkg/bgp"
	"github.com/netgenlab/trafficgen/pkg/iface"
	"github.com/netgenlab/trafficgen/pkg/impair"
	"github.com/netgenlab/trafficgen/pkg/pool"
	"github.com/netgenlab/trafficgen/pkg/scheduler"
)

// Engine owns the admitted-interface and profile registries and the
// running workers backing enabled profiles.
type Engine struct {
	mu sync.Mutex

	interfaces map[string]*iface.Interface
	ifaceCfg   map[string]iface.Config
	profiles   map[string]scheduler.Profile
	enabled    map[string]bool
	workers    map[string]*scheduler.Worker

	impairmentsEnabled bool

	pool *pool.Pool

	running bool

	bgpSession *bgp.Session
	netflowExp *NetflowExporter
}

// New builds an engine backed by a packet pool of the given capacity
// and buffer size (pool.DefaultCapacity/pool.DefaultBufferSize are
// reasonable defaults).
func New(poolCapacity, poolBufSize int) (*Engine, error) {
	p, err := pool.New(poolCapacity, poolBufSize)
	if err != nil {
		return nil, fmt.Errorf("control: init packet pool: %w", err)
	}
	return &Engine{
		interfaces:         make(map[string]*iface.Interface),
		ifaceCfg:           make(map[string]iface.Config),
		profiles:           make(map[string]scheduler.Profile),
		enabled:            make(map[string]bool),
		workers:            make(map[string]*scheduler.Worker),
		impairmentsEnabled: true,
		pool:               p,
	}, nil
}

// AdmitInterface opens the interface and registers it under cfg.Name.
func (e *Engine) AdmitInterface(cfg iface.Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i, err := iface.Init(cfg)
	if err != nil {
		return fmt.Errorf("control: admit interface %s: %w", cfg.Name, err)
	}
	e.interfaces[cfg.Name] = i
	e.ifaceCfg[cfg.Name] = cfg
	logrus.WithField("interface", cfg.Name).WithField("mode", i.Mode()).Info("control: interface admitted")
	return nil
}

// DiscoverInterface refreshes live MAC/IP from the OS for an admitted
// interface's config, without reopening its socket.
func (e *Engine) DiscoverInterface(name string) (iface.Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg, ok := e.ifaceCfg[name]
	if !ok {
		return iface.Config{}, fmt.Errorf("control: interface %s not admitted", name)
	}
	d, err := iface.Discover(name)
	if err != nil {
		return iface.Config{}, fmt.Errorf("control: discover %s: %w", name, err)
	}
	cfg.MACAddress = d.MACAddress
	cfg.IPAddress = d.IPAddress
	e.ifaceCfg[name] = cfg
	return cfg, nil
}

// Interfaces lists admitted interface configs.
func (e *Engine) Interfaces() []iface.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]iface.Config, 0, len(e.ifaceCfg))
	for _, cfg := range e.ifaceCfg {
		out = append(out, cfg)
	}
	return out
}

// PutProfile creates or replaces a traffic profile definition.
func (e *Engine) PutProfile(p scheduler.Profile) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.ifaceCfg[p.SrcInterface]; !ok {
		return fmt.Errorf("control: profile %s: source interface %s not admitted", p.Name, p.SrcInterface)
	}
	e.profiles[p.Name] = p
	return nil
}

// DeleteProfile removes a profile definition, stopping its worker first
// if running.
func (e *Engine) DeleteProfile(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if w, ok := e.workers[name]; ok {
		w.Stop()
		delete(e.workers, name)
	}
	delete(e.profiles, name)
	delete(e.enabled, name)
	return nil
}

// Profiles lists every defined profile.
func (e *Engine) Profiles() []scheduler.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]scheduler.Profile, 0, len(e.profiles))
	for _, p := range e.profiles {
		out = append(out, p)
	}
	return out
}

// Profile looks up one profile by name.
func (e *Engine) Profile(name string) (scheduler.Profile, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.profiles[name]
	return p, ok
}

// SetEnabled marks a profile enabled or disabled for the next
// StartTraffic call; it does not itself start or stop a worker.
func (e *Engine) SetEnabled(name string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.profiles[name]; !ok {
		return fmt.Errorf("control: profile %s not found", name)
	}
	e.enabled[name] = enabled
	return nil
}

// StartTraffic spawns one worker per enabled profile whose workers are
// not already running.
func (e *Engine) StartTraffic() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for name, p := range e.profiles {
		if !e.enabled[name] {
			continue
		}
		if _, running := e.workers[name]; running {
			continue
		}
		send, ok := e.interfaces[p.SrcInterface]
		if !ok {
			return fmt.Errorf("control: profile %s: source interface %s not admitted", name, p.SrcInterface)
		}
		if !e.impairmentsEnabled {
			p.Impair = impair.Config{}
		}
		w, err := scheduler.NewWorker(p, send, e.pool)
		if err != nil {
			return fmt.Errorf("control: start profile %s: %w", name, err)
		}
		e.workers[name] = w
		go w.Run()
	}
	e.running = true
	return nil
}

// StopTraffic sets running=false and joins every worker, each with its
// own 2 s deadline (enforced inside Worker.Stop).
func (e *Engine) StopTraffic() {
	e.mu.Lock()
	workers := make([]*scheduler.Worker, 0, len(e.workers))
	for _, w := range e.workers {
		workers = append(workers, w)
	}
	e.workers = make(map[string]*scheduler.Worker)
	e.running = false
	e.mu.Unlock()

	for _, w := range workers {
		w.Stop()
	}
}

// Running reports whether StartTraffic has been called without a
// subsequent StopTraffic.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// ProfileStats reports cumulative sent/dropped counters for a running
// profile's worker.
func (e *Engine) ProfileStats(name string) (sent, dropped uint64, ok bool) {
	e.mu.Lock()
	w, running := e.workers[name]
	e.mu.Unlock()
	if !running {
		return 0, 0, false
	}
	sent, dropped = w.Stats()
	return sent, dropped, true
}

// InterfaceStats reports a point-in-time snapshot for an admitted
// interface.
func (e *Engine) InterfaceStats(name string) (iface.Snapshot, bool) {
	e.mu.Lock()
	i, ok := e.interfaces[name]
	e.mu.Unlock()
	if !ok {
		return iface.Snapshot{}, false
	}
	return i.Stats(), true
}

// PoolStats reports the packet pool's allocation counters.
func (e *Engine) PoolStats() pool.Stats {
	return e.pool.Stats()
}

// TimestampingSender is an admitted interface's batched-send handle
// plus its last-observed TX timestamp, the minimum an external driver
// (the RFC 2544 latency test) needs without reaching into the registry
// itself.
type TimestampingSender interface {
	scheduler.Sender
	ReadTXTimestamp() (ns int64, ok bool)
}

// Sender returns the admitted interface's batched-send handle, letting
// callers outside this package (the RFC 2544 harness) drive load
// through a real interface without reaching into the registry
// themselves.
func (e *Engine) Sender(name string) (TimestampingSender, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.interfaces[name]
	return i, ok
}
