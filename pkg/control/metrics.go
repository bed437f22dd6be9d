package control

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes the engine's interface, profile, and packet-pool
// counters as Prometheus metrics, following the standard
// Describe/Collect custom-collector shape: one *prometheus.Desc per
// measurement, with per-instance label values supplied at Collect time
// rather than one registered metric per interface/profile.
type Collector struct {
	engine *Engine

	ifaceSent    *prometheus.Desc
	ifaceDropped *prometheus.Desc
	ifaceBytes   *prometheus.Desc

	profileSent    *prometheus.Desc
	profileDropped *prometheus.Desc

	poolInUse       *prometheus.Desc
	poolAllocs      *prometheus.Desc
	poolExhaustions *prometheus.Desc
}

// NewCollector builds a Collector reading from engine at each scrape.
func NewCollector(engine *Engine) *Collector {
	return &Collector{
		engine:          engine,
		ifaceSent:       prometheus.NewDesc("trafficgen_interface_sent_total", "Frames sent on an interface.", []string{"interface"}, nil),
		ifaceDropped:    prometheus.NewDesc("trafficgen_interface_dropped_total", "Frames dropped on an interface.", []string{"interface"}, nil),
		ifaceBytes:      prometheus.NewDesc("trafficgen_interface_bytes_total", "Bytes sent on an interface.", []string{"interface"}, nil),
		profileSent:     prometheus.NewDesc("trafficgen_profile_sent_total", "Frames sent by a profile's worker.", []string{"profile"}, nil),
		profileDropped:  prometheus.NewDesc("trafficgen_profile_dropped_total", "Frames dropped by a profile's worker.", []string{"profile"}, nil),
		poolInUse:       prometheus.NewDesc("trafficgen_pool_buffers_in_use", "Packet pool buffers currently allocated.", nil, nil),
		poolAllocs:      prometheus.NewDesc("trafficgen_pool_allocs_total", "Packet pool allocation count.", nil, nil),
		poolExhaustions: prometheus.NewDesc("trafficgen_pool_exhaustions_total", "Packet pool allocation failures due to exhaustion.", nil, nil),
	}
}

func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	descs <- c.ifaceSent
	descs <- c.ifaceDropped
	descs <- c.ifaceBytes
	descs <- c.profileSent
	descs <- c.profileDropped
	descs <- c.poolInUse
	descs <- c.poolAllocs
	descs <- c.poolExhaustions
}

func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	for _, cfg := range c.engine.Interfaces() {
		snap, ok := c.engine.InterfaceStats(cfg.Name)
		if !ok {
			continue
		}
		metrics <- prometheus.MustNewConstMetric(c.ifaceSent, prometheus.CounterValue, float64(snap.Sent), cfg.Name)
		metrics <- prometheus.MustNewConstMetric(c.ifaceDropped, prometheus.CounterValue, float64(snap.Dropped), cfg.Name)
		metrics <- prometheus.MustNewConstMetric(c.ifaceBytes, prometheus.CounterValue, float64(snap.BytesSent), cfg.Name)
	}

	for _, p := range c.engine.Profiles() {
		sent, dropped, ok := c.engine.ProfileStats(p.Name)
		if !ok {
			continue
		}
		metrics <- prometheus.MustNewConstMetric(c.profileSent, prometheus.CounterValue, float64(sent), p.Name)
		metrics <- prometheus.MustNewConstMetric(c.profileDropped, prometheus.CounterValue, float64(dropped), p.Name)
	}

	ps := c.engine.PoolStats()
	metrics <- prometheus.MustNewConstMetric(c.poolInUse, prometheus.GaugeValue, float64(ps.InUse))
	metrics <- prometheus.MustNewConstMetric(c.poolAllocs, prometheus.CounterValue, float64(ps.Allocs))
	metrics <- prometheus.MustNewConstMetric(c.poolExhaustions, prometheus.CounterValue, float64(ps.Exhaustions))
}
