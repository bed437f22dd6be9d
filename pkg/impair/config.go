// Package impair implements the stateful transducer that sits between
// template replication and an interface's send path: loss, duplication,
// corruption, delay/jitter/reorder, and bandwidth shaping, applied in
// that order to every frame that passes through.
package impair

// Config holds one profile's impairment parameters. All probabilities
// are in [0, 1]; zero disables the corresponding effect entirely.
type Config struct {
	LossP      float64 `json:"loss_p,omitempty"`       // per-frame random drop probability
	BurstLossP float64 `json:"burst_loss_p,omitempty"` // probability of entering a Gilbert-Elliott burst-loss run
	BurstLen   int     `json:"burst_len,omitempty"`    // frames dropped once a burst starts; default 3

	DupP float64 `json:"dup_p,omitempty"` // duplication probability

	CorruptP         float64 `json:"corrupt_p,omitempty"`         // single-bit corruption probability
	CorruptionOffset int     `json:"corruption_offset,omitempty"` // byte offset of the flipped bit; default 0

	LatencyMS float64 `json:"latency_ms,omitempty"` // base one-way delay
	JitterMS  float64 `json:"jitter_ms,omitempty"`  // uniform +/- jitter around LatencyMS

	ReorderP   float64 `json:"reorder_p,omitempty"`   // probability of swapping with a frame ReorderGap ahead
	ReorderGap int     `json:"reorder_gap,omitempty"` // positions ahead to swap with; default 3

	BandwidthCapBps uint64 `json:"bandwidth_cap_bps,omitempty"` // 0 disables rate limiting
	BucketBytes     uint64 `json:"bucket_bytes,omitempty"`      // token bucket capacity; defaults to one second at the cap

	QueueBound int `json:"queue_bound,omitempty"` // soft bound on the delay queue; default 4096
}

func (c Config) withDefaults() Config {
	if c.BurstLen <= 0 {
		c.BurstLen = 3
	}
	if c.ReorderGap <= 0 {
		c.ReorderGap = 3
	}
	if c.QueueBound <= 0 {
		c.QueueBound = 4096
	}
	if c.BandwidthCapBps > 0 && c.BucketBytes == 0 {
		c.BucketBytes = c.BandwidthCapBps / 8
	}
	return c
}

// Stats is a point-in-time snapshot of impairment activity.
type Stats struct {
	Processed  uint64
	Dropped    uint64
	Duplicated uint64
	Corrupted  uint64
	Delayed    uint64
	Reordered  uint64
	QueueDrops uint64
}
