//go:build linux

package iface

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Interface is one admitted port. Init puts it in ModeAccelerated when
// its Config requests it and ring setup succeeds, and otherwise leaves it
// in ModeOptimized, logging the reason. The mode does not change after
// Init; a frame the ring cannot take goes out through sendto instead.
type Interface struct {
	cfg     Config
	fd      int
	ifindex int

	mu   sync.RWMutex
	mode Mode
	ring *txRing

	hwTimestamp bool
	lastTX      atomic.Int64 // wall-clock Unix ns of the most recent TX sample

	sent    atomic.Uint64
	dropped atomic.Uint64
	bytes   atomic.Uint64

	reclassifyLog []string
	logMu         sync.Mutex
}

// Init opens the underlying raw socket, applies buffer and timestamping
// options, and — if the config requests it and the kernel supports it —
// attempts the accelerated ring path.
func Init(cfg Config) (*Interface, error) {
	cfg = cfg.withDefaults()

	fd, ifindex, err := openRawSocket(cfg)
	if err != nil {
		return nil, err
	}

	iface := &Interface{
		cfg:         cfg,
		fd:          fd,
		ifindex:     ifindex,
		mode:        ModeOptimized,
		hwTimestamp: tryEnableHWTimestamping(fd),
	}

	if probeAcceleration(cfg.InterfaceType) {
		ring, err := setupTXRing(fd, cfg.TXRingFrames)
		if err != nil {
			iface.recordReclassify(fmt.Sprintf("accelerated ring setup failed: %v", err))
		} else {
			iface.mode = ModeAccelerated
			iface.ring = ring
		}
	}

	return iface, nil
}

func (i *Interface) recordReclassify(reason string) {
	logrus.WithField("iface", i.cfg.Name).WithField("reason", reason).
		Warn("iface: reclassifying to optimized path")
	i.logMu.Lock()
	i.reclassifyLog = append(i.reclassifyLog, reason)
	i.logMu.Unlock()
}

// Mode reports the interface's current dispatch strategy.
func (i *Interface) Mode() Mode {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.mode
}

// Name returns the OS device name this interface wraps.
func (i *Interface) Name() string { return i.cfg.Name }

// Close releases the socket and any ring mapping.
func (i *Interface) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.ring.close()
	return closeFD(i.fd)
}

// ReadTXTimestamp returns the most recent transmit timestamp, in
// wall-clock Unix nanoseconds, and whether one has been recorded yet.
func (i *Interface) ReadTXTimestamp() (ns int64, ok bool) {
	v := i.lastTX.Load()
	if v == 0 {
		return 0, false
	}
	return v, true
}

// Stats returns a point-in-time snapshot of this interface's counters.
func (i *Interface) Stats() Snapshot {
	i.mu.RLock()
	mode := i.mode
	i.mu.RUnlock()

	i.logMu.Lock()
	logCopy := append([]string(nil), i.reclassifyLog...)
	i.logMu.Unlock()

	return Snapshot{
		Name:          i.cfg.Name,
		Mode:          mode.String(),
		HWTimestamp:   i.hwTimestamp,
		Sent:          i.sent.Load(),
		Dropped:       i.dropped.Load(),
		BytesSent:     i.bytes.Load(),
		LastTXTimeNs:  i.lastTX.Load(),
		ReclassifyLog: logCopy,
	}
}

// monotonicNow returns wall-clock Unix nanoseconds; UnixNano carries no
// monotonic clock reading.
func monotonicNow() int64 {
	return time.Now().UnixNano()
}
