// Package pool implements the fixed-capacity packet buffer arena shared by
// every profile worker and the interface transmit path. Buffers are
// preallocated once at startup, backed by a huge-page mapping when the
// kernel supports it, and handed out by index through a bounded free-list
// so steady-state traffic generation never touches the Go allocator.
package pool

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// DefaultCapacity and DefaultBufferSize match the engine's default memory
// budget: 16384 buffers of 2048 bytes each (32MiB), enough headroom for a
// jumbo frame plus VXLAN/MPLS/Q-in-Q encapsulation overhead.
const (
	DefaultCapacity   = 16384
	DefaultBufferSize = 2048

	hugePageSize = 2 << 20 // 2MiB
)

// Handle is an opaque reference to a borrowed buffer. The zero Handle is
// never valid; Pool.Alloc returns ok=false instead of handing one out.
// Handle values are the free-list index plus one, so index 0 (a buffer
// Alloc legitimately hands out on a fresh pool) never collides with the
// zero value callers use as "no handle borrowed".
type Handle uint32

// Pool is a fixed-size arena of equally sized packet buffers. It never
// grows: once Capacity buffers are in use, further Alloc calls report
// exhaustion so callers (the scheduler, the TCP engine) can apply
// backpressure instead of forcing a heap allocation onto the hot path.
type Pool struct {
	arena    []byte
	bufSize  int
	capacity int
	hugePage bool

	free chan uint32 // indices currently available for Alloc

	allocs   atomic.Uint64
	frees    atomic.Uint64
	exhausts atomic.Uint64
}

// New builds a Pool of capacity buffers, each bufSize bytes. It first
// attempts an anonymous mmap with MAP_HUGETLB; on any failure (no
// hugepages reserved, unsupported platform) it falls back to a plain
// anonymous mapping and logs the downgrade, since huge pages are a
// performance optimization, not a correctness requirement.
func New(capacity, bufSize int) (*Pool, error) {
	if capacity <= 0 || bufSize <= 0 {
		return nil, fmt.Errorf("pool: capacity and bufSize must be positive, got %d/%d", capacity, bufSize)
	}
	total := capacity * bufSize

	arena, hugePage, err := mapArena(total)
	if err != nil {
		return nil, fmt.Errorf("pool: map arena: %w", err)
	}

	p := &Pool{
		arena:    arena,
		bufSize:  bufSize,
		capacity: capacity,
		hugePage: hugePage,
		free:     make(chan uint32, capacity),
	}
	for i := 0; i < capacity; i++ {
		p.free <- uint32(i)
	}
	return p, nil
}

// mapArena maps `total` bytes anonymously, preferring huge pages.
func mapArena(total int) ([]byte, bool, error) {
	hugeFlags := unix.MAP_PRIVATE | unix.MAP_ANONYMOUS | unix.MAP_HUGETLB
	if mem, err := unix.Mmap(-1, 0, total, unix.PROT_READ|unix.PROT_WRITE, hugeFlags); err == nil {
		return mem, true, nil
	}
	logrus.WithField("bytes", total).Debug("pool: huge-page mapping unavailable, falling back to regular pages")

	plainFlags := unix.MAP_PRIVATE | unix.MAP_ANONYMOUS
	mem, err := unix.Mmap(-1, 0, total, unix.PROT_READ|unix.PROT_WRITE, plainFlags)
	if err != nil {
		return nil, false, err
	}
	return mem, false, nil
}

// Capacity reports the fixed number of buffers the pool holds.
func (p *Pool) Capacity() int { return p.capacity }

// BufferSize reports the fixed size of each buffer in bytes.
func (p *Pool) BufferSize() int { return p.bufSize }

// HugePage reports whether the arena is backed by huge pages.
func (p *Pool) HugePage() bool { return p.hugePage }

// Alloc borrows one buffer, returning its handle and a slice viewing its
// full capacity. ok is false when the pool is exhausted; the caller owns
// the returned slice exclusively until it calls Free.
func (p *Pool) Alloc() (h Handle, buf []byte, ok bool) {
	select {
	case idx := <-p.free:
		p.allocs.Add(1)
		return Handle(idx + 1), p.slice(idx), true
	default:
		p.exhausts.Add(1)
		return 0, nil, false
	}
}

// Free returns a handle to the pool. Freeing the zero Handle is a no-op.
// Freeing a handle not currently on loan, or freeing it twice, corrupts
// the free list; callers must track ownership precisely (the scheduler
// and TCP engine each own exactly one copy of a handle at a time).
func (p *Pool) Free(h Handle) {
	if h == 0 {
		return
	}
	p.frees.Add(1)
	p.free <- uint32(h) - 1
}

// View returns the buffer slice for a handle without consuming it from
// the free list. Used by callers that retain a handle across multiple
// operations (e.g. the TCP engine's unacked segment table). Calling View
// with the zero Handle is a caller error, same as Free.
func (p *Pool) View(h Handle) []byte {
	return p.slice(uint32(h) - 1)
}

func (p *Pool) slice(idx uint32) []byte {
	off := int(idx) * p.bufSize
	return p.arena[off : off+p.bufSize : off+p.bufSize]
}

// Stats is a point-in-time snapshot of pool activity, exported through the
// control surface's metrics collector.
type Stats struct {
	Capacity    int
	BufferSize  int
	HugePage    bool
	InUse       int
	Allocs      uint64
	Frees       uint64
	Exhaustions uint64
}

// Stats reports current pool utilization and cumulative counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Capacity:    p.capacity,
		BufferSize:  p.bufSize,
		HugePage:    p.hugePage,
		InUse:       p.capacity - len(p.free),
		Allocs:      p.allocs.Load(),
		Frees:       p.frees.Load(),
		Exhaustions: p.exhausts.Load(),
	}
}

// Close releases the arena mapping. Calling Alloc/Free after Close is
// undefined; callers must quiesce all borrowers first.
func (p *Pool) Close() error {
	return unix.Munmap(p.arena)
}
