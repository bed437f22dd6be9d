package impair

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
)

// Sink is the downstream consumer a Pipeline hands surviving frames to —
// normally an interface's batched send path.
type Sink func(frame []byte)

// Pipeline applies loss, duplication, corruption, delay/jitter/reorder
// and rate limiting to frames passed through Submit, in that fixed
// order, then calls Sink once per surviving frame (possibly from a
// different goroutine than the caller, when the frame is delayed).
type Pipeline struct {
	cfg    Config
	sink   Sink
	loss   *burstLoss
	bucket *tokenBucket

	mu    sync.Mutex
	queue *delayQueue

	stopCh chan struct{}
	doneCh chan struct{}

	processed  atomic.Uint64
	dropped    atomic.Uint64
	duplicated atomic.Uint64
	corrupted  atomic.Uint64
	delayed    atomic.Uint64
	reordered  atomic.Uint64
	queueDrops atomic.Uint64
}

// New builds a Pipeline bound to sink and starts its delay-queue
// dispatcher goroutine. Call Close to stop it.
func New(cfg Config, sink Sink) *Pipeline {
	cfg = cfg.withDefaults()
	p := &Pipeline{
		cfg:    cfg,
		sink:   sink,
		loss:   newBurstLoss(cfg),
		queue:  newDelayQueue(cfg.QueueBound),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	if cfg.BandwidthCapBps > 0 {
		p.bucket = newTokenBucket(cfg.BandwidthCapBps, cfg.BucketBytes)
	}
	go p.dispatch()
	return p
}

// Submit runs one frame through the pipeline. The frame must not be
// mutated by the caller afterward if corruption or duplication may
// apply to it; Submit takes ownership of the slice it's given.
func (p *Pipeline) Submit(frame []byte) {
	p.processed.Add(1)

	if p.loss.shouldDrop() {
		p.dropped.Add(1)
		return
	}

	if p.cfg.DupP > 0 && rand.Float64() < p.cfg.DupP {
		p.duplicated.Add(1)
		dup := append([]byte(nil), frame...)
		p.emit(dup)
	}

	if p.cfg.CorruptP > 0 && rand.Float64() < p.cfg.CorruptP {
		frame = corrupt(frame, p.cfg.CorruptionOffset)
		p.corrupted.Add(1)
	}

	p.emit(frame)
}

func (p *Pipeline) emit(frame []byte) {
	if p.cfg.LatencyMS > 0 || p.cfg.JitterMS > 0 {
		p.enqueueDelayed(frame)
		return
	}
	p.rateLimitedSend(frame)
}

func (p *Pipeline) enqueueDelayed(frame []byte) {
	jitter := 0.0
	if p.cfg.JitterMS > 0 {
		jitter = (rand.Float64()*2 - 1) * p.cfg.JitterMS
	}
	delay := p.cfg.LatencyMS + jitter
	if delay < 0 {
		delay = 0
	}
	due := time.Now().Add(time.Duration(delay * float64(time.Millisecond)))

	doReorder := p.cfg.ReorderP > 0 && rand.Float64() < p.cfg.ReorderP

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.queue.full() {
		p.queueDrops.Add(1)
		return
	}
	p.delayed.Add(1)
	if doReorder {
		p.reordered.Add(1)
	}
	p.queue.add(&delayedFrame{frame: frame, dueAt: due}, p.cfg.ReorderGap, doReorder)
}

func (p *Pipeline) dispatch() {
	defer close(p.doneCh)
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case now := <-ticker.C:
			for {
				p.mu.Lock()
				item, ok := p.queue.peekDue(now)
				p.mu.Unlock()
				if !ok {
					break
				}
				p.rateLimitedSend(item.frame)
			}
		}
	}
}

func (p *Pipeline) rateLimitedSend(frame []byte) {
	if p.bucket != nil {
		if wait := p.bucket.wait(len(frame)); wait > 0 {
			time.Sleep(wait)
		}
	}
	p.sink(frame)
}

// Close stops the delay-queue dispatcher. Frames still queued are
// dropped silently; callers that need graceful drain should stop
// submitting and wait for the queue to empty before calling Close.
func (p *Pipeline) Close() {
	close(p.stopCh)
	<-p.doneCh
}

// Stats returns a point-in-time snapshot of pipeline counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Processed:  p.processed.Load(),
		Dropped:    p.dropped.Load(),
		Duplicated: p.duplicated.Load(),
		Corrupted:  p.corrupted.Load(),
		Delayed:    p.delayed.Load(),
		Reordered:  p.reordered.Load(),
		QueueDrops: p.queueDrops.Load(),
	}
}

func corrupt(frame []byte, offset int) []byte {
	if offset < 0 || offset >= len(frame) {
		return frame
	}
	out := append([]byte(nil), frame...)
	bit := rand.IntN(8)
	out[offset] ^= 1 << bit
	return out
}
