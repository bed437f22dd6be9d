package scheduler

import (
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/netgenlab/trafficgen/pkg/impair"
	"github.com/netgenlab/trafficgen/pkg/pool"
)

// Sender is the minimal interface a worker needs from an interface: a
// best-effort batched transmit returning the count accepted.
type Sender interface {
	SendBatch(packets [][]byte) int
}

// joinTimeout bounds how long Stop waits for a worker to exit at its own
// next batch boundary before giving up.
const joinTimeout = 2 * time.Second

// Worker paces one profile's template replication through its
// impairment pipeline to its destination interface.
type Worker struct {
	id      xid.ID
	profile Profile
	send    Sender
	pool    *pool.Pool

	running atomic.Bool
	doneCh  chan struct{}

	pipeline *impair.Pipeline

	templateHandle pool.Handle
	template       []byte

	// templates holds the IMIX round-robin frame set when the profile
	// names a preset; nil otherwise, in which case template is the sole
	// frame replicated every batch.
	templates   [][]byte
	templateIdx int

	dropped atomic.Uint64
	sent    atomic.Uint64
}

// NewWorker pre-builds the profile's template frame into a buffer
// borrowed from pl (held for the worker's lifetime; a heap copy when pl
// is nil or exhausted) or, for an IMIX profile, one heap-allocated
// template per size in its preset's cycle, and constructs the
// impairment pipeline that feeds sink via send.
func NewWorker(profile Profile, send Sender, pl *pool.Pool) (*Worker, error) {
	w := &Worker{
		id:      xid.New(),
		profile: profile,
		send:    send,
		pool:    pl,
		doneCh:  make(chan struct{}),
	}

	if sizes := imixFrameSizes(profile.IMIXPreset); len(sizes) > 0 {
		for _, size := range sizes {
			t, err := profile.buildTemplateSized(size)
			if err != nil {
				return nil, err
			}
			w.templates = append(w.templates, t)
		}
		w.template = w.templates[0]
	} else {
		template, err := profile.buildTemplate()
		if err != nil {
			return nil, err
		}

		if pl != nil {
			if h, buf, ok := pl.Alloc(); ok && len(buf) >= len(template) {
				copy(buf, template)
				w.templateHandle = h
				w.template = buf[:len(template):len(template)]
			}
		}
		if w.template == nil {
			// No pool, or pool exhausted: fall back to a plain heap copy
			// so the profile still runs, at the cost of one allocation
			// for its lifetime.
			w.template = template
		}
	}

	w.pipeline = impair.New(profile.Impair, func(frame []byte) {
		sent := send.SendBatch([][]byte{frame})
		w.sent.Add(uint64(sent))
		if sent == 0 {
			w.dropped.Add(1)
		}
	})

	return w, nil
}

// pacing computes pps, interval_ns and the rate-tiered batch size for
// the profile's target bit rate and frame size.
func (w *Worker) pacing() (pps float64, interval time.Duration, batch int) {
	frameBits := float64(w.avgFrameLen()) * 8
	if frameBits == 0 {
		frameBits = 1
	}
	pps = float64(w.profile.RateBps) / frameBits
	if pps <= 0 {
		pps = 1
	}
	interval = time.Duration(float64(time.Second) / pps)

	switch {
	case pps > 100_000:
		batch = 128
	case pps > 10_000:
		batch = 64
	default:
		batch = 32
	}
	if w.profile.BatchCeiling > 0 && batch > w.profile.BatchCeiling {
		batch = w.profile.BatchCeiling
	}
	return pps, interval, batch
}

// avgFrameLen returns the frame length pacing should bill against: the
// single template's length normally, or the mean of the IMIX cycle's
// frame sizes when one is in use.
func (w *Worker) avgFrameLen() int {
	if len(w.templates) == 0 {
		return len(w.template)
	}
	total := 0
	for _, t := range w.templates {
		total += len(t)
	}
	return total / len(w.templates)
}

// nextTemplate returns the frame to emit for this iteration: the sole
// template normally, or the next frame in the IMIX round-robin cycle.
func (w *Worker) nextTemplate() []byte {
	if len(w.templates) == 0 {
		return w.template
	}
	t := w.templates[w.templateIdx%len(w.templates)]
	w.templateIdx++
	return t
}

// Run drives the pacing loop until Stop is called. It is meant to run in
// its own goroutine; the caller joins via Stop.
func (w *Worker) Run() {
	w.running.Store(true)
	defer close(w.doneCh)
	defer w.pipeline.Close()
	defer w.releaseTemplate()

	pps, interval, batch := w.pacing()
	batchInterval := interval * time.Duration(batch)

	log := logrus.WithField("profile", w.profile.Name).WithField("worker", w.id.String())
	log.WithField("pps", pps).WithField("batch", batch).Info("scheduler: worker started")

	nextEmit := time.Now()
	for w.running.Load() {
		now := time.Now()
		if now.Before(nextEmit) {
			w.wait(nextEmit.Sub(now), pps)
			continue
		}

		for i := 0; i < batch; i++ {
			w.pipeline.Submit(append([]byte(nil), w.nextTemplate()...))
		}
		nextEmit = nextEmit.Add(batchInterval)

		if time.Now().After(nextEmit) {
			// Drifted past schedule; rebase instead of trying to catch up
			// beyond this one batch.
			nextEmit = time.Now().Add(batchInterval)
		}
	}
	log.Info("scheduler: worker stopped")
}

// wait blocks until d has elapsed. Sub-1kHz profiles sleep for all but
// the last millisecond and busy-poll the remainder for tighter pacing;
// higher rates spin on the clock from the start, since the runtime's
// sleep granularity is coarser than their inter-batch interval.
func (w *Worker) wait(d time.Duration, pps float64) {
	deadline := time.Now().Add(d)
	if pps < 1000 && d > time.Millisecond {
		time.Sleep(d - time.Millisecond)
	}
	for time.Now().Before(deadline) {
	}
}

func (w *Worker) releaseTemplate() {
	if w.pool != nil && w.templateHandle != 0 {
		w.pool.Free(w.templateHandle)
	}
}

// Stop signals the worker to exit at its next batch boundary and waits
// up to joinTimeout; if it does not exit in time Stop returns anyway
// (the caller treats this as a forced-termination event).
func (w *Worker) Stop() {
	w.running.Store(false)
	select {
	case <-w.doneCh:
	case <-time.After(joinTimeout):
		logrus.WithField("profile", w.profile.Name).Warn("scheduler: worker did not stop within join timeout, forcing termination")
	}
}

// Stats reports cumulative send/drop counters for this worker.
func (w *Worker) Stats() (sent, dropped uint64) {
	return w.sent.Load(), w.dropped.Load()
}
