package rfc2544

import (
	"fmt"
	"sync"
	"time"

	"github.com/netgenlab/trafficgen/pkg/scheduler"
)

// Trial runs one profile at one rate/frame_size combination for
// duration and reports how many frames were offered and how many were
// actually accepted for transmission. Implementations typically wrap a
// scheduler.Worker: construct it at the trial rate, run it for
// duration, then read its Stats().
type Trial func(profileName string, rateBps uint64, frameSize int, duration time.Duration) (offered, sent uint64, err error)

// WorkerTrial adapts a profile template to Trial by spinning up a
// throwaway scheduler.Worker per trial, which is how the harness
// exercises real pacing and impairment behavior instead of a
// synthetic counter model.
func WorkerTrial(base scheduler.Profile, send scheduler.Sender) Trial {
	return func(profileName string, rateBps uint64, frameSize int, duration time.Duration) (uint64, uint64, error) {
		p := base
		p.Name = profileName
		p.RateBps = rateBps
		p.FrameSize = frameSize

		w, err := scheduler.NewWorker(p, send, nil)
		if err != nil {
			return 0, 0, fmt.Errorf("rfc2544: build trial worker: %w", err)
		}

		go w.Run()
		time.Sleep(duration)
		w.Stop()

		sent, dropped := w.Stats()
		offered := sent + dropped
		return offered, sent, nil
	}
}

// Harness drives RFC 2544 tests for a bound profile using a Trial to
// generate load and read back counters.
type Harness struct {
	cfg   Config
	trial Trial

	mu      sync.Mutex
	results map[resultKey]Result
}

type resultKey struct {
	profile   string
	test      TestKind
	frameSize int
}

// New builds a harness with the given config (zero value uses RFC 2544
// defaults) driving load through trial.
func New(cfg Config, trial Trial) *Harness {
	return &Harness{
		cfg:     cfg.withDefaults(),
		trial:   trial,
		results: make(map[resultKey]Result),
	}
}

func (h *Harness) record(r Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results[resultKey{r.Profile, r.Test, r.FrameSize}] = r
}

// Results returns every stored result for the named profile.
func (h *Harness) Results(profileName string) []Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Result
	for k, r := range h.results {
		if k.profile == profileName {
			out = append(out, r)
		}
	}
	return out
}

// lossRatio computes fraction dropped from an (offered, sent) pair.
func lossRatio(offered, sent uint64) float64 {
	if offered == 0 {
		return 0
	}
	return float64(offered-sent) / float64(offered)
}

func framesPerSecond(rateBps uint64, frameSize int) float64 {
	bits := float64(frameSize) * 8
	if bits == 0 {
		return 0
	}
	return float64(rateBps) / bits
}
