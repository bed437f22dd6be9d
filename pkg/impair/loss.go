package impair

import "math/rand/v2"

// burstLoss implements a two-state Gilbert-Elliott Markov model: the
// "good" state applies the flat per-frame loss probability, and the
// "bad" (burst) state drops every frame for BurstLen frames once
// entered. Not safe for concurrent use; each pipeline owns one.
type burstLoss struct {
	cfg       Config
	inBurst   bool
	countdown int
}

func newBurstLoss(cfg Config) *burstLoss {
	return &burstLoss{cfg: cfg}
}

// shouldDrop advances the Markov state and reports whether the current
// frame should be dropped.
func (b *burstLoss) shouldDrop() bool {
	if b.inBurst {
		b.countdown--
		if b.countdown <= 0 {
			b.inBurst = false
		}
		return true
	}

	if b.cfg.BurstLossP > 0 && rand.Float64() < b.cfg.BurstLossP {
		// This frame is the first of the burst; BurstLen-1 more follow.
		b.countdown = b.cfg.BurstLen - 1
		b.inBurst = b.countdown > 0
		return true
	}

	return b.cfg.LossP > 0 && rand.Float64() < b.cfg.LossP
}
