package rfc2544

import "fmt"

// Throughput bisects [0, nominalRateBps] per frame size, keeping the
// highest trial rate whose observed frame-loss ratio is at or below
// h.cfg.Epsilon, and stops once the search interval is no wider than
// h.cfg.ThroughputStepBps.
func (h *Harness) Throughput(profileName string, nominalRateBps uint64, frameSizes []int) []Result {
	var out []Result
	for _, fs := range frameSizes {
		out = append(out, h.throughputOne(profileName, nominalRateBps, fs))
	}
	return out
}

func (h *Harness) throughputOne(profileName string, nominalRateBps uint64, frameSize int) Result {
	base := Result{Profile: profileName, Test: TestThroughput, FrameSize: frameSize}

	lo, hi := uint64(0), nominalRateBps
	var best uint64

	for hi-lo > h.cfg.ThroughputStepBps {
		mid := lo + (hi-lo)/2

		offered, sent, err := h.trial(profileName, mid, frameSize, h.cfg.TrialDuration)
		if err != nil {
			base.Status = StatusAborted
			base.Error = fmt.Sprintf("throughput trial at %d bps: %v", mid, err)
			h.record(base)
			return base
		}

		if lossRatio(offered, sent) <= h.cfg.Epsilon {
			best = mid
			lo = mid
		} else {
			hi = mid
		}
	}

	if best == 0 {
		base.Status = StatusInconclusive
		base.Error = "no trial rate met the loss threshold"
		h.record(base)
		return base
	}

	base.Status = StatusOK
	base.MaxLosslessBps = best
	h.record(base)
	return base
}
