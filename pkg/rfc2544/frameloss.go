package rfc2544

import "fmt"

// frameLossLevels is the standard RFC 2544 percentage-of-max-rate sweep.
var frameLossLevels = []int{10, 25, 50, 75, 90, 100}

// FrameLoss measures loss percentage at each level in frameLossLevels
// relative to maxRateBps, per frame size.
func (h *Harness) FrameLoss(profileName string, maxRateBps uint64, frameSizes []int) []Result {
	var out []Result
	for _, fs := range frameSizes {
		out = append(out, h.frameLossOne(profileName, maxRateBps, fs))
	}
	return out
}

func (h *Harness) frameLossOne(profileName string, maxRateBps uint64, frameSize int) Result {
	base := Result{
		Profile:    profileName,
		Test:       TestFrameLoss,
		FrameSize:  frameSize,
		LossAtRate: make(map[int]float64, len(frameLossLevels)),
	}

	for _, pct := range frameLossLevels {
		rate := maxRateBps * uint64(pct) / 100

		offered, sent, err := h.trial(profileName, rate, frameSize, h.cfg.TrialDuration)
		if err != nil {
			base.Status = StatusAborted
			base.Error = fmt.Sprintf("frame-loss trial at %d%%: %v", pct, err)
			h.record(base)
			return base
		}

		base.LossAtRate[pct] = lossRatio(offered, sent) * 100
	}

	base.Status = StatusOK
	h.record(base)
	return base
}
