package rfc2544

import "fmt"

// BurstTrial sends burstN frames of frameSize back-to-back as fast as
// possible and reports how many were accepted for transmission.
type BurstTrial func(profileName string, frameSize, burstN int) (accepted int, err error)

// maxBurstSearch bounds the doubling phase of the back-to-back search.
const maxBurstSearch = 1 << 20

// BackToBack increases burst size per trial until loss occurs, then
// reports the largest lossless burst and the average over
// cfg.BackToBackTrials repetitions, per frame size.
func (h *Harness) BackToBack(profileName string, burst BurstTrial, frameSizes []int) []Result {
	var out []Result
	for _, fs := range frameSizes {
		out = append(out, h.backToBackOne(profileName, burst, fs))
	}
	return out
}

func (h *Harness) backToBackOne(profileName string, burst BurstTrial, frameSize int) Result {
	base := Result{Profile: profileName, Test: TestBackToBack, FrameSize: frameSize}

	var sum int
	maxSeen := 0

	for trial := 0; trial < h.cfg.BackToBackTrials; trial++ {
		n, err := h.largestLosslessBurst(profileName, burst, frameSize)
		if err != nil {
			base.Status = StatusAborted
			base.Error = fmt.Sprintf("back-to-back trial %d: %v", trial, err)
			h.record(base)
			return base
		}
		sum += n
		if n > maxSeen {
			maxSeen = n
		}
	}

	base.Status = StatusOK
	base.MaxBurstFrames = maxSeen
	base.AvgBurstFrames = float64(sum) / float64(h.cfg.BackToBackTrials)
	h.record(base)
	return base
}

// largestLosslessBurst doubles N until a burst drops a frame, then
// binary-searches between the last lossless size and the first lossy
// one.
func (h *Harness) largestLosslessBurst(profileName string, burst BurstTrial, frameSize int) (int, error) {
	lo := 0
	hi := 1

	for hi < maxBurstSearch {
		accepted, err := burst(profileName, frameSize, hi)
		if err != nil {
			return 0, err
		}
		if accepted < hi {
			break
		}
		lo = hi
		hi *= 2
	}
	if hi >= maxBurstSearch {
		return lo, nil
	}

	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		accepted, err := burst(profileName, frameSize, mid)
		if err != nil {
			return 0, err
		}
		if accepted >= mid {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, nil
}
