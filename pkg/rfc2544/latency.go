package rfc2544

import (
	"fmt"
	"time"
)

// TimestampSource reports send and receive timestamps for one probe
// frame; a real deployment wires SendOne to an interface's TX path
// (hardware timestamp if available) and RecvOne to the matching RX
// timestamp read from the peer's reflector.
type TimestampSource interface {
	SendOne(frameSize int) (sentAt time.Time, err error)
	RecvOne() (recvAt time.Time, err error)
}

// Latency sends cfg.LatencyFrames frames at cfg.LatencyRateHz and
// reports min/avg/max one-way latency in milliseconds, per frame size.
func (h *Harness) Latency(profileName string, ts TimestampSource, frameSizes []int) []Result {
	var out []Result
	for _, fs := range frameSizes {
		out = append(out, h.latencyOne(profileName, ts, fs))
	}
	return out
}

func (h *Harness) latencyOne(profileName string, ts TimestampSource, frameSize int) Result {
	base := Result{Profile: profileName, Test: TestLatency, FrameSize: frameSize}
	interval := time.Duration(float64(time.Second) / h.cfg.LatencyRateHz)

	var samples []float64
	deadline := time.Now().Add(h.cfg.IntegrationWindow)

	for i := 0; i < h.cfg.LatencyFrames; i++ {
		if time.Now().After(deadline) {
			base.Status = StatusAborted
			base.Error = "latency test exceeded integration window"
			h.record(base)
			return base
		}

		sentAt, err := ts.SendOne(frameSize)
		if err != nil {
			base.Status = StatusAborted
			base.Error = fmt.Sprintf("send probe %d: %v", i, err)
			h.record(base)
			return base
		}
		recvAt, err := ts.RecvOne()
		if err != nil {
			base.Status = StatusAborted
			base.Error = fmt.Sprintf("recv probe %d: %v", i, err)
			h.record(base)
			return base
		}

		samples = append(samples, float64(recvAt.Sub(sentAt).Microseconds())/1000)
		time.Sleep(interval)
	}

	if len(samples) == 0 {
		base.Status = StatusInconclusive
		h.record(base)
		return base
	}

	min, max, sum := samples[0], samples[0], 0.0
	for _, s := range samples {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
		sum += s
	}

	base.Status = StatusOK
	base.MinLatencyMs = min
	base.MaxLatencyMs = max
	base.AvgLatencyMs = sum / float64(len(samples))
	h.record(base)
	return base
}
