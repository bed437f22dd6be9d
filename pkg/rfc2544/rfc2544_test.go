package rfc2544

import (
	"testing"
	"time"
)

// capTrial simulates a link with a hard capacity limit: any offered
// rate at or below capBps is lossless, anything above drops the
// excess proportionally.
func capTrial(capBps uint64) Trial {
	return func(_ string, rateBps uint64, frameSize int, _ time.Duration) (uint64, uint64, error) {
		offered := framesPerSecond(rateBps, frameSize)
		if rateBps <= capBps {
			return uint64(offered), uint64(offered), nil
		}
		sentFraction := float64(capBps) / float64(rateBps)
		return uint64(offered), uint64(offered * sentFraction), nil
	}
}

func TestThroughputFindsCapacity(t *testing.T) {
	const cap = 10_000_000
	h := New(Config{ThroughputStepBps: 50_000, TrialDuration: time.Millisecond}, capTrial(cap))

	results := h.Throughput("p1", 20_000_000, []int{512})
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	r := results[0]
	if r.Status != StatusOK {
		t.Fatalf("Status = %s, want ok (error: %s)", r.Status, r.Error)
	}
	const tolerance = 200_000 // one search step plus epsilon slack
	if r.MaxLosslessBps > cap+tolerance || r.MaxLosslessBps < cap-tolerance {
		t.Fatalf("MaxLosslessBps = %d, want within %d of %d", r.MaxLosslessBps, tolerance, cap)
	}
}

func TestThroughputInconclusiveWhenAlwaysLossy(t *testing.T) {
	lossy := func(_ string, rateBps uint64, frameSize int, _ time.Duration) (uint64, uint64, error) {
		offered := uint64(framesPerSecond(rateBps, frameSize))
		return offered, 0, nil
	}
	h := New(Config{ThroughputStepBps: 1_000_000, TrialDuration: time.Millisecond}, lossy)
	r := h.Throughput("p1", 10_000_000, []int{64})[0]
	if r.Status != StatusInconclusive {
		t.Fatalf("Status = %s, want inconclusive", r.Status)
	}
}

func TestFrameLossReportsEachLevel(t *testing.T) {
	h := New(Config{TrialDuration: time.Millisecond}, capTrial(5_000_000))
	r := h.FrameLoss("p1", 10_000_000, []int{128})[0]
	if r.Status != StatusOK {
		t.Fatalf("Status = %s, want ok", r.Status)
	}
	for _, pct := range frameLossLevels {
		if _, ok := r.LossAtRate[pct]; !ok {
			t.Fatalf("LossAtRate missing level %d", pct)
		}
	}
	if r.LossAtRate[10] > r.LossAtRate[100] {
		t.Fatalf("loss at 10%% (%v) > loss at 100%% (%v), want non-decreasing", r.LossAtRate[10], r.LossAtRate[100])
	}
}

type fakeTimestamps struct {
	n int
}

func (f *fakeTimestamps) SendOne(frameSize int) (time.Time, error) {
	f.n++
	return time.Now(), nil
}

func (f *fakeTimestamps) RecvOne() (time.Time, error) {
	return time.Now().Add(2 * time.Millisecond), nil
}

func TestLatencyReportsMinAvgMax(t *testing.T) {
	h := New(Config{LatencyFrames: 5, LatencyRateHz: 10000}, nil)
	r := h.Latency("p1", &fakeTimestamps{}, []int{64})[0]
	if r.Status != StatusOK {
		t.Fatalf("Status = %s, want ok", r.Status)
	}
	if r.MinLatencyMs <= 0 || r.AvgLatencyMs <= 0 || r.MaxLatencyMs <= 0 {
		t.Fatalf("expected positive latency stats, got min=%v avg=%v max=%v", r.MinLatencyMs, r.AvgLatencyMs, r.MaxLatencyMs)
	}
}

func TestBackToBackFindsCapacityBoundary(t *testing.T) {
	const capacity = 777
	burst := func(_ string, _, burstN int) (int, error) {
		if burstN <= capacity {
			return burstN, nil
		}
		return capacity, nil
	}
	h := New(Config{BackToBackTrials: 3}, nil)
	r := h.BackToBack("p1", burst, []int{64})[0]
	if r.Status != StatusOK {
		t.Fatalf("Status = %s, want ok", r.Status)
	}
	if r.MaxBurstFrames != capacity {
		t.Fatalf("MaxBurstFrames = %d, want %d", r.MaxBurstFrames, capacity)
	}
	if r.AvgBurstFrames != capacity {
		t.Fatalf("AvgBurstFrames = %v, want %v (deterministic burst fn)", r.AvgBurstFrames, float64(capacity))
	}
}

func TestResultsFiltersByProfile(t *testing.T) {
	h := New(Config{TrialDuration: time.Millisecond}, capTrial(1_000_000))
	h.Throughput("alpha", 2_000_000, []int{64})
	h.Throughput("beta", 2_000_000, []int{64})

	got := h.Results("alpha")
	if len(got) != 1 || got[0].Profile != "alpha" {
		t.Fatalf("Results(alpha) = %+v, want exactly one alpha result", got)
	}
}
