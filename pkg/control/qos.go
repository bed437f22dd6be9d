package control

import (
	"fmt"
	"time"

	"github.com/netgenlab/trafficgen/pkg/codec"
)

// QoSCase pins one profile to an expected DSCP marking for the
// duration of a scenario run.
type QoSCase struct {
	Profile      string `json:"profile"`
	ExpectedDSCP uint8  `json:"expected_dscp"`
}

// QoSMismatch reports one profile whose configured DSCP does not match
// its expected marking.
type QoSMismatch struct {
	Profile      string `json:"profile"`
	ExpectedDSCP uint8  `json:"expected_dscp"`
	ExpectedPHB  string `json:"expected_phb"`
	ActualDSCP   uint8  `json:"actual_dscp"`
	ActualPHB    string `json:"actual_phb"`
}

// QoSResult is RunQoSScenario's return value, backing POST
// /api/qos/test.
type QoSResult struct {
	Duration   time.Duration `json:"duration"`
	Mismatches []QoSMismatch `json:"mismatches"`
}

// RunQoSScenario starts the named profiles (each presumed already
// defined with its intended DSCP marking), lets them run for duration,
// and reports any profile whose live configuration's DSCP no longer
// matches the case's expected value — catching drift introduced by a
// concurrent profile edit during the run, since this engine does not
// inspect its own emitted frames.
func (e *Engine) RunQoSScenario(cases []QoSCase, duration time.Duration) (QoSResult, error) {
	for _, c := range cases {
		if err := e.SetEnabled(c.Profile, true); err != nil {
			return QoSResult{}, fmt.Errorf("control: qos scenario: %w", err)
		}
	}
	if err := e.StartTraffic(); err != nil {
		return QoSResult{}, fmt.Errorf("control: qos scenario: %w", err)
	}

	time.Sleep(duration)

	return QoSResult{Duration: duration, Mismatches: e.qosMismatches(cases)}, nil
}

// qosMismatches compares each case's expected DSCP against the
// profile's live configuration. Split out from RunQoSScenario so the
// comparison itself can be tested without spinning up real traffic.
func (e *Engine) qosMismatches(cases []QoSCase) []QoSMismatch {
	var mismatches []QoSMismatch
	for _, c := range cases {
		p, ok := e.Profile(c.Profile)
		if !ok {
			continue
		}
		if p.DSCP != c.ExpectedDSCP {
			mismatches = append(mismatches, QoSMismatch{
				Profile:      c.Profile,
				ExpectedDSCP: c.ExpectedDSCP,
				ExpectedPHB:  codec.PHBName(c.ExpectedDSCP),
				ActualDSCP:   p.DSCP,
				ActualPHB:    codec.PHBName(p.DSCP),
			})
		}
	}
	return mismatches
}
