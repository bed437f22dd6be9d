package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/netgenlab/trafficgen/pkg/control"
	"github.com/netgenlab/trafficgen/pkg/rfc2544"
)

type rfc2544StartRequest struct {
	Profile        string   `json:"profile"`
	Tests          []string `json:"tests"` // "throughput", "latency", "frame_loss", "back_to_back"
	FrameSizes     []int    `json:"frame_sizes"`
	NominalRateBps uint64   `json:"nominal_rate_bps"`
}

// ifaceTimestampSource adapts an admitted interface to
// rfc2544.TimestampSource, measuring send-call-to-TX-timestamp as a
// single-ended proxy for one-way latency: valid when source and sink
// share this process's clock domain, which is the only topology this
// engine can self-test without a second collector process.
type ifaceTimestampSource struct {
	send   control.TimestampingSender
	filler []byte
}

func (ts *ifaceTimestampSource) SendOne(frameSize int) (time.Time, error) {
	frame := ts.filler
	if len(frame) < frameSize {
		frame = make([]byte, frameSize)
	}
	if ts.send.SendBatch([][]byte{frame[:frameSize]}) == 0 {
		return time.Time{}, fmt.Errorf("rfc2544: send rejected")
	}
	return time.Now(), nil
}

func (ts *ifaceTimestampSource) RecvOne() (time.Time, error) {
	if ns, ok := ts.send.ReadTXTimestamp(); ok {
		return time.Unix(0, ns), nil
	}
	return time.Now(), nil
}

func (s *Server) harnessFor(profileName string) (*rfc2544.Harness, control.TimestampingSender, error) {
	p, ok := s.engine.Profile(profileName)
	if !ok {
		return nil, nil, fmt.Errorf("api: profile %s not found", profileName)
	}
	send, ok := s.engine.Sender(p.SrcInterface)
	if !ok {
		return nil, nil, fmt.Errorf("api: profile %s: source interface %s not admitted", profileName, p.SrcInterface)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.harness[profileName]
	if !ok {
		h = rfc2544.New(rfc2544.Config{}, rfc2544.WorkerTrial(p, send))
		s.harness[profileName] = h
	}
	return h, send, nil
}

func (s *Server) startRFC2544(w http.ResponseWriter, r *http.Request) {
	var req rfc2544StartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Profile == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("api: profile is required"))
		return
	}
	frameSizes := req.FrameSizes
	if len(frameSizes) == 0 {
		frameSizes = rfc2544.FrameSizes
	}

	h, send, err := s.harnessFor(req.Profile)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	nominal := req.NominalRateBps
	if nominal == 0 {
		nominal = 1_000_000_000
	}

	var results []rfc2544.Result
	for _, kind := range req.Tests {
		switch rfc2544.TestKind(kind) {
		case rfc2544.TestThroughput:
			results = append(results, h.Throughput(req.Profile, nominal, frameSizes)...)
		case rfc2544.TestFrameLoss:
			results = append(results, h.FrameLoss(req.Profile, nominal, frameSizes)...)
		case rfc2544.TestLatency:
			ts := &ifaceTimestampSource{send: send, filler: make([]byte, 1518)}
			results = append(results, h.Latency(req.Profile, ts, frameSizes)...)
		case rfc2544.TestBackToBack:
			burst := rfc2544.SenderBurstTrial(send, 0)
			results = append(results, h.BackToBack(req.Profile, burst, frameSizes)...)
		default:
			writeError(w, http.StatusBadRequest, fmt.Errorf("api: unknown rfc2544 test %q", kind))
			return
		}
	}

	writeJSON(w, http.StatusOK, results)
}

func (s *Server) rfc2544Results(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s.mu.Lock()
	h, ok := s.harness[name]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("api: no rfc2544 results for profile %s", name))
		return
	}
	writeJSON(w, http.StatusOK, h.Results(name))
}
