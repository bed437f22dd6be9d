package tcpengine

import (
	"sync"
	"time"
)

// slot holds one connection's full state. Each slot owns its own mutex
// so the sweeper and the engine's read/write paths can each lock a
// single connection without contending on the tuple map's lock.
type slot struct {
	mu sync.Mutex

	inUse bool
	tuple FourTuple
	state State

	sndNxt uint32
	sndUna uint32
	rcvNxt uint32
	window uint16
	mss    uint16

	unacked    []*segment
	outOfOrder map[uint32][]byte

	rto      *rtoEstimator
	retries  int
	closedAt time.Time

	lastTouched time.Time
}

func newSlot() *slot {
	return &slot{
		rto:        newRTOEstimator(),
		outOfOrder: make(map[uint32][]byte),
	}
}

func (s *slot) reset() {
	s.inUse = false
	s.tuple = FourTuple{}
	s.state = StateClosed
	s.sndNxt = 0
	s.sndUna = 0
	s.rcvNxt = 0
	s.window = 0
	s.mss = 0
	s.unacked = s.unacked[:0]
	for k := range s.outOfOrder {
		delete(s.outOfOrder, k)
	}
	s.rto = newRTOEstimator()
	s.retries = 0
	s.closedAt = time.Time{}
}

func (s *slot) snapshot() Snapshot {
	return Snapshot{
		State:      s.state,
		Tuple:      s.tuple,
		SndNxt:     s.sndNxt,
		RcvNxt:     s.rcvNxt,
		SRTT:       s.rto.srtt,
		RTO:        s.rto.current(),
		Retries:    s.retries,
		UnackedLen: len(s.unacked),
	}
}
