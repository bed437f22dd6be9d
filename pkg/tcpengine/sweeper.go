package tcpengine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/netgenlab/trafficgen/pkg/codec"
)

// sweepLoop runs at 10Hz, retransmitting segments whose RTO has
// elapsed (up to maxRetries before the connection is forced CLOSED),
// and reaping CLOSED connections and TIME_WAIT connections older than
// 2*MSL back onto the free queue.
func (e *Engine) sweepLoop() {
	defer close(e.doneCh)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.sweepOnce()
		}
	}
}

func (e *Engine) sweepOnce() {
	now := time.Now()
	for i, s := range e.slots {
		id := SlotID(i)
		s.mu.Lock()
		if !s.inUse {
			s.mu.Unlock()
			continue
		}

		switch s.state {
		case StateClosed:
			tuple := s.tuple
			s.reset()
			s.mu.Unlock()
			e.tupleMu.Lock()
			delete(e.tuples, tuple)
			e.tupleMu.Unlock()
			e.closed.Add(1)
			e.free <- id
			continue
		case StateTimeWait:
			if now.Sub(s.closedAt) >= timeWaitDuration {
				tuple := s.tuple
				s.reset()
				s.mu.Unlock()
				e.tupleMu.Lock()
				delete(e.tuples, tuple)
				e.tupleMu.Unlock()
				e.closed.Add(1)
				e.free <- id
				continue
			}
		default:
			e.retransmitDue(id, s, now)
		}
		s.mu.Unlock()
	}
}

// retransmitDue must be called with s.mu held.
func (e *Engine) retransmitDue(id SlotID, s *slot, now time.Time) {
	if len(s.unacked) == 0 {
		return
	}
	oldest := s.unacked[0]
	if now.Sub(oldest.sentAt) < s.rto.current() {
		return
	}

	if s.retries >= maxRetries {
		tuple := s.tuple
		s.reset()
		e.tupleMu.Lock()
		delete(e.tuples, tuple)
		e.tupleMu.Unlock()
		logrus.WithField("slot", id).Warn("tcpengine: connection abandoned after max retries")
		e.closed.Add(1)
		e.free <- id
		return
	}

	s.retries++
	s.rto.backoff()
	oldest.sentAt = now
	oldest.retries++
	sndNxt := s.sndNxt
	s.sndNxt = oldest.seq
	frame, err := e.buildSegment(s, codec.TCPFlagACK|codec.TCPFlagPSH, oldest.data, nil)
	s.sndNxt = sndNxt
	if err == nil {
		e.send.SendBatch([][]byte{frame})
		e.retransmits.Add(1)
	}
}
