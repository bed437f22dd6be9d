package tcpengine

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/netgenlab/trafficgen/pkg/codec"
)

// Engine owns a fixed pool of connection slots and drives their RFC 793
// state machines. Slots are claimed from a free queue on active open
// and returned to it once a connection reaches CLOSED (either by
// normal teardown or by the sweeper reaping an expired TIME_WAIT). When
// the free queue is empty, Connect forcibly reclaims the
// longest-idle ESTABLISHED slot rather than failing the new connection.
type Engine struct {
	slots []*slot
	free  chan SlotID

	tupleMu sync.RWMutex
	tuples  map[FourTuple]SlotID

	send Sender

	srcIP [4]byte

	stopCh chan struct{}
	doneCh chan struct{}

	opened      atomic.Uint64
	closed      atomic.Uint64
	forced      atomic.Uint64
	retransmits atomic.Uint64
}

// New builds an engine with the given slot capacity (DefaultCapacity if
// zero) transmitting through send, sourcing IPv4 packets from srcIP.
func New(capacity int, srcIP [4]byte, send Sender) *Engine {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	e := &Engine{
		slots:  make([]*slot, capacity),
		free:   make(chan SlotID, capacity),
		tuples: make(map[FourTuple]SlotID),
		send:   send,
		srcIP:  srcIP,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	for i := range e.slots {
		e.slots[i] = newSlot()
		e.free <- SlotID(i)
	}
	go e.sweepLoop()
	return e
}

// Connect claims a slot, sends the initial SYN with MSS/window-scale/SACK-
// permitted options, and moves the connection to SYN_SENT.
func (e *Engine) Connect(tuple FourTuple) (SlotID, error) {
	id, forced, err := e.claimSlot()
	if err != nil {
		return 0, err
	}
	if forced {
		e.forced.Add(1)
	}

	s := e.slots[id]
	s.mu.Lock()
	s.inUse = true
	s.tuple = tuple
	s.state = StateSynSent
	s.sndNxt = 1 // ISN; a real generator would randomize this
	s.sndUna = s.sndNxt
	s.mss = DefaultMSS
	s.window = 65535
	s.lastTouched = time.Now()
	frame, err := e.buildSegment(s, codec.TCPFlagSYN, nil, synOptions())
	if err == nil {
		s.sndNxt++
	}
	s.mu.Unlock()
	if err != nil {
		e.releaseSlot(id)
		return 0, err
	}

	e.tupleMu.Lock()
	e.tuples[tuple] = id
	e.tupleMu.Unlock()

	e.send.SendBatch([][]byte{frame})
	e.opened.Add(1)
	return id, nil
}

func synOptions() []codec.TCPOption {
	mss := make([]byte, 2)
	mss[0] = byte(DefaultMSS >> 8)
	mss[1] = byte(DefaultMSS)
	return []codec.TCPOption{
		{Kind: codec.TCPOptMSS, Data: mss},
		{Kind: codec.TCPOptWindowScale, Data: []byte{windowScaleShift}},
		{Kind: codec.TCPOptSACKPermit},
	}
}

func (e *Engine) claimSlot() (SlotID, bool, error) {
	select {
	case id := <-e.free:
		return id, false, nil
	default:
	}
	id, ok := e.oldestEstablished()
	if !ok {
		return 0, false, fmt.Errorf("tcpengine: no free slots and none reclaimable")
	}
	e.forceClose(id)
	return id, true, nil
}

func (e *Engine) oldestEstablished() (SlotID, bool) {
	var oldest SlotID
	var oldestTime time.Time
	found := false
	for i, s := range e.slots {
		s.mu.Lock()
		if s.inUse && s.state == StateEstablished {
			if !found || s.lastTouched.Before(oldestTime) {
				oldest = SlotID(i)
				oldestTime = s.lastTouched
				found = true
			}
		}
		s.mu.Unlock()
	}
	return oldest, found
}

func (e *Engine) forceClose(id SlotID) {
	s := e.slots[id]
	s.mu.Lock()
	tuple := s.tuple
	s.mu.Unlock()
	e.tupleMu.Lock()
	delete(e.tuples, tuple)
	e.tupleMu.Unlock()
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
	logrus.WithField("slot", id).Warn("tcpengine: forcibly reclaimed slot, pool exhausted")
}

func (e *Engine) releaseSlot(id SlotID) {
	s := e.slots[id]
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
	e.free <- id
}

// Send queues application payload on an ESTABLISHED connection, building
// and transmitting a data segment immediately (no Nagle coalescing).
func (e *Engine) Send(id SlotID, payload []byte) error {
	if int(id) >= len(e.slots) {
		return fmt.Errorf("tcpengine: slot %d out of range", id)
	}
	s := e.slots[id]
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inUse || s.state != StateEstablished {
		return fmt.Errorf("tcpengine: slot %d not established (state=%s)", id, s.state)
	}

	seq := s.sndNxt
	frame, err := e.buildSegment(s, codec.TCPFlagACK|codec.TCPFlagPSH, payload, nil)
	if err != nil {
		return err
	}
	s.unacked = append(s.unacked, &segment{seq: seq, data: append([]byte{}, payload...), sentAt: time.Now()})
	s.sndNxt += uint32(len(payload))
	s.lastTouched = time.Now()

	e.send.SendBatch([][]byte{frame})
	return nil
}

// Deliver feeds a received segment (already header-parsed) into the
// slot's state machine, advancing through the handshake, processing
// ACKs against the unacked table, and driving the close sequence.
func (e *Engine) Deliver(id SlotID, h codec.TCPHeader, payload []byte) {
	if int(id) >= len(e.slots) {
		return
	}
	s := e.slots[id]
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTouched = time.Now()

	switch {
	case h.Flags&codec.TCPFlagRST != 0:
		s.state = StateClosed
		return
	case s.state == StateSynSent && h.Flags&codec.TCPFlagSYN != 0 && h.Flags&codec.TCPFlagACK != 0:
		s.rcvNxt = h.Seq + 1
		s.sndUna = h.Ack
		s.state = StateEstablished
		frame, err := e.buildSegment(s, codec.TCPFlagACK, nil, nil)
		if err == nil {
			e.send.SendBatch([][]byte{frame})
		}
	case s.state == StateEstablished:
		e.ackUnacked(s, h.Ack)
		if len(payload) > 0 {
			e.receiveData(s, h.Seq, payload)
		}
		if h.Flags&codec.TCPFlagFIN != 0 {
			s.rcvNxt++
			s.state = StateCloseWait
		}
	case s.state == StateFinWait1 && h.Flags&codec.TCPFlagACK != 0:
		s.state = StateFinWait2
	case s.state == StateFinWait2 && h.Flags&codec.TCPFlagFIN != 0:
		s.rcvNxt = h.Seq + 1
		s.state = StateTimeWait
		s.closedAt = time.Now()
	case s.state == StateLastAck && h.Flags&codec.TCPFlagACK != 0:
		s.state = StateClosed
	}
}

// receiveData advances rcvNxt for in-order segments and drains any
// buffered out-of-order segments that become contiguous as a result;
// segments arriving ahead of rcvNxt are parked in s.outOfOrder keyed by
// their starting sequence number.
func (e *Engine) receiveData(s *slot, seq uint32, payload []byte) {
	if seq != s.rcvNxt {
		if seq > s.rcvNxt {
			s.outOfOrder[seq] = append([]byte{}, payload...)
		}
		return
	}
	s.rcvNxt += uint32(len(payload))
	for {
		next, ok := s.outOfOrder[s.rcvNxt]
		if !ok {
			break
		}
		delete(s.outOfOrder, s.rcvNxt)
		s.rcvNxt += uint32(len(next))
	}
}

func (e *Engine) ackUnacked(s *slot, ack uint32) {
	kept := s.unacked[:0]
	for _, seg := range s.unacked {
		if seg.seq+uint32(len(seg.data)) <= ack {
			s.rto.sample(time.Since(seg.sentAt))
			continue
		}
		kept = append(kept, seg)
	}
	s.unacked = kept
	s.sndUna = ack
}

// Close begins active close on an ESTABLISHED connection by sending FIN
// and moving to FIN_WAIT_1; on a CLOSE_WAIT connection it sends FIN and
// moves to LAST_ACK.
func (e *Engine) Close(id SlotID) error {
	if int(id) >= len(e.slots) {
		return fmt.Errorf("tcpengine: slot %d out of range", id)
	}
	s := e.slots[id]
	s.mu.Lock()
	defer s.mu.Unlock()

	var next State
	switch s.state {
	case StateEstablished:
		next = StateFinWait1
	case StateCloseWait:
		next = StateLastAck
	default:
		return fmt.Errorf("tcpengine: slot %d cannot close from state %s", id, s.state)
	}

	frame, err := e.buildSegment(s, codec.TCPFlagFIN|codec.TCPFlagACK, nil, nil)
	if err != nil {
		return err
	}
	s.sndNxt++
	s.state = next
	e.send.SendBatch([][]byte{frame})
	return nil
}

func (e *Engine) buildSegment(s *slot, flags uint16, payload []byte, opts []codec.TCPOption) ([]byte, error) {
	ip := codec.IPv4Header{TTL: 64, Protocol: codec.ProtoTCP, Src: e.srcIP, Dst: s.tuple.RemoteIP}
	th := codec.TCPHeader{
		SrcPort: s.tuple.LocalPort,
		DstPort: s.tuple.RemotePort,
		Seq:     s.sndNxt,
		Ack:     s.rcvNxt,
		Flags:   flags,
		Window:  s.window,
		Options: opts,
	}
	tcp, err := codec.BuildTCPv4(ip, th, payload)
	if err != nil {
		return nil, err
	}
	return codec.BuildIPv4(ip, tcp)
}

// Lookup resolves a four-tuple to its slot, for demultiplexing inbound
// segments to Deliver.
func (e *Engine) Lookup(tuple FourTuple) (SlotID, bool) {
	e.tupleMu.RLock()
	defer e.tupleMu.RUnlock()
	id, ok := e.tuples[tuple]
	return id, ok
}

// Stats returns a snapshot of one slot's state.
func (e *Engine) Stats(id SlotID) (Snapshot, error) {
	if int(id) >= len(e.slots) {
		return Snapshot{}, fmt.Errorf("tcpengine: slot %d out of range", id)
	}
	s := e.slots[id]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// Counters reports cumulative lifetime engine-level counts.
type Counters struct {
	Opened      uint64
	Closed      uint64
	Forced      uint64
	Retransmits uint64
}

func (e *Engine) Counters() Counters {
	return Counters{
		Opened:      e.opened.Load(),
		Closed:      e.closed.Load(),
		Forced:      e.forced.Load(),
		Retransmits: e.retransmits.Load(),
	}
}

// Shutdown stops the sweeper goroutine.
func (e *Engine) Shutdown() {
	close(e.stopCh)
	<-e.doneCh
}
