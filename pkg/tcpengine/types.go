// Package tcpengine drives synthetic TCP connections for traffic
// generation: a fixed slot pool, an RFC 793 state machine per slot, and
// a Jacobson/Karels RTO estimator feeding a 10Hz retransmission
// sweeper. It builds and parses segments through pkg/codec and hands
// built frames to a Sender (an interface, typically pkg/iface) for
// transmission.
package tcpengine

import "time"

// State names the RFC 793 connection states this engine models.
type State uint8

const (
	StateClosed State = iota
	StateSynSent
	StateSynReceived
	StateEstablished
	StateFinWait1
	StateFinWait2
	StateCloseWait
	StateClosing
	StateLastAck
	StateTimeWait
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateSynSent:
		return "SYN_SENT"
	case StateSynReceived:
		return "SYN_RECEIVED"
	case StateEstablished:
		return "ESTABLISHED"
	case StateFinWait1:
		return "FIN_WAIT_1"
	case StateFinWait2:
		return "FIN_WAIT_2"
	case StateCloseWait:
		return "CLOSE_WAIT"
	case StateClosing:
		return "CLOSING"
	case StateLastAck:
		return "LAST_ACK"
	case StateTimeWait:
		return "TIME_WAIT"
	default:
		return "UNKNOWN"
	}
}

// FourTuple identifies one connection.
type FourTuple struct {
	LocalIP    [4]byte
	RemoteIP   [4]byte
	LocalPort  uint16
	RemotePort uint16
}

// SlotID indexes into the engine's fixed slot array.
type SlotID uint32

const (
	// DefaultCapacity is the default connection pool size.
	DefaultCapacity = 500000

	// DefaultMSS and windowScaleShift match the options this engine
	// advertises on active open.
	DefaultMSS       = 1460
	windowScaleShift = 7

	// timeWaitDuration is 2*MSL.
	timeWaitDuration = 120 * time.Second

	maxRetries = 5

	sweepInterval = 100 * time.Millisecond
)

// segment is one outstanding, unacknowledged byte range.
type segment struct {
	seq     uint32
	data    []byte
	sentAt  time.Time
	retries int
}

// Sender is the minimal transmit surface the engine needs; pkg/iface's
// Interface satisfies it.
type Sender interface {
	SendBatch(packets [][]byte) int
}

// Snapshot is a point-in-time read of one slot's observable state,
// returned by Engine.Stats for a given SlotID.
type Snapshot struct {
	State      State
	Tuple      FourTuple
	SndNxt     uint32
	RcvNxt     uint32
	SRTT       time.Duration
	RTO        time.Duration
	Retries    int
	UnackedLen int
}
