// Package bgp drives a minimal BGP-4 speaker (RFC 4271) over a TCP
// client connection: OPEN handshake with capability negotiation,
// grouped-by-next-hop UPDATE emission for route advertisement and
// withdrawal, a hold-time/3 KEEPALIVE ticker, and a Cease NOTIFICATION
// on teardown. Retries, graceful restart, and inbound route processing
// are out of scope; this speaker only emits.
package bgp

import (
	"net"
	"time"
)

// Route is one advertised or withdrawn IPv4 prefix.
type Route struct {
	Prefix    [4]byte
	PrefixLen uint8
	NextHop   [4]byte
	LocalPref uint32 // 0 means omit the LOCAL_PREF attribute
}

// Config parameterizes one session.
type Config struct {
	PeerAddr    string // host:port; port defaults to 179 if absent
	LocalASN    uint32 // 2-byte OPEN field if <= 0xFFFF, else capability 65
	RouterID    net.IP
	HoldTimeSec uint16

	FourByteASN     bool // force capability 65 even for a 2-byte-representable ASN
	RouteRefresh    bool
	Multiprotocol   bool
	GracefulRestart bool // advertise capability 64 with a zero restart state, no actual restart handling

	ConnectTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.HoldTimeSec == 0 {
		c.HoldTimeSec = 90
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	return c
}

// notificationCease is the Cease error code (RFC 4271 §8.1) this speaker
// always uses on session teardown.
const notificationCease uint8 = 6

const bgpDefaultPort = "179"

// State is the speaker's local view of session progress; this is a
// small subset of RFC 4271's full FSM since there is no peer-driven
// negotiation to react to beyond the OPEN reply.
type State string

const (
	StateIdle        State = "idle"
	StateConnecting  State = "connecting"
	StateOpenSent    State = "open_sent"
	StateEstablished State = "established"
	StateClosed      State = "closed"
)

// Counters are cumulative lifetime session statistics.
type Counters struct {
	UpdatesSent      uint64
	WithdrawsSent    uint64
	KeepalivesSent   uint64
	NotificationSent uint64
}
