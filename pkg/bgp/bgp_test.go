package bgp

import (
	"net"
	"testing"
	"time"

	"github.com/netgenlab/trafficgen/pkg/codec"
)

func TestBuildOpenTwoByteASN(t *testing.T) {
	cfg := Config{LocalASN: 65001, RouterID: net.IPv4(10, 0, 0, 1), HoldTimeSec: 90}.withDefaults()
	msg, err := buildOpen(cfg)
	if err != nil {
		t.Fatalf("buildOpen: %v", err)
	}
	_, msgType, err := codec.ParseBGPHeader(msg)
	if err != nil {
		t.Fatalf("ParseBGPHeader: %v", err)
	}
	if msgType != codec.BGPTypeOpen {
		t.Fatalf("msgType = %d, want OPEN", msgType)
	}
	body := msg[codec.BGPHeaderLen:]
	if body[0] != 4 {
		t.Fatalf("version = %d, want 4", body[0])
	}
}

func TestBuildOpenFourByteASNUsesCapability(t *testing.T) {
	cfg := Config{LocalASN: 400000, RouterID: net.IPv4(10, 0, 0, 1)}.withDefaults()
	msg, err := buildOpen(cfg)
	if err != nil {
		t.Fatalf("buildOpen: %v", err)
	}
	body := msg[codec.BGPHeaderLen:]
	myAS := uint16(body[1])<<8 | uint16(body[2])
	if myAS != uint16(asTrans) {
		t.Fatalf("My AS field = %d, want AS_TRANS (%d) when 4-byte ASN capability is used", myAS, asTrans)
	}
	optParamLen := body[9]
	if optParamLen == 0 {
		t.Fatal("Opt Param Len = 0, want capability parameter present for 4-byte ASN")
	}
}

func TestBuildCapabilitiesGracefulRestartZeroState(t *testing.T) {
	cfg := Config{LocalASN: 65001, RouterID: net.IPv4(10, 0, 0, 1), GracefulRestart: true}.withDefaults()
	caps := cfg.buildCapabilities()
	if len(caps) < 2 {
		t.Fatalf("buildCapabilities() too short: % x", caps)
	}
	tlv := caps[2:] // skip the optional-parameter type/length header
	found := false
	for i := 0; i+1 < len(tlv); {
		code, length := tlv[i], tlv[i+1]
		if code == capGracefulRestart {
			found = true
			if length != 2 {
				t.Fatalf("graceful restart capability length = %d, want 2", length)
			}
			value := uint16(tlv[i+2])<<8 | uint16(tlv[i+3])
			if value != 0 {
				t.Fatalf("graceful restart value = %#x, want 0 (restart flag cleared, time 0)", value)
			}
		}
		i += 2 + int(length)
	}
	if !found {
		t.Fatal("graceful restart capability (code 64) not present")
	}
}

func TestGroupByNextHop(t *testing.T) {
	routes := []Route{
		{Prefix: [4]byte{10, 0, 0, 0}, PrefixLen: 24, NextHop: [4]byte{192, 0, 2, 1}},
		{Prefix: [4]byte{10, 0, 1, 0}, PrefixLen: 24, NextHop: [4]byte{192, 0, 2, 1}},
		{Prefix: [4]byte{10, 0, 2, 0}, PrefixLen: 24, NextHop: [4]byte{192, 0, 2, 2}},
	}
	groups := groupByNextHop(routes)
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	if len(groups[[4]byte{192, 0, 2, 1}]) != 2 {
		t.Fatalf("group for .1 has %d routes, want 2", len(groups[[4]byte{192, 0, 2, 1}]))
	}
}

func TestBuildAdvertiseUpdatesOneMessagePerNextHop(t *testing.T) {
	routes := []Route{
		{Prefix: [4]byte{10, 0, 0, 0}, PrefixLen: 24, NextHop: [4]byte{192, 0, 2, 1}},
		{Prefix: [4]byte{10, 0, 1, 0}, PrefixLen: 24, NextHop: [4]byte{192, 0, 2, 2}},
	}
	msgs, err := buildAdvertiseUpdates(65001, routes)
	if err != nil {
		t.Fatalf("buildAdvertiseUpdates: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
	for _, m := range msgs {
		_, msgType, err := codec.ParseBGPHeader(m)
		if err != nil {
			t.Fatalf("ParseBGPHeader: %v", err)
		}
		if msgType != codec.BGPTypeUpdate {
			t.Fatalf("msgType = %d, want UPDATE", msgType)
		}
	}
}

func TestBuildWithdrawUpdatesPopulatesWithdrawnRoutes(t *testing.T) {
	routes := []Route{{Prefix: [4]byte{10, 0, 0, 0}, PrefixLen: 24, NextHop: [4]byte{192, 0, 2, 1}}}
	msgs, err := buildWithdrawUpdates(routes)
	if err != nil {
		t.Fatalf("buildWithdrawUpdates: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("len(msgs) = %d, want 1", len(msgs))
	}
	body := msgs[0][codec.BGPHeaderLen:]
	withdrawnLen := int(body[0])<<8 | int(body[1])
	if withdrawnLen == 0 {
		t.Fatal("Withdrawn Routes Length = 0, want > 0")
	}
}

func TestCommonLocalPref(t *testing.T) {
	same := []Route{{LocalPref: 100}, {LocalPref: 100}}
	if lp := commonLocalPref(same); lp != 100 {
		t.Fatalf("commonLocalPref(same) = %d, want 100", lp)
	}
	mixed := []Route{{LocalPref: 100}, {LocalPref: 200}}
	if lp := commonLocalPref(mixed); lp != 0 {
		t.Fatalf("commonLocalPref(mixed) = %d, want 0", lp)
	}
}

// fakePeer accepts one connection, reads and discards the OPEN, replies
// with its own OPEN, and keeps draining the connection so the session's
// keepalive writes don't block.
func fakePeer(t *testing.T, ln net.Listener) {
	t.Helper()
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	if _, err := readOneMessage(conn); err != nil {
		return
	}
	reply, err := buildOpen(Config{LocalASN: 65002, RouterID: net.IPv4(10, 0, 0, 2), HoldTimeSec: 90})
	if err != nil {
		return
	}
	if _, err := conn.Write(reply); err != nil {
		return
	}

	buf := make([]byte, 4096)
	for {
		if _, err := conn.Read(buf); err != nil {
			return
		}
	}
}

func TestSessionConnectAdvertiseClose(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()
	go fakePeer(t, ln)

	cfg := Config{
		PeerAddr:       ln.Addr().String(),
		LocalASN:       65001,
		RouterID:       net.IPv4(10, 0, 0, 1),
		HoldTimeSec:    3, // short so the keepalive loop runs during the test
		ConnectTimeout: 2 * time.Second,
	}
	s, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if s.State() != StateEstablished {
		t.Fatalf("State() = %s, want established", s.State())
	}

	if err := s.Advertise([]Route{{Prefix: [4]byte{10, 1, 0, 0}, PrefixLen: 16, NextHop: [4]byte{192, 0, 2, 1}}}); err != nil {
		t.Fatalf("Advertise: %v", err)
	}
	if err := s.Withdraw([]Route{{Prefix: [4]byte{10, 1, 0, 0}, PrefixLen: 16, NextHop: [4]byte{192, 0, 2, 1}}}); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c := s.Counters()
	if c.UpdatesSent != 1 || c.WithdrawsSent != 1 {
		t.Fatalf("Counters = %+v, want 1 update and 1 withdraw", c)
	}
	if s.State() != StateClosed {
		t.Fatalf("State() after Close = %s, want closed", s.State())
	}
}
