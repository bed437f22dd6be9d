package bgp

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/netgenlab/trafficgen/pkg/codec"
)

// Session is one outbound BGP-4 speaker connection.
type Session struct {
	id  xid.ID
	cfg Config

	mu    sync.Mutex
	conn  net.Conn
	state State

	stopCh chan struct{}
	doneCh chan struct{}

	updatesSent      atomic.Uint64
	withdrawsSent    atomic.Uint64
	keepalivesSent   atomic.Uint64
	notificationSent atomic.Uint64
}

// Connect dials the peer, sends OPEN, and expects an OPEN reply before
// considering the session established. It does not wait for the
// peer's KEEPALIVE; this speaker does not process inbound traffic
// beyond the initial OPEN.
func Connect(cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()
	addr := cfg.PeerAddr
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, bgpDefaultPort)
	}

	conn, err := net.DialTimeout("tcp", addr, cfg.ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("bgp: dial %s: %w", addr, err)
	}

	s := &Session{
		id:     xid.New(),
		cfg:    cfg,
		conn:   conn,
		state:  StateConnecting,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if err := s.sendOpen(); err != nil {
		conn.Close()
		return nil, err
	}

	reply, err := readOneMessage(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("bgp: reading peer OPEN: %w", err)
	}
	if _, msgType, _ := codec.ParseBGPHeader(reply); msgType != codec.BGPTypeOpen {
		conn.Close()
		return nil, fmt.Errorf("bgp: expected peer OPEN, got message type %d", msgType)
	}

	s.mu.Lock()
	s.state = StateEstablished
	s.mu.Unlock()

	go s.keepaliveLoop()

	logrus.WithField("session", s.id.String()).WithField("peer", addr).Info("bgp: session established")
	return s, nil
}

func (s *Session) sendOpen() error {
	msg, err := buildOpen(s.cfg)
	if err != nil {
		return fmt.Errorf("bgp: build OPEN: %w", err)
	}
	s.mu.Lock()
	s.state = StateOpenSent
	_, err = s.conn.Write(msg)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("bgp: send OPEN: %w", err)
	}
	return nil
}

// keepaliveLoop sends a KEEPALIVE every hold_time/3 seconds until Close
// stops the session.
func (s *Session) keepaliveLoop() {
	defer close(s.doneCh)
	interval := time.Duration(s.cfg.HoldTimeSec) * time.Second / 3
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			msg, err := buildKeepalive()
			if err != nil {
				continue
			}
			s.mu.Lock()
			_, err = s.conn.Write(msg)
			s.mu.Unlock()
			if err != nil {
				logrus.WithField("session", s.id.String()).WithError(err).Warn("bgp: keepalive send failed")
				continue
			}
			s.keepalivesSent.Add(1)
		}
	}
}

// Advertise groups routes by next-hop and sends one UPDATE per group.
func (s *Session) Advertise(routes []Route) error {
	msgs, err := buildAdvertiseUpdates(s.cfg.LocalASN, routes)
	if err != nil {
		return fmt.Errorf("bgp: build advertise UPDATE: %w", err)
	}
	if err := s.writeAll(msgs); err != nil {
		return err
	}
	s.updatesSent.Add(uint64(len(msgs)))
	return nil
}

// Withdraw groups routes by next-hop and sends one UPDATE per group
// with a populated Withdrawn Routes field.
func (s *Session) Withdraw(routes []Route) error {
	msgs, err := buildWithdrawUpdates(routes)
	if err != nil {
		return fmt.Errorf("bgp: build withdraw UPDATE: %w", err)
	}
	if err := s.writeAll(msgs); err != nil {
		return err
	}
	s.withdrawsSent.Add(uint64(len(msgs)))
	return nil
}

func (s *Session) writeAll(msgs [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		if _, err := s.conn.Write(m); err != nil {
			return fmt.Errorf("bgp: write UPDATE: %w", err)
		}
	}
	return nil
}

// Close sends a Cease NOTIFICATION and tears down the TCP connection.
func (s *Session) Close() error {
	close(s.stopCh)
	<-s.doneCh

	msg, err := buildNotification(notificationCease, 0, nil)
	if err == nil {
		s.mu.Lock()
		s.conn.Write(msg)
		s.mu.Unlock()
		s.notificationSent.Add(1)
	}

	s.mu.Lock()
	s.state = StateClosed
	closeErr := s.conn.Close()
	s.mu.Unlock()
	return closeErr
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Counters() Counters {
	return Counters{
		UpdatesSent:      s.updatesSent.Load(),
		WithdrawsSent:    s.withdrawsSent.Load(),
		KeepalivesSent:   s.keepalivesSent.Load(),
		NotificationSent: s.notificationSent.Load(),
	}
}

// readOneMessage reads exactly one framed BGP message's header plus
// body from conn.
func readOneMessage(conn net.Conn) ([]byte, error) {
	header := make([]byte, codec.BGPHeaderLen)
	if _, err := fullRead(conn, header); err != nil {
		return nil, err
	}
	declaredLen := int(header[codec.BGPMarkerLen])<<8 | int(header[codec.BGPMarkerLen+1])
	if declaredLen < codec.BGPHeaderLen {
		return nil, fmt.Errorf("bgp: malformed header length %d", declaredLen)
	}

	rest := make([]byte, declaredLen-codec.BGPHeaderLen)
	if len(rest) > 0 {
		if _, err := fullRead(conn, rest); err != nil {
			return nil, err
		}
	}

	full := append(header, rest...)
	if _, _, err := codec.ParseBGPHeader(full); err != nil {
		return nil, fmt.Errorf("bgp: parse header: %w", err)
	}
	return full, nil
}

func fullRead(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
