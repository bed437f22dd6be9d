package control

import (
	"fmt"
	"time"

	"github.com/netgenlab/trafficgen/pkg/bgp"
)

// SetImpairmentsEnabled toggles whether enabled profiles' impairment
// configs take effect. Disabling does not edit any stored profile; it
// only changes what the next StartTraffic builds its workers from.
// Already-running workers are restarted so the toggle applies
// immediately rather than on the next StartTraffic call.
func (e *Engine) SetImpairmentsEnabled(enabled bool) error {
	e.mu.Lock()
	changed := e.impairmentsEnabled != enabled
	e.impairmentsEnabled = enabled
	wasRunning := e.running
	e.mu.Unlock()

	if changed && wasRunning {
		e.StopTraffic()
		return e.StartTraffic()
	}
	return nil
}

// ImpairmentsEnabled reports the current global impairments toggle.
func (e *Engine) ImpairmentsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.impairmentsEnabled
}

// StartBGP opens a single BGP peering session, replacing any existing
// one. Only one session runs at a time; RFC 4271 multi-peer sessions
// are out of this engine's scope.
func (e *Engine) StartBGP(cfg bgp.Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.bgpSession != nil {
		e.bgpSession.Close()
		e.bgpSession = nil
	}
	s, err := bgp.Connect(cfg)
	if err != nil {
		return fmt.Errorf("control: start bgp session: %w", err)
	}
	e.bgpSession = s
	return nil
}

// StopBGP closes the active BGP session, if any.
func (e *Engine) StopBGP() error {
	e.mu.Lock()
	s := e.bgpSession
	e.bgpSession = nil
	e.mu.Unlock()

	if s == nil {
		return nil
	}
	return s.Close()
}

// BGPStatus reports the active session's state and counters, or ok=false
// if no session is running.
func (e *Engine) BGPStatus() (state bgp.State, counters bgp.Counters, ok bool) {
	e.mu.Lock()
	s := e.bgpSession
	e.mu.Unlock()
	if s == nil {
		return bgp.StateIdle, bgp.Counters{}, false
	}
	return s.State(), s.Counters(), true
}

// BGPAdvertise pushes routes through the active BGP session.
func (e *Engine) BGPAdvertise(routes []bgp.Route) error {
	e.mu.Lock()
	s := e.bgpSession
	e.mu.Unlock()
	if s == nil {
		return fmt.Errorf("control: bgp session not running")
	}
	return s.Advertise(routes)
}

// BGPWithdraw withdraws routes through the active BGP session.
func (e *Engine) BGPWithdraw(routes []bgp.Route) error {
	e.mu.Lock()
	s := e.bgpSession
	e.mu.Unlock()
	if s == nil {
		return fmt.Errorf("control: bgp session not running")
	}
	return s.Withdraw(routes)
}

// StartNetflow begins a NetFlow v5/IPFIX export loop, replacing any
// existing one.
func (e *Engine) StartNetflow(addr string, interval time.Duration, useIPFIX bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.netflowExp != nil {
		e.netflowExp.Stop()
		e.netflowExp = nil
	}
	exp, err := e.StartNetflowExport(addr, interval, useIPFIX)
	if err != nil {
		return err
	}
	e.netflowExp = exp
	return nil
}

// StopNetflow halts the active export loop, if any.
func (e *Engine) StopNetflow() {
	e.mu.Lock()
	exp := e.netflowExp
	e.netflowExp = nil
	e.mu.Unlock()

	if exp != nil {
		exp.Stop()
	}
}
