package control

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/netgenlab/trafficgen/pkg/codec"
	"github.com/netgenlab/trafficgen/pkg/scheduler"
)

// NetflowExporter periodically packages the sent-frame count each
// running profile worker added since the previous export into a
// NetFlow v5 (or IPFIX) datagram
// and ships it to a collector, backing POST /api/netflow/start. It is
// a thin Control-Surface driven loop, not a new concurrency primitive:
// one ticker goroutine reading the same counters the metrics
// Collector reads.
type NetflowExporter struct {
	engine   *Engine
	conn     net.Conn
	useIPFIX bool

	flowSeq  uint32
	domainID uint32
	start    time.Time

	lastSent map[string]uint64

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// StartNetflowExport dials addr (UDP) and begins exporting every
// interval until Stop is called.
func (e *Engine) StartNetflowExport(addr string, interval time.Duration, useIPFIX bool) (*NetflowExporter, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("control: netflow export: dial %s: %w", addr, err)
	}

	exp := &NetflowExporter{
		engine:   e,
		conn:     conn,
		useIPFIX: useIPFIX,
		start:    time.Now(),
		lastSent: make(map[string]uint64),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go exp.loop(interval)
	return exp, nil
}

func (x *NetflowExporter) loop(interval time.Duration) {
	defer close(x.doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-x.stopCh:
			return
		case <-ticker.C:
			if err := x.exportOnce(); err != nil {
				logrus.WithError(err).Warn("control: netflow export failed")
			}
		}
	}
}

func (x *NetflowExporter) exportOnce() error {
	var records []codec.NetflowV5Record
	for _, p := range x.engine.Profiles() {
		sent, _, ok := x.engine.ProfileStats(p.Name)
		if !ok {
			continue
		}
		delta := sent - x.lastSent[p.Name]
		if delta == 0 {
			continue
		}
		x.lastSent[p.Name] = sent

		records = append(records, codec.NetflowV5Record{
			SrcAddr:  p.SrcIPv4,
			DstAddr:  p.DstIPv4,
			Packets:  uint32(delta),
			Octets:   uint32(delta) * uint32(p.FrameSize),
			SrcPort:  p.SrcPort,
			DstPort:  p.DstPort,
			Protocol: protocolNumber(p.Protocol),
			ToS:      p.DSCP << 2,
		})
	}
	if len(records) == 0 {
		return nil
	}

	x.flowSeq++
	var datagram []byte
	var err error
	if x.useIPFIX {
		set := codec.BuildIPFIXDataSet(records)
		datagram = codec.BuildIPFIXMessage(time.Now(), x.flowSeq, x.domainID, codec.BuildIPFIXTemplateSet(), set)
	} else {
		datagram, err = codec.BuildNetflowV5(time.Since(x.start), x.flowSeq, records)
		if err != nil {
			return fmt.Errorf("build netflow v5 datagram: %w", err)
		}
	}

	_, err = x.conn.Write(datagram)
	return err
}

func protocolNumber(p scheduler.Protocol) uint8 {
	switch p {
	case scheduler.ProtoTCP:
		return codec.ProtoTCP
	case scheduler.ProtoICMPv6:
		return codec.ProtoICMPv6
	default:
		return codec.ProtoUDP
	}
}

// Stop halts the export loop and closes the collector connection.
func (x *NetflowExporter) Stop() {
	close(x.stopCh)
	<-x.doneCh
	x.conn.Close()
}
