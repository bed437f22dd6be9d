//go:build linux

package iface

import (
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// openRawSocket creates an AF_PACKET SOCK_RAW socket bound to the named
// device, enlarges its send/receive buffers, and puts it in non-blocking
// mode. Socket options are set directly on the fd with
// unix.SetsockoptInt; no RawConn.Control closure is involved.
func openRawSocket(cfg Config) (fd int, ifindex int, err error) {
	ifi, err := net.InterfaceByName(cfg.Name)
	if err != nil {
		return -1, 0, fmt.Errorf("iface: lookup %s: %w", cfg.Name, err)
	}

	fd, err = unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, htons(unix.ETH_P_ALL))
	if err != nil {
		return -1, 0, fmt.Errorf("iface: socket: %w", err)
	}

	sll := &unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  ifi.Index,
	}
	if err := unix.Bind(fd, sll); err != nil {
		unix.Close(fd)
		return -1, 0, fmt.Errorf("iface: bind to %s: %w", cfg.Name, err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUFFORCE, cfg.SendBufBytes); err != nil {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, cfg.SendBufBytes); err != nil {
			logrus.WithError(err).WithField("iface", cfg.Name).Warn("iface: could not enlarge send buffer")
		}
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUFFORCE, cfg.RecvBufBytes); err != nil {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, cfg.RecvBufBytes); err != nil {
			logrus.WithError(err).WithField("iface", cfg.Name).Warn("iface: could not enlarge receive buffer")
		}
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, 0, fmt.Errorf("iface: set non-blocking: %w", err)
	}

	return fd, ifi.Index, nil
}

// tryEnableHWTimestamping attempts PTP-style hardware TX/RX timestamping
// (SO_TIMESTAMPING) on fd, returning whether it took effect. Absence of
// driver support is expected on most test NICs and is not an error.
func tryEnableHWTimestamping(fd int) bool {
	flags := unix.SOF_TIMESTAMPING_TX_HARDWARE |
		unix.SOF_TIMESTAMPING_RX_HARDWARE |
		unix.SOF_TIMESTAMPING_RAW_HARDWARE |
		unix.SOF_TIMESTAMPING_SOFTWARE

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TIMESTAMPING, flags); err != nil {
		return false
	}
	return true
}

func htons(v uint16) uint16 {
	return (v << 8) | (v >> 8)
}

func sendFrameNonblocking(fd int, ifindex int, frame []byte) error {
	addr := &unix.SockaddrLinklayer{Ifindex: ifindex}
	return unix.Sendto(fd, frame, unix.MSG_DONTWAIT, addr)
}
