//go:build linux

package iface

import (
	"fmt"
	"net"
	"unsafe"

	"github.com/higebu/netfd"
	"golang.org/x/sys/unix"
)

// Discovered holds the live MAC/IP pair read back from the OS for one
// device, used by POST /api/interfaces/{name}/discover to refresh an
// admitted interface's recorded addressing.
type Discovered struct {
	MACAddress string
	IPAddress  string
}

// Discover re-reads the named device's hardware address and primary IP
// address from the kernel. The hardware address is fetched via
// SIOCGIFHWADDR, which requires an arbitrary open socket fd to issue the
// ioctl against; a throwaway UDP conn supplies that fd through netfd.
// If the ioctl fails, the hardware address net.Interface reports is used.
func Discover(name string) (Discovered, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return Discovered{}, fmt.Errorf("iface: discover %s: %w", name, err)
	}

	addrs, err := ifi.Addrs()
	if err != nil {
		return Discovered{}, fmt.Errorf("iface: discover %s addrs: %w", name, err)
	}
	var ip string
	for _, a := range addrs {
		if ipNet, ok := a.(*net.IPNet); ok && ipNet.IP.To4() != nil {
			ip = ipNet.IP.String()
			break
		}
	}

	mac, err := readHWAddr(name)
	if err != nil {
		mac = ifi.HardwareAddr.String()
	}

	return Discovered{MACAddress: mac, IPAddress: ip}, nil
}

// ifreqHWAddr mirrors the portion of struct ifreq used by SIOCGIFHWADDR:
// a 16-byte interface name followed by a sockaddr (we only read the
// sa_family + 6-byte MAC that follows it).
type ifreqHWAddr struct {
	name [unix.IFNAMSIZ]byte
	_    uint16 // sockaddr.sa_family
	mac  [6]byte
	_    [8]byte // remainder of sockaddr_storage padding, unused
}

func readHWAddr(name string) (string, error) {
	conn, err := net.Dial("udp4", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("iface: open probe socket: %w", err)
	}
	defer conn.Close()

	fd, err := netfd.GetFdFromConn(conn)
	if err != nil {
		return "", fmt.Errorf("iface: extract fd: %w", err)
	}

	var req ifreqHWAddr
	copy(req.name[:], name)

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), unix.SIOCGIFHWADDR, uintptr(unsafe.Pointer(&req)))
	if errno != 0 {
		return "", errno
	}

	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		req.mac[0], req.mac[1], req.mac[2], req.mac[3], req.mac[4], req.mac[5]), nil
}
