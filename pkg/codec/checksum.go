// Package codec builds and parses the Ethernet/VLAN/MPLS/IPv4/IPv6/UDP/TCP/
// ICMPv6/VXLAN/BGP/NetFlow frames the engine emits and ingests. Builders are
// pure and allocation-light; parsers return record views over the input
// buffer rather than copying it. Nothing here blocks; builders allocate
// only the buffers they return and their checksum scratch space.
package codec

import "encoding/binary"

// Checksum computes the one's-complement 16-bit checksum over data, per
// RFC 1071. Used standalone for the IPv4 header checksum and as the tail end
// of the TCP/UDP pseudo-header checksum.
func Checksum(data []byte) uint16 {
	var sum uint32
	n := len(data)
	i := 0
	for n > 1 {
		sum += uint32(binary.BigEndian.Uint16(data[i : i+2]))
		i += 2
		n -= 2
	}
	if n == 1 {
		sum += uint32(data[i]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return ^uint16(sum)
}

// pseudoHeaderV4 builds the 12-byte IPv4 pseudo-header used by TCP/UDP
// checksums: src(4) dst(4) zero(1) protocol(1) length(2).
func pseudoHeaderV4(src, dst [4]byte, protocol uint8, length uint16) []byte {
	ph := make([]byte, 12)
	copy(ph[0:4], src[:])
	copy(ph[4:8], dst[:])
	ph[8] = 0
	ph[9] = protocol
	binary.BigEndian.PutUint16(ph[10:12], length)
	return ph
}

// pseudoHeaderV6 builds the 40-byte IPv6 pseudo-header per RFC 8200 §8.1:
// src(16) dst(16) upper-layer length(4) zero(3) next-header(1).
func pseudoHeaderV6(src, dst [16]byte, nextHeader uint8, length uint32) []byte {
	ph := make([]byte, 40)
	copy(ph[0:16], src[:])
	copy(ph[16:32], dst[:])
	binary.BigEndian.PutUint32(ph[32:36], length)
	ph[39] = nextHeader
	return ph
}

// l4Checksum sums the pseudo-header plus the L4 header+payload, zero-padding
// an odd-length tail as required by RFC 793/768.
func l4Checksum(pseudo, l4 []byte) uint16 {
	buf := make([]byte, 0, len(pseudo)+len(l4)+1)
	buf = append(buf, pseudo...)
	buf = append(buf, l4...)
	if len(buf)%2 != 0 {
		buf = append(buf, 0)
	}
	return Checksum(buf)
}
