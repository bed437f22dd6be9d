package codec

import "encoding/binary"

const udpHeaderLen = 8

// BuildUDPv4 builds a UDP header+payload with checksum computed over the
// IPv4 pseudo-header. A zero-result checksum is mapped to 0xFFFF (RFC 768:
// all-zeros means "no checksum", which this engine never emits).
func BuildUDPv4(ipHdr IPv4Header, h UDPHeader, payload []byte) []byte {
	l4 := buildUDPHeader(h, len(payload))
	sum := l4Checksum(checksumIPv4Pseudo(ipHdr, len(l4)+len(payload)), append(append([]byte{}, l4...), payload...))
	if sum == 0 {
		sum = 0xFFFF
	}
	binary.BigEndian.PutUint16(l4[6:8], sum)
	return append(l4, payload...)
}

// BuildUDPv6 is the IPv6 analogue of BuildUDPv4.
func BuildUDPv6(ipHdr IPv6Header, h UDPHeader, payload []byte) []byte {
	l4 := buildUDPHeader(h, len(payload))
	sum := l4Checksum(checksumIPv6Pseudo(ipHdr, len(l4)+len(payload)), append(append([]byte{}, l4...), payload...))
	if sum == 0 {
		sum = 0xFFFF
	}
	binary.BigEndian.PutUint16(l4[6:8], sum)
	return append(l4, payload...)
}

func buildUDPHeader(h UDPHeader, payloadLen int) []byte {
	buf := make([]byte, udpHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], h.SrcPort)
	binary.BigEndian.PutUint16(buf[2:4], h.DstPort)
	binary.BigEndian.PutUint16(buf[4:6], uint16(udpHeaderLen+payloadLen))
	return buf
}

// ParseUDP parses a UDP header and returns the header plus payload slice.
func ParseUDP(data []byte) (UDPHeader, []byte, error) {
	if len(data) < udpHeaderLen {
		return UDPHeader{}, nil, ErrTruncated
	}
	length := int(binary.BigEndian.Uint16(data[4:6]))
	if length > len(data) {
		return UDPHeader{}, nil, ErrLengthOverrun
	}
	h := UDPHeader{
		SrcPort: binary.BigEndian.Uint16(data[0:2]),
		DstPort: binary.BigEndian.Uint16(data[2:4]),
	}
	return h, data[udpHeaderLen:length], nil
}
