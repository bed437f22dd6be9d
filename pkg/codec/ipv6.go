package codec

import "encoding/binary"

const ipv6HeaderLen = 40

// BuildIPv6 serializes a fixed 40-byte IPv6 header (RFC 8200), no extension
// headers. DSCP occupies the upper 6 bits of the 8-bit Traffic Class; ECN
// bits are unused.
func BuildIPv6(h IPv6Header, payload []byte) ([]byte, error) {
	if len(payload) > 0xFFFF {
		return nil, ErrFrameTooShort
	}
	buf := make([]byte, ipv6HeaderLen, ipv6HeaderLen+len(payload))

	vtc := uint32(6)<<28 | uint32(h.DSCP&0x3F)<<22 | (h.FlowLabel & 0xFFFFF)
	binary.BigEndian.PutUint32(buf[0:4], vtc)
	binary.BigEndian.PutUint16(buf[4:6], uint16(len(payload)))
	buf[6] = h.NextHeader
	buf[7] = h.HopLimit
	copy(buf[8:24], h.Src[:])
	copy(buf[24:40], h.Dst[:])

	return append(buf, payload...), nil
}

// ParseIPv6 parses a header built by BuildIPv6 (no extension headers).
func ParseIPv6(data []byte) (IPv6Header, []byte, error) {
	if len(data) < ipv6HeaderLen {
		return IPv6Header{}, nil, ErrTruncated
	}
	vtc := binary.BigEndian.Uint32(data[0:4])
	payloadLen := int(binary.BigEndian.Uint16(data[4:6]))
	if ipv6HeaderLen+payloadLen > len(data) {
		return IPv6Header{}, nil, ErrLengthOverrun
	}

	var h IPv6Header
	h.DSCP = uint8(vtc >> 22 & 0x3F)
	h.FlowLabel = vtc & 0xFFFFF
	h.NextHeader = data[6]
	h.HopLimit = data[7]
	copy(h.Src[:], data[8:24])
	copy(h.Dst[:], data[24:40])

	return h, data[ipv6HeaderLen : ipv6HeaderLen+payloadLen], nil
}

func checksumIPv6Pseudo(h IPv6Header, l4Len int) []byte {
	return pseudoHeaderV6(h.Src, h.Dst, h.NextHeader, uint32(l4Len))
}
