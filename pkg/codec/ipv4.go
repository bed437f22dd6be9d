package codec

import (
	"encoding/binary"
	"net"

	"golang.org/x/net/ipv4"
)

const ipv4HeaderLen = 20

// BuildIPv4 serializes an IPv4 header (no options) over payload, computing
// the header checksum over the header only. The header itself is built with
// golang.org/x/net/ipv4 (RFC 791 field layout), with DSCP shifted into the
// TOS field; the header checksum is computed afterwards since Marshal leaves
// it zero.
func BuildIPv4(h IPv4Header, payload []byte) ([]byte, error) {
	if len(payload) > 0xFFFF-ipv4HeaderLen {
		return nil, ErrFrameTooShort
	}
	hdr := &ipv4.Header{
		Version:  ipv4.Version,
		Len:      ipv4HeaderLen,
		TOS:      int(h.DSCP&0x3F) << 2, // DSCP occupies the upper 6 bits of ToS; ECN bits unused
		TotalLen: ipv4HeaderLen + len(payload),
		ID:       int(h.ID),
		TTL:      int(h.TTL),
		Protocol: int(h.Protocol),
		Src:      net.IP(h.Src[:]),
		Dst:      net.IP(h.Dst[:]),
	}
	raw, err := hdr.Marshal()
	if err != nil || len(raw) != ipv4HeaderLen {
		return nil, ErrFrameTooShort
	}

	// ipv4.Header.Marshal leaves the checksum field zeroed; compute it here
	// over the header alone.
	raw[10], raw[11] = 0, 0
	sum := Checksum(raw)
	binary.BigEndian.PutUint16(raw[10:12], sum)

	out := make([]byte, 0, ipv4HeaderLen+len(payload))
	out = append(out, raw...)
	out = append(out, payload...)
	return out, nil
}

// ParseIPv4 parses a header built by BuildIPv4 (no options support, matching
// the builder). Returns the header, the declared-length payload slice, and
// an error if the declared total length overruns the buffer.
func ParseIPv4(data []byte) (IPv4Header, []byte, error) {
	if len(data) < ipv4HeaderLen {
		return IPv4Header{}, nil, ErrTruncated
	}
	ihl := int(data[0]&0x0F) * 4
	if ihl < ipv4HeaderLen || len(data) < ihl {
		return IPv4Header{}, nil, ErrTruncated
	}
	totalLen := int(binary.BigEndian.Uint16(data[2:4]))
	if totalLen > len(data) {
		return IPv4Header{}, nil, ErrLengthOverrun
	}

	var h IPv4Header
	h.DSCP = data[1] >> 2
	h.ID = binary.BigEndian.Uint16(data[4:6])
	h.TTL = data[8]
	h.Protocol = data[9]
	copy(h.Src[:], data[12:16])
	copy(h.Dst[:], data[16:20])

	return h, data[ihl:totalLen], nil
}

// checksumIPv4Pseudo returns the 12-byte IPv4 pseudo-header for TCP/UDP
// checksums built over an already-constructed IPv4Header.
func checksumIPv4Pseudo(h IPv4Header, l4Len int) []byte {
	return pseudoHeaderV4(h.Src, h.Dst, h.Protocol, uint16(l4Len))
}
