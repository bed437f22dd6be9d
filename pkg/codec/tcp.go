package codec

import "encoding/binary"

const tcpBaseHeaderLen = 20

// BuildTCPOptions serializes a TCP option list TLV-style, NOP-padding to a
// 4-byte boundary.
func BuildTCPOptions(opts []TCPOption) []byte {
	var buf []byte
	for _, o := range opts {
		buf = append(buf, o.Kind)
		if o.Kind == TCPOptNOP || o.Kind == TCPOptEnd {
			continue
		}
		buf = append(buf, byte(len(o.Data)+2))
		buf = append(buf, o.Data...)
	}
	if pad := (4 - len(buf)%4) % 4; pad > 0 {
		for i := 0; i < pad; i++ {
			buf = append(buf, TCPOptNOP)
		}
	}
	return buf
}

// ParseTCPOptions parses a NOP/EOL-padded option TLV list of the given
// length (dataOffset*4 - 20 bytes).
func ParseTCPOptions(data []byte) ([]TCPOption, error) {
	var opts []TCPOption
	i := 0
	for i < len(data) {
		kind := data[i]
		if kind == TCPOptEnd {
			break
		}
		if kind == TCPOptNOP {
			opts = append(opts, TCPOption{Kind: TCPOptNOP})
			i++
			continue
		}
		if i+1 >= len(data) {
			return nil, ErrTruncated
		}
		length := int(data[i+1])
		if length < 2 || i+length > len(data) {
			return nil, ErrTruncated
		}
		opts = append(opts, TCPOption{Kind: kind, Data: append([]byte{}, data[i+2:i+length]...)})
		i += length
	}
	return opts, nil
}

func buildTCPHeader(h TCPHeader) ([]byte, error) {
	optBytes := BuildTCPOptions(h.Options)
	headerLen := tcpBaseHeaderLen + len(optBytes)
	if headerLen > 60 {
		return nil, ErrFrameTooShort
	}
	dataOffset := headerLen / 4

	buf := make([]byte, headerLen)
	binary.BigEndian.PutUint16(buf[0:2], h.SrcPort)
	binary.BigEndian.PutUint16(buf[2:4], h.DstPort)
	binary.BigEndian.PutUint32(buf[4:8], h.Seq)
	binary.BigEndian.PutUint32(buf[8:12], h.Ack)
	buf[12] = byte(dataOffset<<4) | byte(h.Flags>>8&0x01)
	buf[13] = byte(h.Flags & 0xFF)
	binary.BigEndian.PutUint16(buf[14:16], h.Window)
	// checksum at buf[16:18] filled in by caller
	binary.BigEndian.PutUint16(buf[18:20], h.UrgentPtr)
	copy(buf[20:], optBytes)
	return buf, nil
}

// BuildTCPv4 builds a full TCP segment (header+options+payload) with
// checksum computed over the IPv4 pseudo-header.
func BuildTCPv4(ipHdr IPv4Header, h TCPHeader, payload []byte) ([]byte, error) {
	l4, err := buildTCPHeader(h)
	if err != nil {
		return nil, err
	}
	full := append(append([]byte{}, l4...), payload...)
	sum := l4Checksum(checksumIPv4Pseudo(ipHdr, len(full)), full)
	binary.BigEndian.PutUint16(l4[16:18], sum)
	return append(l4, payload...), nil
}

// BuildTCPv6 is the IPv6 analogue of BuildTCPv4.
func BuildTCPv6(ipHdr IPv6Header, h TCPHeader, payload []byte) ([]byte, error) {
	l4, err := buildTCPHeader(h)
	if err != nil {
		return nil, err
	}
	full := append(append([]byte{}, l4...), payload...)
	sum := l4Checksum(checksumIPv6Pseudo(ipHdr, len(full)), full)
	binary.BigEndian.PutUint16(l4[16:18], sum)
	return append(l4, payload...), nil
}

// ParseTCP parses a TCP segment and returns the header (with decoded
// options) and the payload slice.
func ParseTCP(data []byte) (TCPHeader, []byte, error) {
	if len(data) < tcpBaseHeaderLen {
		return TCPHeader{}, nil, ErrTruncated
	}
	dataOffset := int(data[12]>>4) * 4
	if dataOffset < tcpBaseHeaderLen || dataOffset > len(data) {
		return TCPHeader{}, nil, ErrTruncated
	}

	h := TCPHeader{
		SrcPort:   binary.BigEndian.Uint16(data[0:2]),
		DstPort:   binary.BigEndian.Uint16(data[2:4]),
		Seq:       binary.BigEndian.Uint32(data[4:8]),
		Ack:       binary.BigEndian.Uint32(data[8:12]),
		Flags:     uint16(data[12]&0x01)<<8 | uint16(data[13]),
		Window:    binary.BigEndian.Uint16(data[14:16]),
		UrgentPtr: binary.BigEndian.Uint16(data[18:20]),
	}

	opts, err := ParseTCPOptions(data[tcpBaseHeaderLen:dataOffset])
	if err != nil {
		return TCPHeader{}, nil, err
	}
	h.Options = opts

	return h, data[dataOffset:], nil
}
