package codec

import "encoding/binary"

// ICMPv6 message types the engine supports.
const (
	ICMPv6TypeEchoRequest          uint8 = 128
	ICMPv6TypeEchoReply            uint8 = 129
	ICMPv6TypeNeighborSolicitation uint8 = 135
	ICMPv6TypeNeighborAdvertise    uint8 = 136
)

// ICMPv6 Neighbor Discovery option types (RFC 4861).
const (
	ICMPv6OptSourceLinkAddr uint8 = 1
	ICMPv6OptTargetLinkAddr uint8 = 2
)

// ICMPv6Message is a generic envelope covering Echo and Neighbor Discovery
// messages; Body holds the message-type-specific fixed fields (Echo
// identifier/sequence, or NS/NA target address), and Options holds any
// trailing Source/Target Link-Layer Address options.
type ICMPv6Message struct {
	Type    uint8
	Code    uint8
	Body    []byte
	Options []ICMPv6Option
}

// ICMPv6Option is one Neighbor Discovery option (RFC 4861 §4.6): an 8-bit
// type, a length in 8-octet units, and type-specific data.
type ICMPv6Option struct {
	Type uint8
	Data []byte // for Link-Layer Address options, the 6-byte MAC
}

// BuildEchoRequest builds an ICMPv6 Echo Request body (identifier+sequence)
// given the caller-chosen payload.
func BuildEchoRequest(id, seq uint16, payload []byte) ICMPv6Message {
	body := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint16(body[0:2], id)
	binary.BigEndian.PutUint16(body[2:4], seq)
	copy(body[4:], payload)
	return ICMPv6Message{Type: ICMPv6TypeEchoRequest, Body: body}
}

// BuildNeighborSolicitation builds an NS message targeting targetAddr,
// optionally carrying a Source Link-Layer Address option.
func BuildNeighborSolicitation(targetAddr [16]byte, srcMAC *MACAddr) ICMPv6Message {
	m := ICMPv6Message{Type: ICMPv6TypeNeighborSolicitation, Body: append([]byte{0, 0, 0, 0}, targetAddr[:]...)}
	if srcMAC != nil {
		m.Options = append(m.Options, ICMPv6Option{Type: ICMPv6OptSourceLinkAddr, Data: srcMAC[:]})
	}
	return m
}

// BuildNeighborAdvertisement builds an NA message for targetAddr with the
// Router/Solicited/Override flags packed into the reserved word, optionally
// carrying a Target Link-Layer Address option.
func BuildNeighborAdvertisement(targetAddr [16]byte, router, solicited, override bool, targetMAC *MACAddr) ICMPv6Message {
	var flags uint32
	if router {
		flags |= 1 << 31
	}
	if solicited {
		flags |= 1 << 30
	}
	if override {
		flags |= 1 << 29
	}
	body := make([]byte, 20)
	binary.BigEndian.PutUint32(body[0:4], flags)
	copy(body[4:20], targetAddr[:])
	m := ICMPv6Message{Type: ICMPv6TypeNeighborAdvertise, Body: body}
	if targetMAC != nil {
		m.Options = append(m.Options, ICMPv6Option{Type: ICMPv6OptTargetLinkAddr, Data: targetMAC[:]})
	}
	return m
}

// BuildICMPv6 serializes the message and computes the checksum over the
// IPv6 pseudo-header + ICMPv6 message, per RFC 4443 §2.3.
func BuildICMPv6(ipHdr IPv6Header, m ICMPv6Message) []byte {
	raw := serializeICMPv6(m)
	sum := l4Checksum(checksumIPv6Pseudo(ipHdr, len(raw)), raw)
	binary.BigEndian.PutUint16(raw[2:4], sum)
	return raw
}

func serializeICMPv6(m ICMPv6Message) []byte {
	buf := make([]byte, 4, 4+len(m.Body)+8*len(m.Options))
	buf[0] = m.Type
	buf[1] = m.Code
	// buf[2:4] checksum, filled by caller
	buf = append(buf, m.Body...)
	for _, o := range m.Options {
		unitLen := (2 + len(o.Data) + 7) / 8
		buf = append(buf, o.Type, byte(unitLen))
		buf = append(buf, o.Data...)
		if pad := unitLen*8 - (2 + len(o.Data)); pad > 0 {
			buf = append(buf, make([]byte, pad)...)
		}
	}
	return buf
}

// ParseICMPv6 parses a message built by BuildICMPv6/serializeICMPv6. Body
// length is inferred from the message type; any trailing bytes are parsed
// as Neighbor Discovery options.
func ParseICMPv6(data []byte) (ICMPv6Message, error) {
	if len(data) < 4 {
		return ICMPv6Message{}, ErrTruncated
	}
	m := ICMPv6Message{Type: data[0], Code: data[1]}

	var bodyLen int
	switch m.Type {
	case ICMPv6TypeEchoRequest, ICMPv6TypeEchoReply:
		bodyLen = len(data) - 4
	case ICMPv6TypeNeighborSolicitation:
		bodyLen = 20
	case ICMPv6TypeNeighborAdvertise:
		bodyLen = 20
	default:
		bodyLen = len(data) - 4
	}
	if 4+bodyLen > len(data) {
		return ICMPv6Message{}, ErrTruncated
	}
	m.Body = data[4 : 4+bodyLen]

	off := 4 + bodyLen
	for off < len(data) {
		if off+2 > len(data) {
			return ICMPv6Message{}, ErrTruncated
		}
		optType := data[off]
		unitLen := int(data[off+1])
		if unitLen == 0 || off+unitLen*8 > len(data) {
			return ICMPv6Message{}, ErrTruncated
		}
		m.Options = append(m.Options, ICMPv6Option{Type: optType, Data: data[off+2 : off+unitLen*8]})
		off += unitLen * 8
	}

	return m, nil
}
