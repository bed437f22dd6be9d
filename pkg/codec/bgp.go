package codec

import "encoding/binary"

// BGP-4 message header (RFC 4271 §4.1): a 16-byte marker (all-ones, since
// authentication is never negotiated here), a 16-bit total length, and a
// 1-byte type.
const (
	BGPMarkerLen = 16
	BGPHeaderLen = BGPMarkerLen + 2 + 1
	BGPMaxLen    = 4096
)

const (
	BGPTypeOpen         uint8 = 1
	BGPTypeUpdate       uint8 = 2
	BGPTypeNotification uint8 = 3
	BGPTypeKeepalive    uint8 = 4
)

// BGP path attribute flags (RFC 4271 §4.3).
const (
	BGPAttrFlagOptional   uint8 = 1 << 7
	BGPAttrFlagTransitive uint8 = 1 << 6
	BGPAttrFlagPartial    uint8 = 1 << 5
	BGPAttrFlagExtLength  uint8 = 1 << 4
)

// BGP path attribute type codes used by this engine.
const (
	BGPAttrOrigin    uint8 = 1
	BGPAttrASPath    uint8 = 2
	BGPAttrNextHop   uint8 = 3
	BGPAttrLocalPref uint8 = 5
)

// BuildBGPMessage wraps a message body with the shared marker/length/type
// header.
func BuildBGPMessage(msgType uint8, body []byte) ([]byte, error) {
	total := BGPHeaderLen + len(body)
	if total > BGPMaxLen {
		return nil, ErrFrameTooShort
	}
	buf := make([]byte, BGPHeaderLen, total)
	for i := 0; i < BGPMarkerLen; i++ {
		buf[i] = 0xFF
	}
	binary.BigEndian.PutUint16(buf[BGPMarkerLen:BGPMarkerLen+2], uint16(total))
	buf[BGPMarkerLen+2] = msgType
	return append(buf, body...), nil
}

// ParseBGPHeader validates the marker and returns the declared length and
// message type, without consuming the body.
func ParseBGPHeader(data []byte) (length uint16, msgType uint8, err error) {
	if len(data) < BGPHeaderLen {
		return 0, 0, ErrTruncated
	}
	for i := 0; i < BGPMarkerLen; i++ {
		if data[i] != 0xFF {
			return 0, 0, ErrTruncated
		}
	}
	length = binary.BigEndian.Uint16(data[BGPMarkerLen : BGPMarkerLen+2])
	if int(length) > len(data) || length < BGPHeaderLen {
		return 0, 0, ErrLengthOverrun
	}
	msgType = data[BGPMarkerLen+2]
	return length, msgType, nil
}

// BGPAttribute is one path attribute TLV. Extended-length encoding (a
// 2-byte length instead of 1) is applied automatically by
// BuildBGPAttribute when len(Value) > 255.
type BGPAttribute struct {
	Flags uint8
	Type  uint8
	Value []byte
}

// BuildBGPAttribute serializes one path attribute TLV.
func BuildBGPAttribute(a BGPAttribute) []byte {
	flags := a.Flags
	var lenBytes []byte
	if len(a.Value) > 255 {
		flags |= BGPAttrFlagExtLength
		lenBytes = make([]byte, 2)
		binary.BigEndian.PutUint16(lenBytes, uint16(len(a.Value)))
	} else {
		flags &^= BGPAttrFlagExtLength
		lenBytes = []byte{byte(len(a.Value))}
	}
	buf := make([]byte, 0, 2+len(lenBytes)+len(a.Value))
	buf = append(buf, flags, a.Type)
	buf = append(buf, lenBytes...)
	buf = append(buf, a.Value...)
	return buf
}

// ParseBGPAttribute parses one path attribute TLV and returns the number of
// bytes consumed.
func ParseBGPAttribute(data []byte) (BGPAttribute, int, error) {
	if len(data) < 3 {
		return BGPAttribute{}, 0, ErrTruncated
	}
	flags, typ := data[0], data[1]
	var length int
	var consumed int
	if flags&BGPAttrFlagExtLength != 0 {
		if len(data) < 4 {
			return BGPAttribute{}, 0, ErrTruncated
		}
		length = int(binary.BigEndian.Uint16(data[2:4]))
		consumed = 4
	} else {
		length = int(data[2])
		consumed = 3
	}
	if consumed+length > len(data) {
		return BGPAttribute{}, 0, ErrLengthOverrun
	}
	return BGPAttribute{Flags: flags, Type: typ, Value: data[consumed : consumed+length]}, consumed + length, nil
}

// BGPPrefix is one NLRI or Withdrawn Routes entry: a prefix length in bits
// and the minimum rounded-up octets of the address.
type BGPPrefix struct {
	PrefixLen uint8
	Octets    []byte // len = ceil(PrefixLen/8)
}

// BuildBGPPrefix packs one prefix-length-bits + octets entry.
func BuildBGPPrefix(p BGPPrefix) []byte {
	buf := make([]byte, 1, 1+len(p.Octets))
	buf[0] = p.PrefixLen
	return append(buf, p.Octets...)
}

// ParseBGPPrefix parses one prefix entry and returns bytes consumed.
func ParseBGPPrefix(data []byte) (BGPPrefix, int, error) {
	if len(data) < 1 {
		return BGPPrefix{}, 0, ErrTruncated
	}
	prefixLen := data[0]
	octetLen := (int(prefixLen) + 7) / 8
	if 1+octetLen > len(data) {
		return BGPPrefix{}, 0, ErrTruncated
	}
	return BGPPrefix{PrefixLen: prefixLen, Octets: data[1 : 1+octetLen]}, 1 + octetLen, nil
}

// CIDRToPrefix converts a 4-byte IPv4 address and mask length into a
// BGPPrefix with the minimum octets for that mask length.
func CIDRToPrefix(addr [4]byte, prefixLen uint8) BGPPrefix {
	octetLen := (int(prefixLen) + 7) / 8
	return BGPPrefix{PrefixLen: prefixLen, Octets: append([]byte{}, addr[:octetLen]...)}
}
