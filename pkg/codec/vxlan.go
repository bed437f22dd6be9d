package codec

import "encoding/binary"

const vxlanHeaderLen = 8

// BuildVXLAN wraps an inner Ethernet frame in a VXLAN header (RFC 7348): the
// I flag set, an 8-bit reserved field, the 24-bit VNI, and a final reserved
// byte. The result is the UDP payload; callers build the outer UDP/IP/
// Ethernet stack around it with dst port VXLANPort.
func BuildVXLAN(vni uint32, innerFrame []byte) []byte {
	buf := make([]byte, vxlanHeaderLen, vxlanHeaderLen+len(innerFrame))
	buf[0] = 0x08 // I flag
	binary.BigEndian.PutUint32(buf[4:8], (vni&0xFFFFFF)<<8)
	return append(buf, innerFrame...)
}

// ParseVXLAN splits a VXLAN UDP payload into its VNI and inner Ethernet
// frame.
func ParseVXLAN(data []byte) (vni uint32, inner []byte, err error) {
	if len(data) < vxlanHeaderLen {
		return 0, nil, ErrTruncated
	}
	if data[0]&0x08 == 0 {
		return 0, nil, ErrTruncated
	}
	vni = binary.BigEndian.Uint32(data[4:8]) >> 8
	return vni, data[vxlanHeaderLen:], nil
}
