package codec

import (
	"encoding/binary"
	"time"
)

// IPFIX (RFC 7011): 16-byte message header, then one or more Sets. A
// Template Set (id=2) describes field layout; Data Sets reference a
// template id and carry the fixed-layout fields in order. The engine emits
// one fixed template (matching NetflowV5Record's fields) and Data Sets
// built against it, to UDP/4739.
const (
	IPFIXHeaderLen    = 16
	IPFIXTemplateSet  = 2
	IPFIXDataTemplate = 256 // first dynamically assignable template id, RFC 7011 §3.4.1
)

// ipfixTemplateFields enumerates (informationElementID, length) pairs for
// the one template this engine exports, mirroring NetflowV5Record's fields
// at IPFIX field widths.
var ipfixTemplateFields = []struct {
	id     uint16
	length uint16
}{
	{8, 4},  // sourceIPv4Address
	{12, 4}, // destinationIPv4Address
	{15, 4}, // ipNextHopIPv4Address
	{10, 2}, // ingressInterface
	{14, 2}, // egressInterface
	{2, 4},  // packetDeltaCount
	{1, 4},  // octetDeltaCount
	{7, 2},  // sourceTransportPort
	{11, 2}, // destinationTransportPort
	{6, 1},  // tcpControlBits
	{4, 1},  // protocolIdentifier
	{5, 1},  // ipClassOfService
}

// BuildIPFIXTemplateSet builds the Template Set describing IPFIXDataTemplate.
func BuildIPFIXTemplateSet() []byte {
	body := make([]byte, 0, 4+4*len(ipfixTemplateFields))
	body = appendU16(body, IPFIXDataTemplate)
	body = appendU16(body, uint16(len(ipfixTemplateFields)))
	for _, f := range ipfixTemplateFields {
		body = appendU16(body, f.id)
		body = appendU16(body, f.length)
	}
	set := make([]byte, 0, 4+len(body))
	set = appendU16(set, IPFIXTemplateSet)
	set = appendU16(set, uint16(4+len(body)))
	set = append(set, body...)
	return set
}

// BuildIPFIXDataSet packs records against IPFIXDataTemplate's fixed layout.
func BuildIPFIXDataSet(records []NetflowV5Record) []byte {
	const recLen = 4 + 4 + 4 + 2 + 2 + 4 + 4 + 2 + 2 + 1 + 1 + 1
	body := make([]byte, 0, len(records)*recLen)
	for _, r := range records {
		body = append(body, r.SrcAddr[:]...)
		body = append(body, r.DstAddr[:]...)
		body = append(body, r.NextHop[:]...)
		body = appendU16(body, r.Input)
		body = appendU16(body, r.Output)
		body = appendU32(body, r.Packets)
		body = appendU32(body, r.Octets)
		body = appendU16(body, r.SrcPort)
		body = appendU16(body, r.DstPort)
		body = append(body, r.TCPFlags, r.Protocol, r.ToS)
	}
	set := make([]byte, 0, 4+len(body))
	set = appendU16(set, IPFIXDataTemplate)
	set = appendU16(set, uint16(4+len(body)))
	set = append(set, body...)
	return set
}

// BuildIPFIXMessage assembles the 16-byte header plus the given sets into a
// complete datagram for UDP/4739.
func BuildIPFIXMessage(exportTime time.Time, seq, domainID uint32, sets ...[]byte) []byte {
	total := IPFIXHeaderLen
	for _, s := range sets {
		total += len(s)
	}
	buf := make([]byte, IPFIXHeaderLen, total)
	binary.BigEndian.PutUint16(buf[0:2], 10) // version
	binary.BigEndian.PutUint16(buf[2:4], uint16(total))
	binary.BigEndian.PutUint32(buf[4:8], uint32(exportTime.Unix()))
	binary.BigEndian.PutUint32(buf[8:12], seq)
	binary.BigEndian.PutUint32(buf[12:16], domainID)
	for _, s := range sets {
		buf = append(buf, s...)
	}
	return buf
}

// ParseIPFIXHeader parses just the 16-byte message header, validating that
// the declared length does not exceed the buffer.
func ParseIPFIXHeader(data []byte) (length uint16, seq, domainID uint32, err error) {
	if len(data) < IPFIXHeaderLen {
		return 0, 0, 0, ErrTruncated
	}
	length = binary.BigEndian.Uint16(data[2:4])
	if int(length) > len(data) {
		return 0, 0, 0, ErrLengthOverrun
	}
	seq = binary.BigEndian.Uint32(data[8:12])
	domainID = binary.BigEndian.Uint32(data[12:16])
	return length, seq, domainID, nil
}
