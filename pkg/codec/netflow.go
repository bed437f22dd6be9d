package codec

import (
	"encoding/binary"
	"time"
)

// NetFlow v5 layout constants: 24-byte header, 48-byte records, max 30
// records per datagram to UDP/2055. Grounded on the wire layout used by
// reshwanthmanupati/NetWeaver's flow parser, mirrored here for the encode
// direction.
const (
	NetflowV5HeaderLen  = 24
	NetflowV5RecordLen  = 48
	NetflowV5MaxRecords = 30
)

// NetflowV5Record is one flow summary, fed from TCP/profile counters.
type NetflowV5Record struct {
	SrcAddr  [4]byte
	DstAddr  [4]byte
	NextHop  [4]byte
	Input    uint16
	Output   uint16
	Packets  uint32
	Octets   uint32
	First    uint32 // sysUptime ms at flow start
	Last     uint32 // sysUptime ms at flow end
	SrcPort  uint16
	DstPort  uint16
	TCPFlags uint8
	Protocol uint8
	ToS      uint8
	SrcAS    uint16
	DstAS    uint16
	SrcMask  uint8
	DstMask  uint8
}

// BuildNetflowV5 packs up to NetflowV5MaxRecords records into one datagram.
// It neither splits nor truncates: passing more than the limit returns
// ErrFrameTooShort and no datagram.
func BuildNetflowV5(sysUptime time.Duration, flowSeq uint32, records []NetflowV5Record) ([]byte, error) {
	if len(records) > NetflowV5MaxRecords {
		return nil, ErrFrameTooShort
	}
	now := time.Now()
	buf := make([]byte, NetflowV5HeaderLen, NetflowV5HeaderLen+len(records)*NetflowV5RecordLen)
	binary.BigEndian.PutUint16(buf[0:2], 5)
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(records)))
	binary.BigEndian.PutUint32(buf[4:8], uint32(sysUptime.Milliseconds()))
	binary.BigEndian.PutUint32(buf[8:12], uint32(now.Unix()))
	binary.BigEndian.PutUint32(buf[12:16], uint32(now.Nanosecond()))
	binary.BigEndian.PutUint32(buf[16:20], flowSeq)
	buf[20] = 0 // engine type
	buf[21] = 0 // engine id
	binary.BigEndian.PutUint16(buf[22:24], 0)

	for _, r := range records {
		rec := make([]byte, NetflowV5RecordLen)
		copy(rec[0:4], r.SrcAddr[:])
		copy(rec[4:8], r.DstAddr[:])
		copy(rec[8:12], r.NextHop[:])
		binary.BigEndian.PutUint16(rec[12:14], r.Input)
		binary.BigEndian.PutUint16(rec[14:16], r.Output)
		binary.BigEndian.PutUint32(rec[16:20], r.Packets)
		binary.BigEndian.PutUint32(rec[20:24], r.Octets)
		binary.BigEndian.PutUint32(rec[24:28], r.First)
		binary.BigEndian.PutUint32(rec[28:32], r.Last)
		binary.BigEndian.PutUint16(rec[32:34], r.SrcPort)
		binary.BigEndian.PutUint16(rec[34:36], r.DstPort)
		rec[36] = 0
		rec[37] = r.TCPFlags
		rec[38] = r.Protocol
		rec[39] = r.ToS
		binary.BigEndian.PutUint16(rec[40:42], r.SrcAS)
		binary.BigEndian.PutUint16(rec[42:44], r.DstAS)
		rec[44] = r.SrcMask
		rec[45] = r.DstMask
		binary.BigEndian.PutUint16(rec[46:48], 0)
		buf = append(buf, rec...)
	}
	return buf, nil
}

// ParseNetflowV5 is the inverse of BuildNetflowV5, used by the harness/tests
// to verify round-trip encoding.
func ParseNetflowV5(data []byte) (count uint16, flowSeq uint32, records []NetflowV5Record, err error) {
	if len(data) < NetflowV5HeaderLen {
		return 0, 0, nil, ErrTruncated
	}
	count = binary.BigEndian.Uint16(data[2:4])
	flowSeq = binary.BigEndian.Uint32(data[16:20])
	need := NetflowV5HeaderLen + int(count)*NetflowV5RecordLen
	if need > len(data) {
		return 0, 0, nil, ErrLengthOverrun
	}
	off := NetflowV5HeaderLen
	for i := 0; i < int(count); i++ {
		rec := data[off : off+NetflowV5RecordLen]
		var r NetflowV5Record
		copy(r.SrcAddr[:], rec[0:4])
		copy(r.DstAddr[:], rec[4:8])
		copy(r.NextHop[:], rec[8:12])
		r.Input = binary.BigEndian.Uint16(rec[12:14])
		r.Output = binary.BigEndian.Uint16(rec[14:16])
		r.Packets = binary.BigEndian.Uint32(rec[16:20])
		r.Octets = binary.BigEndian.Uint32(rec[20:24])
		r.First = binary.BigEndian.Uint32(rec[24:28])
		r.Last = binary.BigEndian.Uint32(rec[28:32])
		r.SrcPort = binary.BigEndian.Uint16(rec[32:34])
		r.DstPort = binary.BigEndian.Uint16(rec[34:36])
		r.TCPFlags = rec[37]
		r.Protocol = rec[38]
		r.ToS = rec[39]
		r.SrcAS = binary.BigEndian.Uint16(rec[40:42])
		r.DstAS = binary.BigEndian.Uint16(rec[42:44])
		r.SrcMask = rec[44]
		r.DstMask = rec[45]
		records = append(records, r)
		off += NetflowV5RecordLen
	}
	return count, flowSeq, records, nil
}
