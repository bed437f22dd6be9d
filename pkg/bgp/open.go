package bgp

import (
	"encoding/binary"

	"github.com/netgenlab/trafficgen/pkg/codec"
)

const asTrans uint32 = 23456 // RFC 6793 placeholder ASN for 4-byte-ASN speakers

const (
	capMultiprotocol   uint8 = 1
	capRouteRefresh    uint8 = 2
	capGracefulRestart uint8 = 64
	capFourByteASN     uint8 = 65
)

const optParamCapabilities uint8 = 2

// buildCapabilities encodes the negotiated capability set as one
// Optional Parameter (type 2) wrapping one or more capability TLVs.
func (c Config) buildCapabilities() []byte {
	var caps []byte

	if c.Multiprotocol {
		// AFI=1 (IPv4), reserved=0, SAFI=1 (unicast).
		caps = append(caps, capMultiprotocol, 4, 0, 1, 0, 1)
	}
	if c.RouteRefresh {
		caps = append(caps, capRouteRefresh, 0)
	}
	if c.GracefulRestart {
		// RFC 4724 Graceful Restart Capability with no per-AFI entries:
		// restart flag (top nibble) and restart time (low 12 bits) both
		// zero, advertising the capability without promising to preserve
		// any forwarding state across a restart this engine never does.
		caps = append(caps, capGracefulRestart, 2, 0, 0)
	}
	if c.useFourByteASN() {
		asn := make([]byte, 4)
		binary.BigEndian.PutUint32(asn, c.LocalASN)
		caps = append(caps, capFourByteASN, 4)
		caps = append(caps, asn...)
	}

	if len(caps) == 0 {
		return nil
	}
	param := make([]byte, 2, 2+len(caps))
	param[0] = optParamCapabilities
	param[1] = byte(len(caps))
	return append(param, caps...)
}

func (c Config) useFourByteASN() bool {
	return c.FourByteASN || c.LocalASN > 0xFFFF
}

func (c Config) myASField() uint16 {
	if c.useFourByteASN() {
		return uint16(asTrans)
	}
	return uint16(c.LocalASN)
}

// buildOpen assembles a full OPEN message (header included).
func buildOpen(c Config) ([]byte, error) {
	params := c.buildCapabilities()

	body := make([]byte, 0, 10+len(params))
	body = append(body, 4) // version
	asField := make([]byte, 2)
	binary.BigEndian.PutUint16(asField, c.myASField())
	body = append(body, asField...)

	holdTime := make([]byte, 2)
	binary.BigEndian.PutUint16(holdTime, c.HoldTimeSec)
	body = append(body, holdTime...)

	var routerID [4]byte
	copy(routerID[:], c.RouterID.To4())
	body = append(body, routerID[:]...)

	body = append(body, byte(len(params)))
	body = append(body, params...)

	return codec.BuildBGPMessage(codec.BGPTypeOpen, body)
}
