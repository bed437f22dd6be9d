package bgp

import (
	"encoding/binary"

	"github.com/netgenlab/trafficgen/pkg/codec"
)

// groupByNextHop partitions routes by NextHop so each group becomes
// one UPDATE message sharing one set of path attributes.
func groupByNextHop(routes []Route) map[[4]byte][]Route {
	groups := make(map[[4]byte][]Route)
	for _, r := range routes {
		groups[r.NextHop] = append(groups[r.NextHop], r)
	}
	return groups
}

func asPathAttribute(localASN uint32) codec.BGPAttribute {
	// One AS_SEQUENCE segment: type(1)=2, length(1)=segment count, then
	// one 2-byte ASN (4-byte ASNs in AS_PATH are out of scope here since
	// this speaker only ever has one hop to report).
	asn := make([]byte, 2)
	binary.BigEndian.PutUint16(asn, uint16(localASN))
	value := append([]byte{2, 1}, asn...)
	return codec.BGPAttribute{Flags: codec.BGPAttrFlagTransitive, Type: codec.BGPAttrASPath, Value: value}
}

func originAttribute() codec.BGPAttribute {
	return codec.BGPAttribute{Flags: codec.BGPAttrFlagTransitive, Type: codec.BGPAttrOrigin, Value: []byte{0}} // IGP
}

func nextHopAttribute(nh [4]byte) codec.BGPAttribute {
	return codec.BGPAttribute{Flags: codec.BGPAttrFlagTransitive, Type: codec.BGPAttrNextHop, Value: append([]byte{}, nh[:]...)}
}

func localPrefAttribute(pref uint32) codec.BGPAttribute {
	value := make([]byte, 4)
	binary.BigEndian.PutUint32(value, pref)
	return codec.BGPAttribute{Flags: codec.BGPAttrFlagTransitive, Type: codec.BGPAttrLocalPref, Value: value}
}

// buildAdvertiseUpdates builds one UPDATE message per next-hop group,
// each carrying ORIGIN, AS_PATH, NEXT_HOP, and an optional LOCAL_PREF,
// with NLRI packed via codec.BuildBGPPrefix.
func buildAdvertiseUpdates(localASN uint32, routes []Route) ([][]byte, error) {
	var messages [][]byte
	for nextHop, group := range groupByNextHop(routes) {
		var attrs []byte
		attrs = append(attrs, codec.BuildBGPAttribute(originAttribute())...)
		attrs = append(attrs, codec.BuildBGPAttribute(asPathAttribute(localASN))...)
		attrs = append(attrs, codec.BuildBGPAttribute(nextHopAttribute(nextHop))...)
		if lp := commonLocalPref(group); lp != 0 {
			attrs = append(attrs, codec.BuildBGPAttribute(localPrefAttribute(lp))...)
		}

		var nlri []byte
		for _, r := range group {
			nlri = append(nlri, codec.BuildBGPPrefix(codec.CIDRToPrefix(r.Prefix, r.PrefixLen))...)
		}

		body := make([]byte, 0, 2+2+len(attrs)+len(nlri))
		body = append(body, 0, 0) // Withdrawn Routes Length = 0
		attrLen := make([]byte, 2)
		binary.BigEndian.PutUint16(attrLen, uint16(len(attrs)))
		body = append(body, attrLen...)
		body = append(body, attrs...)
		body = append(body, nlri...)

		msg, err := codec.BuildBGPMessage(codec.BGPTypeUpdate, body)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// buildWithdrawUpdates builds one UPDATE per next-hop group with a
// populated Withdrawn Routes field and no path attributes or NLRI.
func buildWithdrawUpdates(routes []Route) ([][]byte, error) {
	var messages [][]byte
	for _, group := range groupByNextHop(routes) {
		var withdrawn []byte
		for _, r := range group {
			withdrawn = append(withdrawn, codec.BuildBGPPrefix(codec.CIDRToPrefix(r.Prefix, r.PrefixLen))...)
		}

		body := make([]byte, 0, 2+len(withdrawn)+2)
		wLen := make([]byte, 2)
		binary.BigEndian.PutUint16(wLen, uint16(len(withdrawn)))
		body = append(body, wLen...)
		body = append(body, withdrawn...)
		body = append(body, 0, 0) // Total Path Attribute Length = 0

		msg, err := codec.BuildBGPMessage(codec.BGPTypeUpdate, body)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// commonLocalPref returns the group's LOCAL_PREF if every route in the
// group shares a nonzero value, else 0 (omit the attribute).
func commonLocalPref(group []Route) uint32 {
	if len(group) == 0 || group[0].LocalPref == 0 {
		return 0
	}
	lp := group[0].LocalPref
	for _, r := range group[1:] {
		if r.LocalPref != lp {
			return 0
		}
	}
	return lp
}

func buildKeepalive() ([]byte, error) {
	return codec.BuildBGPMessage(codec.BGPTypeKeepalive, nil)
}

func buildNotification(code, subcode uint8, data []byte) ([]byte, error) {
	body := append([]byte{code, subcode}, data...)
	return codec.BuildBGPMessage(codec.BGPTypeNotification, body)
}
