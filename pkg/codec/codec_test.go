package codec

import (
	"reflect"
	"testing"
	"time"
)

func TestBuildParseEthernetRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   EthernetFrame
	}{
		{
			name: "plain ipv4",
			in: EthernetFrame{
				DstMAC:    MACAddr{0x02, 0, 0, 0, 0, 1},
				SrcMAC:    MACAddr{0x02, 0, 0, 0, 0, 2},
				EtherType: EtherTypeIPv4,
				Payload:   append([]byte{}, make([]byte, 46)...),
			},
		},
		{
			name: "single 802.1Q tag",
			in: EthernetFrame{
				DstMAC:    MACAddr{0x02, 0, 0, 0, 0, 1},
				SrcMAC:    MACAddr{0x02, 0, 0, 0, 0, 2},
				InnerVLAN: &VLANTag{PCP: 5, DEI: true, VID: 100},
				EtherType: EtherTypeIPv6,
				Payload:   append([]byte{}, make([]byte, 46)...),
			},
		},
		{
			name: "Q-in-Q outer+inner",
			in: EthernetFrame{
				DstMAC:    MACAddr{0x02, 0, 0, 0, 0, 1},
				SrcMAC:    MACAddr{0x02, 0, 0, 0, 0, 2},
				OuterVLAN: &VLANTag{PCP: 1, VID: 10},
				InnerVLAN: &VLANTag{PCP: 2, DEI: true, VID: 20},
				EtherType: EtherTypeIPv4,
				Payload:   append([]byte{}, make([]byte, 46)...),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := BuildEthernet(tt.in)
			if err != nil {
				t.Fatalf("BuildEthernet: %v", err)
			}
			got, err := ParseEthernet(frame)
			if err != nil {
				t.Fatalf("ParseEthernet: %v", err)
			}
			if got.DstMAC != tt.in.DstMAC || got.SrcMAC != tt.in.SrcMAC {
				t.Fatalf("MAC round trip = %+v, want %+v", got, tt.in)
			}
			if !reflect.DeepEqual(got.OuterVLAN, tt.in.OuterVLAN) {
				t.Fatalf("OuterVLAN = %+v, want %+v", got.OuterVLAN, tt.in.OuterVLAN)
			}
			if !reflect.DeepEqual(got.InnerVLAN, tt.in.InnerVLAN) {
				t.Fatalf("InnerVLAN = %+v, want %+v", got.InnerVLAN, tt.in.InnerVLAN)
			}
			if got.EtherType != tt.in.EtherType {
				t.Fatalf("EtherType = %#x, want %#x", got.EtherType, tt.in.EtherType)
			}
			if !reflect.DeepEqual(got.Payload, tt.in.Payload) {
				t.Fatalf("Payload = %v, want %v", got.Payload, tt.in.Payload)
			}
		})
	}
}

// An MPLS-tagged frame carries no inner EtherType on the wire; the parser
// reports EtherTypeMPLS rather than the original L3 type, so this is
// verified separately from the field-for-field cases above.
func TestBuildParseEthernetMPLSReportsMPLSEtherType(t *testing.T) {
	in := EthernetFrame{
		DstMAC:     MACAddr{0x02, 0, 0, 0, 0, 1},
		SrcMAC:     MACAddr{0x02, 0, 0, 0, 0, 2},
		MPLSLabels: []MPLSLabel{{Label: 100, TC: 3, BoS: false, TTL: 64}, {Label: 200, TC: 1, BoS: true, TTL: 32}},
		EtherType:  EtherTypeIPv4,
		Payload:    append([]byte{}, make([]byte, 46)...),
	}
	frame, err := BuildEthernet(in)
	if err != nil {
		t.Fatalf("BuildEthernet: %v", err)
	}
	got, err := ParseEthernet(frame)
	if err != nil {
		t.Fatalf("ParseEthernet: %v", err)
	}
	if got.EtherType != EtherTypeMPLS {
		t.Fatalf("EtherType = %#x, want EtherTypeMPLS", got.EtherType)
	}
	if !reflect.DeepEqual(got.MPLSLabels, in.MPLSLabels) {
		t.Fatalf("MPLSLabels = %+v, want %+v", got.MPLSLabels, in.MPLSLabels)
	}
}

func TestBuildParseEthernetTooShortReturnsErrFrameTooShort(t *testing.T) {
	_, err := BuildEthernet(EthernetFrame{EtherType: EtherTypeIPv4, Payload: []byte{1, 2, 3}})
	if err != ErrFrameTooShort {
		t.Fatalf("err = %v, want ErrFrameTooShort", err)
	}
}

func TestBuildParseIPv4RoundTrip(t *testing.T) {
	h := IPv4Header{DSCP: 46, ID: 1234, TTL: 64, Protocol: ProtoUDP, Src: [4]byte{10, 0, 0, 1}, Dst: [4]byte{10, 0, 0, 2}}
	payload := []byte("hello ipv4")

	frame, err := BuildIPv4(h, payload)
	if err != nil {
		t.Fatalf("BuildIPv4: %v", err)
	}
	got, gotPayload, err := ParseIPv4(frame)
	if err != nil {
		t.Fatalf("ParseIPv4: %v", err)
	}
	if got.DSCP != h.DSCP || got.ID != h.ID || got.TTL != h.TTL || got.Protocol != h.Protocol {
		t.Fatalf("header = %+v, want %+v", got, h)
	}
	if got.Src != h.Src || got.Dst != h.Dst {
		t.Fatalf("addrs = %+v, want %+v", got, h)
	}
	if !reflect.DeepEqual(gotPayload, payload) {
		t.Fatalf("payload = %q, want %q", gotPayload, payload)
	}
}

func TestParseIPv4Truncated(t *testing.T) {
	if _, _, err := ParseIPv4(make([]byte, 10)); err != ErrTruncated {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestBuildParseIPv6RoundTrip(t *testing.T) {
	h := IPv6Header{DSCP: 10, FlowLabel: 0xABCDE, NextHeader: ProtoUDP, HopLimit: 64,
		Src: [16]byte{0x20, 0x01, 0xd, 0xb8}, Dst: [16]byte{0x20, 0x01, 0xd, 0xb8, 1}}
	payload := []byte("hello ipv6")

	frame, err := BuildIPv6(h, payload)
	if err != nil {
		t.Fatalf("BuildIPv6: %v", err)
	}
	got, gotPayload, err := ParseIPv6(frame)
	if err != nil {
		t.Fatalf("ParseIPv6: %v", err)
	}
	if got.DSCP != h.DSCP || got.FlowLabel != h.FlowLabel || got.NextHeader != h.NextHeader || got.HopLimit != h.HopLimit {
		t.Fatalf("header = %+v, want %+v", got, h)
	}
	if got.Src != h.Src || got.Dst != h.Dst {
		t.Fatalf("addrs = %+v, want %+v", got, h)
	}
	if !reflect.DeepEqual(gotPayload, payload) {
		t.Fatalf("payload = %q, want %q", gotPayload, payload)
	}
}

func TestBuildParseUDPv4RoundTrip(t *testing.T) {
	ipHdr := IPv4Header{Src: [4]byte{10, 0, 0, 1}, Dst: [4]byte{10, 0, 0, 2}}
	h := UDPHeader{SrcPort: 1000, DstPort: 2000}
	payload := []byte("udp payload")

	seg := BuildUDPv4(ipHdr, h, payload)
	got, gotPayload, err := ParseUDP(seg)
	if err != nil {
		t.Fatalf("ParseUDP: %v", err)
	}
	if got != h {
		t.Fatalf("header = %+v, want %+v", got, h)
	}
	if !reflect.DeepEqual(gotPayload, payload) {
		t.Fatalf("payload = %q, want %q", gotPayload, payload)
	}
}

func TestBuildParseUDPv6RoundTrip(t *testing.T) {
	ipHdr := IPv6Header{Src: [16]byte{0x20, 1}, Dst: [16]byte{0x20, 2}}
	h := UDPHeader{SrcPort: 3000, DstPort: 4000}
	payload := []byte("udp6 payload")

	seg := BuildUDPv6(ipHdr, h, payload)
	got, gotPayload, err := ParseUDP(seg)
	if err != nil {
		t.Fatalf("ParseUDP: %v", err)
	}
	if got != h {
		t.Fatalf("header = %+v, want %+v", got, h)
	}
	if !reflect.DeepEqual(gotPayload, payload) {
		t.Fatalf("payload = %q, want %q", gotPayload, payload)
	}
}

func TestBuildParseTCPv4RoundTrip(t *testing.T) {
	ipHdr := IPv4Header{Src: [4]byte{10, 0, 0, 1}, Dst: [4]byte{10, 0, 0, 2}}
	h := TCPHeader{SrcPort: 1111, DstPort: 2222, Seq: 111, Ack: 222, Flags: TCPFlagSYN | TCPFlagACK, Window: 65535, UrgentPtr: 0}
	payload := []byte("tcp payload")

	seg, err := BuildTCPv4(ipHdr, h, payload)
	if err != nil {
		t.Fatalf("BuildTCPv4: %v", err)
	}
	got, gotPayload, err := ParseTCP(seg)
	if err != nil {
		t.Fatalf("ParseTCP: %v", err)
	}
	if got.SrcPort != h.SrcPort || got.DstPort != h.DstPort || got.Seq != h.Seq || got.Ack != h.Ack ||
		got.Flags != h.Flags || got.Window != h.Window || got.UrgentPtr != h.UrgentPtr {
		t.Fatalf("header = %+v, want %+v", got, h)
	}
	if !reflect.DeepEqual(gotPayload, payload) {
		t.Fatalf("payload = %q, want %q", gotPayload, payload)
	}
}

func TestBuildParseTCPv6RoundTrip(t *testing.T) {
	ipHdr := IPv6Header{Src: [16]byte{0x20, 1}, Dst: [16]byte{0x20, 2}}
	h := TCPHeader{SrcPort: 5555, DstPort: 6666, Seq: 9, Ack: 10, Flags: TCPFlagFIN, Window: 1024}
	payload := []byte("tcp6 payload")

	seg, err := BuildTCPv6(ipHdr, h, payload)
	if err != nil {
		t.Fatalf("BuildTCPv6: %v", err)
	}
	got, gotPayload, err := ParseTCP(seg)
	if err != nil {
		t.Fatalf("ParseTCP: %v", err)
	}
	if got.SrcPort != h.SrcPort || got.DstPort != h.DstPort || got.Seq != h.Seq || got.Ack != h.Ack || got.Flags != h.Flags {
		t.Fatalf("header = %+v, want %+v", got, h)
	}
	if !reflect.DeepEqual(gotPayload, payload) {
		t.Fatalf("payload = %q, want %q", gotPayload, payload)
	}
}

// BuildTCPOptions NOP-pads to a 4-byte boundary, so ParseTCPOptions can
// surface more NOPs than were passed in; this compares against the padded
// form rather than the original option list.
func TestBuildParseTCPOptionsRoundTripWithPadding(t *testing.T) {
	opts := []TCPOption{
		{Kind: TCPOptMSS, Data: []byte{0x05, 0xB4}},
		{Kind: TCPOptSACKPermit},
	}
	raw := BuildTCPOptions(opts)
	if len(raw)%4 != 0 {
		t.Fatalf("len(raw) = %d, not 4-byte aligned", len(raw))
	}
	got, err := ParseTCPOptions(raw)
	if err != nil {
		t.Fatalf("ParseTCPOptions: %v", err)
	}
	rebuilt := BuildTCPOptions(got)
	if !reflect.DeepEqual(rebuilt, raw) {
		t.Fatalf("re-encoded options = %v, want %v", rebuilt, raw)
	}
}

func TestBuildParseICMPv6EchoRequestRoundTrip(t *testing.T) {
	ipHdr := IPv6Header{Src: [16]byte{0x20, 1}, Dst: [16]byte{0x20, 2}, NextHeader: ProtoICMPv6}
	msg := BuildEchoRequest(7, 42, []byte("ping"))

	raw := BuildICMPv6(ipHdr, msg)
	got, err := ParseICMPv6(raw)
	if err != nil {
		t.Fatalf("ParseICMPv6: %v", err)
	}
	if got.Type != ICMPv6TypeEchoRequest {
		t.Fatalf("Type = %d, want EchoRequest", got.Type)
	}
	if !reflect.DeepEqual(got.Body, msg.Body) {
		t.Fatalf("Body = %v, want %v", got.Body, msg.Body)
	}
}

func TestBuildParseICMPv6NeighborSolicitationRoundTrip(t *testing.T) {
	ipHdr := IPv6Header{Src: [16]byte{0x20, 1}, Dst: [16]byte{0x20, 2}, NextHeader: ProtoICMPv6}
	mac := MACAddr{0x02, 0, 0, 0, 0, 9}
	target := [16]byte{0x20, 0x01, 0xd, 0xb8, 0xff}
	msg := BuildNeighborSolicitation(target, &mac)

	raw := BuildICMPv6(ipHdr, msg)
	got, err := ParseICMPv6(raw)
	if err != nil {
		t.Fatalf("ParseICMPv6: %v", err)
	}
	if got.Type != ICMPv6TypeNeighborSolicitation {
		t.Fatalf("Type = %d, want NeighborSolicitation", got.Type)
	}
	if !reflect.DeepEqual(got.Body, msg.Body) {
		t.Fatalf("Body = %v, want %v", got.Body, msg.Body)
	}
	if len(got.Options) != 1 || got.Options[0].Type != ICMPv6OptSourceLinkAddr || !reflect.DeepEqual(got.Options[0].Data, mac[:]) {
		t.Fatalf("Options = %+v, want one SourceLinkAddr option carrying %v", got.Options, mac[:])
	}
}

func TestBuildParseICMPv6NeighborAdvertisementRoundTrip(t *testing.T) {
	ipHdr := IPv6Header{Src: [16]byte{0x20, 1}, Dst: [16]byte{0x20, 2}, NextHeader: ProtoICMPv6}
	mac := MACAddr{0x02, 0, 0, 0, 0, 10}
	target := [16]byte{0x20, 0x01, 0xd, 0xb8, 0xfe}
	msg := BuildNeighborAdvertisement(target, true, true, false, &mac)

	raw := BuildICMPv6(ipHdr, msg)
	got, err := ParseICMPv6(raw)
	if err != nil {
		t.Fatalf("ParseICMPv6: %v", err)
	}
	if got.Type != ICMPv6TypeNeighborAdvertise {
		t.Fatalf("Type = %d, want NeighborAdvertise", got.Type)
	}
	if !reflect.DeepEqual(got.Body, msg.Body) {
		t.Fatalf("Body = %v, want %v", got.Body, msg.Body)
	}
	if len(got.Options) != 1 || got.Options[0].Type != ICMPv6OptTargetLinkAddr || !reflect.DeepEqual(got.Options[0].Data, mac[:]) {
		t.Fatalf("Options = %+v, want one TargetLinkAddr option carrying %v", got.Options, mac[:])
	}
}

func TestBuildParseVXLANRoundTrip(t *testing.T) {
	inner := []byte("inner ethernet frame bytes")
	raw := BuildVXLAN(0x123456, inner)

	vni, gotInner, err := ParseVXLAN(raw)
	if err != nil {
		t.Fatalf("ParseVXLAN: %v", err)
	}
	if vni != 0x123456 {
		t.Fatalf("vni = %#x, want %#x", vni, 0x123456)
	}
	if !reflect.DeepEqual(gotInner, inner) {
		t.Fatalf("inner = %v, want %v", gotInner, inner)
	}
}

func TestParseVXLANRejectsMissingIFlag(t *testing.T) {
	raw := BuildVXLAN(1, []byte("x"))
	raw[0] = 0 // clear the I flag
	if _, _, err := ParseVXLAN(raw); err == nil {
		t.Fatal("ParseVXLAN: err = nil, want error when I flag is unset")
	}
}

func TestBuildParseBGPMessageRoundTrip(t *testing.T) {
	body := []byte{1, 2, 3, 4, 5}
	msg, err := BuildBGPMessage(BGPTypeUpdate, body)
	if err != nil {
		t.Fatalf("BuildBGPMessage: %v", err)
	}
	length, msgType, err := ParseBGPHeader(msg)
	if err != nil {
		t.Fatalf("ParseBGPHeader: %v", err)
	}
	if msgType != BGPTypeUpdate {
		t.Fatalf("msgType = %d, want BGPTypeUpdate", msgType)
	}
	if int(length) != BGPHeaderLen+len(body) {
		t.Fatalf("length = %d, want %d", length, BGPHeaderLen+len(body))
	}
	if !reflect.DeepEqual(msg[BGPHeaderLen:], body) {
		t.Fatalf("body = %v, want %v", msg[BGPHeaderLen:], body)
	}
}

func TestBuildParseBGPAttributeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		attr BGPAttribute
	}{
		{
			name: "standard length",
			attr: BGPAttribute{Flags: BGPAttrFlagTransitive, Type: BGPAttrOrigin, Value: []byte{0}},
		},
		{
			name: "extended length",
			attr: BGPAttribute{Flags: BGPAttrFlagOptional | BGPAttrFlagTransitive, Type: BGPAttrASPath, Value: make([]byte, 300)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := BuildBGPAttribute(tt.attr)
			wantExtLength := len(tt.attr.Value) > 255

			got, consumed, err := ParseBGPAttribute(raw)
			if err != nil {
				t.Fatalf("ParseBGPAttribute: %v", err)
			}
			if consumed != len(raw) {
				t.Fatalf("consumed = %d, want %d", consumed, len(raw))
			}
			if got.Type != tt.attr.Type {
				t.Fatalf("Type = %d, want %d", got.Type, tt.attr.Type)
			}
			if gotExt := got.Flags&BGPAttrFlagExtLength != 0; gotExt != wantExtLength {
				t.Fatalf("ext-length flag = %v, want %v", gotExt, wantExtLength)
			}
			if !reflect.DeepEqual(got.Value, tt.attr.Value) {
				t.Fatalf("Value len = %d, want %d", len(got.Value), len(tt.attr.Value))
			}
		})
	}
}

func TestBuildParseBGPPrefixRoundTrip(t *testing.T) {
	p := CIDRToPrefix([4]byte{192, 0, 2, 0}, 24)
	raw := BuildBGPPrefix(p)

	got, consumed, err := ParseBGPPrefix(raw)
	if err != nil {
		t.Fatalf("ParseBGPPrefix: %v", err)
	}
	if consumed != len(raw) {
		t.Fatalf("consumed = %d, want %d", consumed, len(raw))
	}
	if got.PrefixLen != p.PrefixLen || !reflect.DeepEqual(got.Octets, p.Octets) {
		t.Fatalf("prefix = %+v, want %+v", got, p)
	}
}

func TestBuildParseNetflowV5RoundTrip(t *testing.T) {
	records := []NetflowV5Record{
		{
			SrcAddr: [4]byte{10, 0, 0, 1}, DstAddr: [4]byte{10, 0, 0, 2}, NextHop: [4]byte{10, 0, 0, 254},
			Input: 1, Output: 2, Packets: 10, Octets: 1400, First: 1000, Last: 2000,
			SrcPort: 1234, DstPort: 80, TCPFlags: TCPFlagSYN, Protocol: ProtoTCP, ToS: 46,
			SrcAS: 100, DstAS: 200, SrcMask: 24, DstMask: 16,
		},
	}
	raw, err := BuildNetflowV5(5*time.Second, 99, records)
	if err != nil {
		t.Fatalf("BuildNetflowV5: %v", err)
	}
	count, flowSeq, got, err := ParseNetflowV5(raw)
	if err != nil {
		t.Fatalf("ParseNetflowV5: %v", err)
	}
	if int(count) != len(records) {
		t.Fatalf("count = %d, want %d", count, len(records))
	}
	if flowSeq != 99 {
		t.Fatalf("flowSeq = %d, want 99", flowSeq)
	}
	if !reflect.DeepEqual(got, records) {
		t.Fatalf("records = %+v, want %+v", got, records)
	}
}

func TestBuildNetflowV5RejectsTooManyRecords(t *testing.T) {
	records := make([]NetflowV5Record, NetflowV5MaxRecords+1)
	if _, err := BuildNetflowV5(0, 0, records); err != ErrFrameTooShort {
		t.Fatalf("err = %v, want ErrFrameTooShort", err)
	}
}

func TestBuildParseIPFIXMessageRoundTrip(t *testing.T) {
	records := []NetflowV5Record{{SrcAddr: [4]byte{10, 0, 0, 1}, DstAddr: [4]byte{10, 0, 0, 2}}}
	tmpl := BuildIPFIXTemplateSet()
	data := BuildIPFIXDataSet(records)

	exportTime := time.Unix(1_700_000_000, 0)
	msg := BuildIPFIXMessage(exportTime, 7, 1, tmpl, data)

	length, seq, domainID, err := ParseIPFIXHeader(msg)
	if err != nil {
		t.Fatalf("ParseIPFIXHeader: %v", err)
	}
	if int(length) != len(msg) {
		t.Fatalf("length = %d, want %d", length, len(msg))
	}
	if seq != 7 {
		t.Fatalf("seq = %d, want 7", seq)
	}
	if domainID != 1 {
		t.Fatalf("domainID = %d, want 1", domainID)
	}
}

func TestBuildIPFIXTemplateSetStructure(t *testing.T) {
	set := BuildIPFIXTemplateSet()
	setID := uint16(set[0])<<8 | uint16(set[1])
	setLen := uint16(set[2])<<8 | uint16(set[3])
	if setID != IPFIXTemplateSet {
		t.Fatalf("set id = %d, want %d", setID, IPFIXTemplateSet)
	}
	if int(setLen) != len(set) {
		t.Fatalf("declared set length = %d, want %d", setLen, len(set))
	}
	templateID := uint16(set[4])<<8 | uint16(set[5])
	if templateID != IPFIXDataTemplate {
		t.Fatalf("template id = %d, want %d", templateID, IPFIXDataTemplate)
	}
}

func TestPHBNameKnownValues(t *testing.T) {
	tests := []struct {
		dscp uint8
		want string
	}{
		{0, "default"},
		{46, "EF"},
		{8, "CS1"},
		{56, "CS7"},
		{10, "AF11"},
		{34, "AF41"},
		{38, "AF43"},
	}
	for _, tt := range tests {
		if got := PHBName(tt.dscp); got != tt.want {
			t.Errorf("PHBName(%d) = %q, want %q", tt.dscp, got, tt.want)
		}
	}
}

func TestChecksumZeroForSelfComplementingData(t *testing.T) {
	// A buffer whose 16-bit words sum to 0xFFFF folds to a zero checksum,
	// the canonical "verify over header+checksum gives zero" property.
	data := []byte{0x45, 0x00}
	sum := Checksum(data)
	verify := Checksum(append(append([]byte{}, data...), byte(sum>>8), byte(sum)))
	if verify != 0 {
		t.Fatalf("Checksum(data+checksum) = %#x, want 0", verify)
	}
}
