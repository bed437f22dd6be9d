// Package scheduler drives one background worker per enabled traffic
// profile: it pre-builds an immutable template frame, paces batched
// emission to the profile's target bit rate, and feeds each batch
// through the impairment pipeline to the destination interface.
package scheduler

import (
	"fmt"

	"github.com/netgenlab/trafficgen/pkg/codec"
	"github.com/netgenlab/trafficgen/pkg/impair"
)

// Protocol names the L4 (or L3-terminal) payload a profile generates.
type Protocol string

const (
	ProtoUDP    Protocol = "udp"
	ProtoTCP    Protocol = "tcp"
	ProtoICMPv6 Protocol = "icmpv6"
)

// Profile describes one traffic-generation template and its pacing and
// impairment parameters, matching POST /api/traffic-profiles's body.
type Profile struct {
	Name         string            `json:"name"`
	SrcInterface string            `json:"src_interface"`
	DstInterface string            `json:"dst_interface"`
	Protocol     Protocol          `json:"protocol"`
	RateBps      uint64            `json:"rate_bps"`
	FrameSize    int               `json:"frame_size"`
	DSCP         uint8             `json:"dscp"`
	SrcMAC       codec.MACAddr     `json:"src_mac"`
	DstMAC       codec.MACAddr     `json:"dst_mac"`
	OuterVLAN    *codec.VLANTag    `json:"outer_vlan,omitempty"`
	InnerVLAN    *codec.VLANTag    `json:"inner_vlan,omitempty"`
	MPLSLabels   []codec.MPLSLabel `json:"mpls_labels,omitempty"`
	VXLANVNI     uint32            `json:"vxlan_vni,omitempty"` // 0 disables VXLAN encapsulation
	SrcIPv4      [4]byte           `json:"src_ipv4,omitempty"`
	DstIPv4      [4]byte           `json:"dst_ipv4,omitempty"`
	SrcIPv6      [16]byte          `json:"src_ipv6,omitempty"`
	DstIPv6      [16]byte          `json:"dst_ipv6,omitempty"`
	UseIPv6      bool              `json:"use_ipv6,omitempty"`
	SrcPort      uint16            `json:"src_port,omitempty"`
	DstPort      uint16            `json:"dst_port,omitempty"`
	PayloadFill  byte              `json:"payload_fill,omitempty"`
	BatchCeiling int               `json:"batch_ceiling,omitempty"` // 0 means no profile-specific ceiling

	// IMIXPreset names a round-robin frame-size cycle (imix-internet,
	// imix-voip, imix-uniform) the worker draws from instead of the
	// fixed FrameSize. Empty disables it.
	IMIXPreset string `json:"imix_preset,omitempty"`

	Impair impair.Config `json:"impair"`
}

// buildTemplate assembles the one immutable frame this profile replicates,
// appending PayloadFill bytes after the built frame until it is
// p.FrameSize bytes (minimum EthernetMinFrame); the padding is not
// counted in the IP or UDP length fields.
func (p Profile) buildTemplate() ([]byte, error) {
	return p.buildTemplateSized(p.FrameSize)
}

// buildTemplateSized assembles one immutable frame padded out to
// frameSize bytes (minimum EthernetMinFrame), regardless of p.FrameSize.
// It backs both the single-template path and the IMIX round-robin
// template set, which needs one frame per size in its cycle.
func (p Profile) buildTemplateSized(frameSize int) ([]byte, error) {
	if frameSize < codec.EthernetMinFrame {
		frameSize = codec.EthernetMinFrame
	}

	l3, err := p.buildL3()
	if err != nil {
		return nil, fmt.Errorf("scheduler: profile %s: build L3: %w", p.Name, err)
	}

	if p.VXLANVNI != 0 {
		l3 = codec.BuildVXLAN(p.VXLANVNI, l3)
	}

	eth := codec.EthernetFrame{
		DstMAC:     p.DstMAC,
		SrcMAC:     p.SrcMAC,
		OuterVLAN:  p.OuterVLAN,
		InnerVLAN:  p.InnerVLAN,
		MPLSLabels: p.MPLSLabels,
		EtherType:  p.etherType(),
		Payload:    l3,
	}

	frame, err := codec.BuildEthernet(eth)
	if err != nil {
		return nil, fmt.Errorf("scheduler: profile %s: build ethernet: %w", p.Name, err)
	}

	if len(frame) < frameSize {
		pad := make([]byte, frameSize-len(frame))
		for i := range pad {
			pad[i] = p.PayloadFill
		}
		frame = append(frame, pad...)
	}
	return frame, nil
}

func (p Profile) etherType() uint16 {
	if p.UseIPv6 {
		return codec.EtherTypeIPv6
	}
	return codec.EtherTypeIPv4
}

func (p Profile) buildL3() ([]byte, error) {
	l4 := p.buildL4Payload()

	if p.UseIPv6 {
		ip := codec.IPv6Header{DSCP: p.DSCP, Src: p.SrcIPv6, Dst: p.DstIPv6}
		switch p.Protocol {
		case ProtoUDP:
			ip.NextHeader = codec.ProtoUDP
			return codec.BuildIPv6(ip, codec.BuildUDPv6(ip, codec.UDPHeader{SrcPort: p.SrcPort, DstPort: p.DstPort}, l4))
		case ProtoICMPv6:
			ip.NextHeader = codec.ProtoICMPv6
			msg := codec.BuildEchoRequest(1, 1, l4)
			return codec.BuildIPv6(ip, codec.BuildICMPv6(ip, msg))
		default:
			return nil, fmt.Errorf("unsupported protocol %q for IPv6 profile", p.Protocol)
		}
	}

	ip := codec.IPv4Header{DSCP: p.DSCP, TTL: 64, Src: p.SrcIPv4, Dst: p.DstIPv4}
	switch p.Protocol {
	case ProtoUDP:
		ip.Protocol = codec.ProtoUDP
		return codec.BuildIPv4(ip, codec.BuildUDPv4(ip, codec.UDPHeader{SrcPort: p.SrcPort, DstPort: p.DstPort}, l4))
	default:
		return nil, fmt.Errorf("unsupported protocol %q for IPv4 profile", p.Protocol)
	}
}

func (p Profile) buildL4Payload() []byte {
	// A small fixed payload; buildTemplate pads the whole frame out to
	// FrameSize afterward, so this only needs to carry something
	// non-empty for protocols that require a body.
	return []byte{p.PayloadFill, p.PayloadFill, p.PayloadFill, p.PayloadFill}
}
