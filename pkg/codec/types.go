package codec

// EtherType values selecting the L3 payload.
const (
	EtherTypeIPv4 uint16 = 0x0800
	EtherTypeIPv6 uint16 = 0x86DD
	EtherTypeMPLS uint16 = 0x8847
	EtherTypeVLAN uint16 = 0x8100 // 802.1Q
	EtherTypeQinQ uint16 = 0x88A8 // 802.1ad S-TAG
	EtherTypeARP  uint16 = 0x0806
)

// IP protocol numbers used in the IPv4 Protocol / IPv6 Next Header field.
const (
	ProtoICMPv4 uint8 = 1
	ProtoTCP    uint8 = 6
	ProtoUDP    uint8 = 17
	ProtoICMPv6 uint8 = 58
)

// VXLANPort is the IANA-assigned UDP destination port carrying VXLAN
// encapsulated Ethernet frames (RFC 7348).
const VXLANPort uint16 = 4789

// NetFlow v5 / IPFIX export ports.
const (
	NetflowV5Port uint16 = 2055
	IPFIXPort     uint16 = 4739
)

// EthernetMinFrame is the 64-byte Ethernet floor, including the 4-byte FCS
// which this codec does not itself append (left to the interface/NIC) but
// still budgets for.
const EthernetMinFrame = 64

// MACAddr is a 6-byte hardware address.
type MACAddr [6]byte

// EthernetFrame is the outermost record: a destination/source MAC pair, an
// optional VLAN tag stack (single 802.1Q, or an 802.1ad outer + 802.1Q
// inner), optional MPLS label stack, and an opaque L3 payload.
type EthernetFrame struct {
	DstMAC     MACAddr
	SrcMAC     MACAddr
	OuterVLAN  *VLANTag // 802.1ad S-TAG, only set for Q-in-Q
	InnerVLAN  *VLANTag // 802.1Q, set for single-tagged or Q-in-Q
	MPLSLabels []MPLSLabel
	EtherType  uint16 // final, innermost EtherType (IPv4/IPv6/MPLS resolved at L3 if no MPLS stack)
	Payload    []byte
}

// VLANTag is an 802.1Q/802.1ad tag: 3-bit PCP, 1-bit DEI, 12-bit VID.
type VLANTag struct {
	PCP uint8
	DEI bool
	VID uint16
}

// MPLSLabel is one entry of an MPLS label stack (RFC 3032): 20-bit label,
// 3-bit traffic class, bottom-of-stack bit, 8-bit TTL.
type MPLSLabel struct {
	Label uint32
	TC    uint8
	BoS   bool
	TTL   uint8
}

// IPv4Header is the subset of RFC 791 fields the engine synthesizes.
type IPv4Header struct {
	DSCP     uint8 // upper 6 bits of ToS
	ID       uint16
	TTL      uint8
	Protocol uint8
	Src      [4]byte
	Dst      [4]byte
}

// IPv6Header is the subset of RFC 8200 fields the engine synthesizes.
type IPv6Header struct {
	DSCP       uint8 // upper 6 bits of Traffic Class
	FlowLabel  uint32
	NextHeader uint8
	HopLimit   uint8
	Src        [16]byte
	Dst        [16]byte
}

// UDPHeader is the 8-byte UDP header (RFC 768).
type UDPHeader struct {
	SrcPort uint16
	DstPort uint16
}

// TCP flag bits, packed into the low 9 bits of the flags+offset word.
const (
	TCPFlagFIN uint16 = 1 << 0
	TCPFlagSYN uint16 = 1 << 1
	TCPFlagRST uint16 = 1 << 2
	TCPFlagPSH uint16 = 1 << 3
	TCPFlagACK uint16 = 1 << 4
	TCPFlagURG uint16 = 1 << 5
	TCPFlagECE uint16 = 1 << 6
	TCPFlagCWR uint16 = 1 << 7
)

// TCP option kinds.
const (
	TCPOptEnd         uint8 = 0
	TCPOptNOP         uint8 = 1
	TCPOptMSS         uint8 = 2
	TCPOptWindowScale uint8 = 3
	TCPOptSACKPermit  uint8 = 4
	TCPOptSACK        uint8 = 5
	TCPOptTimestamp   uint8 = 8
)

// TCPOption is a single TLV-style option, NOP-padded to a 4-byte boundary by
// the builder.
type TCPOption struct {
	Kind uint8
	Data []byte // empty for NOP/EOL
}

// TCPHeader is the fixed 20-byte TCP header plus an option list.
type TCPHeader struct {
	SrcPort    uint16
	DstPort    uint16
	Seq        uint32
	Ack        uint32
	Flags      uint16
	Window     uint16
	UrgentPtr  uint16
	Options    []TCPOption
}
