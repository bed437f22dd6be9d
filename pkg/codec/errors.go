package codec

import "errors"

// Builder/parser failures are always returned values; they never abort the
// caller.
var (
	// ErrFrameTooShort is returned by a builder when the requested frame
	// size is shorter than the accumulated header overhead for the chosen
	// encapsulation stack.
	ErrFrameTooShort = errors.New("codec: frame size below encapsulation minimum")

	// ErrTruncated is returned by a parser when a field extends past the
	// end of the supplied buffer.
	ErrTruncated = errors.New("codec: truncated frame")

	// ErrLengthOverrun is returned by a parser when a length field inside
	// the frame exceeds the declared outer length.
	ErrLengthOverrun = errors.New("codec: inner length exceeds outer frame")

	// ErrUnknownEtherType is returned when parsing an Ethernet frame whose
	// EtherType (after VLAN/Q-in-Q tags) is not one of IPv4/IPv6/MPLS/ARP.
	ErrUnknownEtherType = errors.New("codec: unsupported EtherType")
)
