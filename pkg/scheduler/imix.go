package scheduler

// imixPresets names the frame-size cycles a profile can draw from
// instead of a fixed FrameSize. Each cycle is drawn round-robin rather
// than weighted-random: weighted distribution sampling is a distinct,
// external-collaborator concern, not something this engine's template
// builder needs to replicate. These cycles only need to give template
// pre-build something deterministic to iterate over.
var imixPresets = map[string][]int{
	// Classic IMIX: mostly minimum-size frames, a handful of mid-size,
	// one large, in roughly the 7:4:1 ratio quoted for internet mixes.
	"imix-internet": {64, 64, 64, 64, 64, 64, 64, 570, 570, 570, 570, 1518},

	// VoIP-leaning mix: small RTP/G.711-sized frames dominate, with one
	// slightly larger frame standing in for signaling traffic.
	"imix-voip": {64, 64, 64, 214},

	// Evenly spread across the RFC 2544 frame-size test points.
	"imix-uniform": {64, 128, 256, 512, 1024, 1280, 1518},
}

// imixFrameSizes returns the named preset's frame-size cycle, or nil if
// name is empty or unrecognized.
func imixFrameSizes(name string) []int {
	return imixPresets[name]
}
