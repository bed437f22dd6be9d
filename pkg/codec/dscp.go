package codec

import "fmt"

// PHBName labels a DSCP value with its standard per-hop-behavior name, for
// stats/logging only — it has no effect on marking.
func PHBName(dscp uint8) string {
	switch dscp {
	case 0:
		return "default"
	case 46:
		return "EF"
	case 8, 16, 24, 32, 40, 48, 56:
		return fmt.Sprintf("CS%d", dscp>>3)
	}
	if dscp >= 10 && dscp <= 38 {
		class := dscp >> 3
		drop := (dscp >> 1) & 0x3
		if class >= 1 && class <= 4 && drop >= 1 && drop <= 3 {
			return fmt.Sprintf("AF%d%d", class, drop)
		}
	}
	return fmt.Sprintf("DSCP%d", dscp)
}
