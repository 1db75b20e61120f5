// Package colour converts between normalised RGB triples and hex strings.
package colour

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// truncateEpsilon absorbs float noise such as 127/255*255 = 126.99999999999999
// so that ParseHex followed by Hex reproduces the input.
const truncateEpsilon = 1e-7

var hexPattern = regexp.MustCompile(`^#?([0-9a-fA-F]{2})([0-9a-fA-F]{2})([0-9a-fA-F]{2})$`)

// RGB is a colour with each channel normalised to the range [0, 1].
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Black is the zero colour.
var Black = RGB{}

// String returns the colour in the format "rgb(r, g, b)" using byte values.
func (c RGB) String() string {
	r, g, b := c.Bytes()
	return fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
}

// Bytes scales each channel by 255 and truncates it to a byte.
func (c RGB) Bytes() (r, g, b uint8) {
	return toByte(c.R), toByte(c.G), toByte(c.B)
}

// Hex returns the colour as "#RRGGBB" with uppercase digits.
func (c RGB) Hex() string {
	return ToHex(c.R, c.G, c.B)
}

// ToHex encodes normalised channels as "#RRGGBB". Channels outside [0, 1]
// are clamped before truncation.
func ToHex(r, g, b float64) string {
	packed := uint32(toByte(r))<<16 | uint32(toByte(g))<<8 | uint32(toByte(b))
	return fmt.Sprintf("#%06X", packed)
}

// ParseHex decodes "#RRGGBB" or "RRGGBB" (any case). The boolean is false
// when s is not exactly six hex digits with an optional leading '#'.
func ParseHex(s string) (RGB, bool) {
	m := hexPattern.FindStringSubmatch(s)
	if m == nil {
		return RGB{}, false
	}

	channels := [3]float64{}
	for i := range channels {
		v, err := strconv.ParseUint(m[i+1], 16, 8)
		if err != nil {
			return RGB{}, false
		}
		channels[i] = float64(v) / 255.0
	}

	return RGB{R: channels[0], G: channels[1], B: channels[2]}, true
}

// NormaliseHex returns s re-encoded as "#RRGGBB", or false if s is not a
// valid hex colour.
func NormaliseHex(s string) (string, bool) {
	c, ok := ParseHex(s)
	if !ok {
		return "", false
	}
	return c.Hex(), true
}

func toByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Floor(v*255 + truncateEpsilon))
}
