package light

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a packed 0xAARRGGBB value. Alpha is only meaningful while
// blending; strips store colours opaque.
type Color uint32

const Black Color = 0xFF000000

func MakeColor(r, g, b uint8) Color {
	return RGBA(r, g, b, 255)
}

func RGBA(r, g, b, a uint8) Color {
	return Color(a)<<24 | Color(r)<<16 | Color(g)<<8 | Color(b)
}

// FromColorful converts an opaque go-colorful colour
func FromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return MakeColor(r, g, b)
}

func (c Color) A() uint8 { return uint8(c >> 24) }
func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }

func (c Color) RGB() [3]uint8 {
	return [3]uint8{c.R(), c.G(), c.B()}
}

func (c Color) Colorful() colorful.Color {
	return colorful.Color{R: float64(c.R()) / 255, G: float64(c.G()) / 255, B: float64(c.B()) / 255}
}

// WithAlpha returns c with alpha set from a 0-1 weight (clamped)
func (c Color) WithAlpha(alpha float64) Color {
	alpha = math.Max(0, math.Min(1, alpha))
	return c&0x00FFFFFF | Color(uint8(alpha*255))<<24
}

// BlendedWith mixes c over other by c's alpha: alpha 1 is all c, alpha 0 is
// all other. The result is opaque.
func (c Color) BlendedWith(other Color) Color {
	alpha := float64(c.A()) / 255
	return FromColorful(other.Colorful().BlendRgb(c.Colorful(), alpha))
}

func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R(), c.G(), c.B())
}

func (c Color) String() string {
	return fmt.Sprintf("%s/%d", c.Hex(), c.A())
}
