package light

import (
	"math"

	"lightful/theme"
)

// Effect computes a pixel colour from the animation's progress (0-1) and
// the pixel's gradient within its section. The colour's alpha is how much
// of it covers what is already on the strip.
type Effect interface {
	ColorAt(progress, gradient float64) Color
}

// Func adapts a function to Effect
type Func func(progress, gradient float64) Color

func (f Func) ColorAt(progress, gradient float64) Color {
	return f(progress, gradient)
}

// SolidColor fades a colour out over the animation
type SolidColor struct {
	Color Color
}

func (s SolidColor) ColorAt(progress, gradient float64) Color {
	return s.Color.WithAlpha(math.Max(0, 1-progress) * float64(s.Color.A()) / 255)
}

// Gradient sweeps a sine wave of From over To along the section
type Gradient struct {
	From, To Color
}

// a period of 2 shows a whole sine wave across the section, 4 half of one
const gradientPeriod = 3

func (g Gradient) ColorAt(progress, gradient float64) Color {
	alpha := math.Sin((progress-gradient/gradientPeriod)*2*math.Pi)/2 + 0.5
	return g.From.WithAlpha(alpha).BlendedWith(g.To)
}

// Meteor runs a bright head with a fading tail along the section
type Meteor struct {
	Color Color

	// TailLength scales the tail: 1 is standard, 0.5 half, 2 double
	TailLength float64
}

const meteorHead = 0.05

func (m Meteor) ColorAt(progress, gradient float64) Color {
	tail := m.TailLength
	if tail == 0 {
		tail = 1
	}
	tail *= 0.2

	// let the tail fully leave the section
	progress *= tail + 1
	d := gradient - progress

	switch {
	case d > 0 && d < meteorHead:
		return m.Color.WithAlpha(1 - d/meteorHead)
	case d > -tail && d <= 0:
		return m.Color.WithAlpha(1 - math.Abs(d)/tail)
	}
	return m.Color.WithAlpha(0)
}

// PaletteEffect colours the section from a palette, scrolling it along the
// gradient as the animation progresses
type PaletteEffect struct {
	Palette *theme.Palette

	// Scroll is how many times the palette passes along the section per run
	Scroll float64
	// Fade fades the whole section out like SolidColor
	Fade bool
}

func (p PaletteEffect) ColorAt(progress, gradient float64) Color {
	pos := math.Mod(gradient+progress*p.Scroll, 1)
	rgb := p.Palette.Lookup(pos)
	c := MakeColor(rgb[0], rgb[1], rgb[2])
	if p.Fade {
		return c.WithAlpha(math.Max(0, 1-progress))
	}
	return c
}
