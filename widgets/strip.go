package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"lightful/light"
)

// RenderPixel draws one LED in its own colour
func RenderPixel(c light.Color, symbol rune) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(string(symbol))
}

// RenderStrip draws the strip as lines of width pixels, pixel 0 first
func RenderStrip(pixels []light.Color, width int, symbol rune) string {
	if width <= 0 {
		width = len(pixels)
	}
	var lines []string
	for start := 0; start < len(pixels); start += width {
		end := min(start+width, len(pixels))
		var line strings.Builder
		for _, c := range pixels[start:end] {
			line.WriteString(RenderPixel(c, symbol))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// RenderBeats draws the metronome bar with the current beat marked
func RenderBeats(beat, beats int, on, off rune, color lipgloss.Color) string {
	mark := lipgloss.NewStyle().Foreground(color)
	var b strings.Builder
	for i := range beats {
		if i > 0 {
			b.WriteString(" ")
		}
		if i == beat {
			b.WriteString(mark.Render(string(on)))
		} else {
			b.WriteString(string(off))
		}
	}
	return b.String()
}
