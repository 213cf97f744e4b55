package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderPad renders a single colored pad; black pads render dim
func RenderPad(color [3]uint8) string {
	if color == [3]uint8{} {
		color = [3]uint8{48, 48, 48}
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render("■")
}

// PadGrid is the Launchpad surface: rows 0-7 from the bottom plus the top
// button row 8
type PadGrid [9][8][3]uint8

// Set lights one pad, ignoring pads off the grid
func (g *PadGrid) Set(row, col int, color [3]uint8) {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return
	}
	g[row][col] = color
}

// RenderPadGrid renders the grid top row first, with a gap under the
// button row
func RenderPadGrid(grid PadGrid) string {
	var lines []string
	for row := len(grid) - 1; row >= 0; row-- {
		var line strings.Builder
		for col, c := range grid[row] {
			if col > 0 {
				line.WriteString(" ")
			}
			line.WriteString(RenderPad(c))
		}
		lines = append(lines, line.String())
		if row == len(grid)-1 {
			lines = append(lines, "")
		}
	}
	return strings.Join(lines, "\n")
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color [3]uint8, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderPad(color), name, desc)
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
