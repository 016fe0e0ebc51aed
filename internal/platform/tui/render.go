package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tilt2048/internal/core"
)

// palette maps core.Color to terminal colours (ANSI 256).
var palette = map[core.Color]lipgloss.Color{
	core.ColorBlack:       lipgloss.Color("0"),
	core.ColorRed:         lipgloss.Color("1"),
	core.ColorGreen:       lipgloss.Color("2"),
	core.ColorYellow:      lipgloss.Color("3"),
	core.ColorBlue:        lipgloss.Color("4"),
	core.ColorMagenta:     lipgloss.Color("5"),
	core.ColorCyan:        lipgloss.Color("6"),
	core.ColorWhite:       lipgloss.Color("7"),
	core.ColorBrightWhite: lipgloss.Color("15"),
	core.ColorOrange:      lipgloss.Color("208"),
	core.ColorDarkOrange:  lipgloss.Color("202"),
	core.ColorGray:        lipgloss.Color("245"),
	core.ColorDarkGray:    lipgloss.Color("238"),
	core.ColorBeige:       lipgloss.Color("230"),
	core.ColorSand:        lipgloss.Color("223"),
	core.ColorGold:        lipgloss.Color("220"),
	core.ColorPink:        lipgloss.Color("204"),
}

// lipglossStyle converts a cell style to a lipgloss style.
func lipglossStyle(st core.Style) lipgloss.Style {
	s := lipgloss.NewStyle()
	if c, ok := palette[st.Fg]; ok {
		s = s.Foreground(c)
	}
	if c, ok := palette[st.Bg]; ok {
		s = s.Background(c)
	}
	if st.Bold {
		s = s.Bold(true)
	}
	return s
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same style to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	// Pre-allocate with extra space for ANSI codes
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	styles := make(map[core.Style]lipgloss.Style)

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			start := s.GetCell(x, y).Style

			var run strings.Builder
			for x < s.Width() {
				cell := s.GetCell(x, y)
				if cell.Style != start {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			if start == core.Plain {
				sb.WriteString(run.String())
				continue
			}
			style, ok := styles[start]
			if !ok {
				style = lipglossStyle(start)
				styles[start] = style
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}
