package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// truncateLine forces a rendered line to at most width columns (ANSI-aware).
func truncateLine(ln string, width int) string {
	if width <= 0 {
		return ""
	}
	if xansi.StringWidth(ln) <= width {
		return ln
	}
	if width == 1 {
		return xansi.Cut(ln, 0, 1)
	}
	return xansi.Cut(ln, 0, width-1) + "…"
}

// padLine pads ln with spaces to exactly width columns.
func padLine(ln string, width int) string {
	ln = truncateLine(ln, width)
	if w := xansi.StringWidth(ln); w < width {
		ln += strings.Repeat(" ", width-w)
	}
	return ln
}

func modalBodyWidth(termWidth int) int {
	w := termWidth - 12
	if w > 72 {
		w = 72
	}
	if w < 24 {
		w = 24
	}
	return w
}

// renderModalBox draws a titled surface box sized for the terminal width.
// No borders on inner components: nesting bordered widgets inside a modal
// with a background color produces artifacts on some terminals.
func renderModalBox(termWidth int, title, content string) string {
	bodyW := modalBodyWidth(termWidth)

	header := lipgloss.NewStyle().
		Background(colorControlBg).
		Foreground(colorSurfaceFg).
		Bold(true).
		Padding(0, 1).
		Width(bodyW + 2).
		Render(truncateLine(title, bodyW))

	lines := strings.Split(content, "\n")
	for i := range lines {
		lines[i] = padLine(lines[i], bodyW)
	}
	body := lipgloss.NewStyle().
		Background(colorSurfaceBg).
		Foreground(colorSurfaceFg).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

// placeCentered centers box in the full terminal area.
func placeCentered(termWidth, termHeight int, box string) string {
	return lipgloss.Place(termWidth, termHeight, lipgloss.Center, lipgloss.Center, box)
}
