package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	canvasStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Foreground(lipgloss.Color("#33bbff"))

	statsStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Width(44)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ffff")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899")).Width(12)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ccff")).Bold(true)
	graphStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688")).Italic(true).MarginTop(1)

	statusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	statusPaused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	statusBad     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))

	onStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	offStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
)

// canvasOffset is where the first canvas cell lands on screen, inside the
// rounded border.
const canvasOffsetX, canvasOffsetY = 1, 1

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

func flag(on bool, yes, no string) string {
	if on {
		return onStyle.Render(yes)
	}
	return offStyle.Render(no)
}

// ProgressBar renders a fill bar for a fraction in [0, 1].
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
