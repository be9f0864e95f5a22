package tui

import "github.com/charmbracelet/lipgloss"

var (
	unsetBlue  = lipgloss.Color("#007bff")
	savedGreen = lipgloss.Color("#28a745")
	white      = lipgloss.Color("#FFFFFF")
	mutedGray  = lipgloss.Color("#6B7280")
	alertRed   = lipgloss.Color("#dc3545")
)

var (
	buttonStyle = lipgloss.NewStyle().
			Foreground(white).
			Bold(true).
			Padding(0, 2).
			MarginLeft(1)

	hintStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Italic(true).
			MarginLeft(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			MarginLeft(1)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(unsetBlue).
			Padding(0, 1).
			MarginTop(1)

	alertStyle = dialogStyle.
			BorderForeground(alertRed)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedGray)
)

func buttonColor(saved bool) lipgloss.Color {
	if saved {
		return savedGreen
	}
	return unsetBlue
}
