package cmd

import "github.com/charmbracelet/lipgloss"

// Styles for human-readable command output.
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	cancelledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func stateStyle(state string) lipgloss.Style {
	switch state {
	case "completed":
		return completedStyle
	case "failed":
		return failedStyle
	case "cancelled":
		return cancelledStyle
	default:
		return labelStyle
	}
}
