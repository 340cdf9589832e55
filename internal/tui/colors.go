package tui

import "github.com/charmbracelet/lipgloss"

func colored(color, text string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(text)
}

// ColorRed colors text red
func ColorRed(text string) string {
	return colored("1", text)
}

// ColorGreen colors text green
func ColorGreen(text string) string {
	return colored("2", text)
}

// ColorYellow colors text yellow
func ColorYellow(text string) string {
	return colored("3", text)
}

// ColorCyan colors text cyan
func ColorCyan(text string) string {
	return colored("6", text)
}

// ColorDim renders text faint
func ColorDim(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

// ColorBold renders text bold
func ColorBold(text string) string {
	return lipgloss.NewStyle().Bold(true).Render(text)
}
