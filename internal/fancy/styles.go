package fancy

import (
	"github.com/charmbracelet/lipgloss"
)

const (
	blue     = lipgloss.Color("39")
	magenta  = lipgloss.Color("201")
	orange   = lipgloss.Color("208")
	green    = lipgloss.Color("82")
	yellow   = lipgloss.Color("228")
	cyan     = lipgloss.Color("45")
	red      = lipgloss.Color("196")
	gray     = lipgloss.Color("250")
	white    = lipgloss.Color("15")
	darkGray = lipgloss.Color("240")
)

var (
	RootStyle = lipgloss.NewStyle().
			Foreground(blue).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(white).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(gray).
			Italic(true)

	BranchStyle = lipgloss.NewStyle().
			Foreground(darkGray)

	ComponentStyle = lipgloss.NewStyle().
			Foreground(cyan)

	ParameterStyle = lipgloss.NewStyle().
			Foreground(orange)

	TypeStyle = lipgloss.NewStyle().
			Foreground(yellow)

	SectionStyle = lipgloss.NewStyle().
			Foreground(magenta)

	ValidStyle = lipgloss.NewStyle().
			Foreground(green)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(red)

	TimeoutStyle = lipgloss.NewStyle().
			Foreground(orange).
			Bold(true)
)

// ParameterText styles a parameter name
func ParameterText(text string) string {
	return ParameterStyle.Render(text)
}

// TypeText styles a type name
func TypeText(text string) string {
	return TypeStyle.Render(text)
}

// SectionText styles a config section or parameter group
func SectionText(text string) string {
	return SectionStyle.Render(text)
}

// ValidText styles valid status text (green)
func ValidText(text string) string {
	return ValidStyle.Render(text)
}

// ErrorText styles error text (red)
func ErrorText(text string) string {
	return ErrorStyle.Render(text)
}

// PathText styles file paths (gray)
func PathText(text string) string {
	return InfoStyle.Render(text)
}

// SummaryText styles summary information (dark gray)
func SummaryText(text string) string {
	return BranchStyle.Render(text)
}

// CountText styles count numbers (cyan)
func CountText(text string) string {
	return ComponentStyle.Render(text)
}

// StateText styles an execution state: completed runs green, timeouts
// orange, failures red and anything in flight gray.
func StateText(state string) string {
	switch state {
	case "Completed":
		return ValidStyle.Render(state)
	case "TimedOut":
		return TimeoutStyle.Render(state)
	case "Failed":
		return ErrorStyle.Render(state)
	default:
		return InfoStyle.Render(state)
	}
}
