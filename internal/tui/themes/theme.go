// Package themes holds the colors and styles of the dictionary browser.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Normal      lipgloss.Style
	Bold        lipgloss.Style
	Selected    lipgloss.Style
	Score       lipgloss.Style
	RoundedBox  lipgloss.Style
	StatusError lipgloss.Style
	StatusInfo  lipgloss.Style
	Help        lipgloss.Style
	Primary     lipgloss.Color
	Muted       lipgloss.Color
	Border      lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	Primary: lipgloss.Color("#4D96FF"),
	Muted:   lipgloss.Color("#737373"),
	Border:  lipgloss.Color("#404040"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")).
		MarginBottom(1),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Bold: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#4D96FF")).
		Foreground(lipgloss.Color("#fafafa")).
		Bold(true),
	Score: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")),
	RoundedBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 1),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true),
	StatusInfo: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3b82f6")).
		Bold(true),
	Help: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")),
}
