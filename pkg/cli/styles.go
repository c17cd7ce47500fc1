package cli

import "github.com/charmbracelet/lipgloss"

// Theme is the color scheme for the stream watch view.
type Theme struct {
	Primary lipgloss.Color // headings and progress
	Dim     lipgloss.Color // secondary status text
	Error   lipgloss.Color // failures and payment gates
}

// DefaultTheme matches the terminal defaults of the rest of the tooling.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Error:   lipgloss.Color("#ff5f56"),
}

// Styles holds the derived lipgloss styles.
type Styles struct {
	Title    lipgloss.Style
	Heading  lipgloss.Style
	Status   lipgloss.Style
	Citation lipgloss.Style
	Error    lipgloss.Style
}

// NewStyles derives styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Heading:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Underline(true),
		Status:   lipgloss.NewStyle().Foreground(t.Dim),
		Citation: lipgloss.NewStyle().Foreground(t.Dim).Italic(true),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(t.Error),
	}
}
