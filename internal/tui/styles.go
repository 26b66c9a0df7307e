package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the view.
type Styles struct {
	Title       lipgloss.Style
	Border      lipgloss.Style
	Header      lipgloss.Style
	Cell        lipgloss.Style
	Selected    lipgloss.Style
	Placeholder lipgloss.Style
	Inspector   lipgloss.Style
	Alert       lipgloss.Style
	Status      lipgloss.Style
}

// DefaultStyles returns the default color scheme.
func DefaultStyles() Styles {
	return Styles{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Border:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Header:      lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Cell:        lipgloss.NewStyle().Padding(0, 1),
		Selected:    lipgloss.NewStyle().Padding(0, 1).Reverse(true),
		Placeholder: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245")),
		Inspector:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Alert:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}
