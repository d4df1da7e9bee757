package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title       lipgloss.Style
	Dim         lipgloss.Style
	Status      lipgloss.Style
	Filter      lipgloss.Style
	Error       lipgloss.Style
	Stale       lipgloss.Style
	Highlight   lipgloss.Style
	HighlightBg lipgloss.Style
	Tag         lipgloss.Style
	DetailBox   lipgloss.Style
	Help        lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		Dim: lipgloss.NewStyle().Faint(true),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
		Filter:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Stale:       lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		Highlight:   lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		HighlightBg: lipgloss.NewStyle().Background(lipgloss.Color("237")),
		Tag:         lipgloss.NewStyle().Foreground(lipgloss.Color("37")),
		DetailBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(1).
			BorderForeground(lipgloss.Color("241")),
		Help: lipgloss.NewStyle().Faint(true),
	}
}
