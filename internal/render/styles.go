// Package render draws boards for the terminal.
package render

import (
	"charm.land/lipgloss/v2"

	"github.com/thenoetrevino/tablero/internal/config"
)

// ColumnWidth is the content width of a rendered column
const ColumnWidth = 28

// Styles holds the lipgloss styles derived from a theme
type Styles struct {
	Header    lipgloss.Style
	Subtitle  lipgloss.Style
	Box       lipgloss.Style
	Title     lipgloss.Style
	Card      lipgloss.Style
	Empty     lipgloss.Style
	Violation lipgloss.Style
	Success   lipgloss.Style
}

// NewStyles builds the styles for theme
func NewStyles(theme config.Theme) Styles {
	theme.ApplyDefaults()

	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.Accent)).
			MarginBottom(1),

		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Subtle)),

		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(theme.ColumnBorder)).
			Padding(0, 1).
			Width(ColumnWidth + 4),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.Title)),

		Card: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color(theme.Accent)).
			Foreground(lipgloss.Color(theme.Normal)).
			PaddingLeft(1).
			MarginTop(1),

		Empty: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Subtle)).
			Italic(true).
			MarginTop(1),

		Violation: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.ErrorFg)),

		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.Accent)),
	}
}
