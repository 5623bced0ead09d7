package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme of rendered summaries.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
	Warn    lipgloss.Color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Warn:    lipgloss.Color("#ffaf00"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Warn   lipgloss.Style
	Border lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:  lipgloss.NewStyle().Foreground(t.Dim),
		Value:  lipgloss.NewStyle().Bold(true),
		Warn:   lipgloss.NewStyle().Bold(true).Foreground(t.Warn),
		Border: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Primary).Padding(0, 1),
	}
}

// Row is one labeled line of a Summary.
type Row struct {
	Label string
	Value string
	Warn  bool
}

// Summary renders a titled box of aligned label/value rows.
type Summary struct {
	Styles Styles
	Title  string
	Rows   []Row
}

// Render renders the summary to a string.
func (s Summary) Render() string {
	width := 0
	for _, r := range s.Rows {
		width = max(width, lipgloss.Width(r.Label))
	}

	lines := []string{s.Styles.Title.Render(s.Title)}
	for _, r := range s.Rows {
		label := s.Styles.Label.Render(r.Label + strings.Repeat(" ", width-lipgloss.Width(r.Label)))
		value := s.Styles.Value
		if r.Warn {
			value = s.Styles.Warn
		}
		lines = append(lines, label+"  "+value.Render(r.Value))
	}
	return s.Styles.Border.Render(strings.Join(lines, "\n"))
}
