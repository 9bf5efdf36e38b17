// Package theme holds the color palette and shared styles for terminal
// output.
package theme

import (
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
)

// Theme defines the color palette.
type Theme struct {
	Name string

	Primary   string
	Secondary string
	Accent    string

	FgMuted string
	FgBase  string

	Success string
	Warning string
	Error   string

	styles     *Styles
	stylesOnce sync.Once
}

// Styles contains pre-built styles for a theme.
type Styles struct {
	Title   lipgloss.Style
	Text    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Points  lipgloss.Style

	// Banner frames celebrations.
	Banner lipgloss.Style

	PhaseCompleted lipgloss.Style
	PhaseCurrent   lipgloss.Style
	PhaseLocked    lipgloss.Style
}

// S returns the styles for this theme, built on first use.
func (t *Theme) S() *Styles {
	t.stylesOnce.Do(func() {
		t.styles = t.buildStyles()
	})
	return t.styles
}

func (t *Theme) buildStyles() *Styles {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return &Styles{
		Title:   fg(t.Primary).Bold(true),
		Text:    fg(t.FgBase),
		Muted:   fg(t.FgMuted),
		Success: fg(t.Success),
		Warning: fg(t.Warning),
		Error:   fg(t.Error).Bold(true),
		Points:  fg(t.Accent).Bold(true),
		Banner: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color(t.Accent)).
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true).
			Padding(0, 2),
		PhaseCompleted: fg(t.Success),
		PhaseCurrent:   fg(t.Secondary).Bold(true),
		PhaseLocked:    fg(t.FgMuted),
	}
}

// ApplyGradient colors each rune of text along a gradient from one hex
// color to another.
func ApplyGradient(text, from, to string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	var b strings.Builder
	for i, r := range runes {
		pos := 0.0
		if len(runes) > 1 {
			pos = float64(i) / float64(len(runes)-1)
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(InterpolateColor(from, to, pos)))
		b.WriteString(style.Render(string(r)))
	}
	return b.String()
}
