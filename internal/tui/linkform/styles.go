package linkform

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// Color palette (Catppuccin Mocha)
var (
	colorPrimary   = lipgloss.Color("#cba6f7") // Mauve
	colorSecondary = lipgloss.Color("#b4befe") // Lavender
	colorText      = lipgloss.Color("#cdd6f4") // Text
	colorSubtext0  = lipgloss.Color("#a6adc8") // Subtext0
	colorSubtext1  = lipgloss.Color("#bac2de") // Subtext1
	colorOverlay0  = lipgloss.Color("#6c7086") // Overlay0
	colorSurface2  = lipgloss.Color("#585b70") // Surface2
	colorGreen     = lipgloss.Color("#a6e3a1")
	colorRed       = lipgloss.Color("#f38ba8")
	colorPeach     = lipgloss.Color("#fab387")
)

var inputStyles = textinput.Styles{
	Focused: textinput.StyleState{
		Text:        lipgloss.NewStyle().Foreground(colorText),
		Placeholder: lipgloss.NewStyle().Foreground(colorSubtext0),
		Prompt:      lipgloss.NewStyle().Foreground(colorSecondary),
	},
	Blurred: textinput.StyleState{
		Text:        lipgloss.NewStyle().Foreground(colorSubtext0),
		Placeholder: lipgloss.NewStyle().Foreground(colorSurface2),
		Prompt:      lipgloss.NewStyle().Foreground(colorOverlay0),
	},
	Cursor: textinput.CursorStyle{
		Color: colorPrimary,
		Shape: tea.CursorBar,
		Blink: true,
	},
}

var (
	styleContainer = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSecondary).
			Padding(1, 2)

	styleTitle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleLabel        = lipgloss.NewStyle().Foreground(colorSubtext1)
	styleLabelFocused = lipgloss.NewStyle().Foreground(colorSecondary).Bold(true)
	styleLocked       = lipgloss.NewStyle().Foreground(colorOverlay0)
	styleInlineError  = lipgloss.NewStyle().Foreground(colorPeach)
	styleFailure      = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	styleReady        = lipgloss.NewStyle().Foreground(colorGreen)
	styleStatus       = lipgloss.NewStyle().Foreground(colorSubtext0).Italic(true)

	styleHintKey       = lipgloss.NewStyle().Foreground(colorSubtext1).Bold(true)
	styleHintDesc      = lipgloss.NewStyle().Foreground(colorSubtext0)
	styleHintSeparator = lipgloss.NewStyle().Foreground(colorSurface2)
)

// renderHintBar renders key/description pairs, e.g. "tab next • esc cancel".
func renderHintBar(pairs ...string) string {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		parts = append(parts, styleHintKey.Render(pairs[i])+" "+styleHintDesc.Render(pairs[i+1]))
	}
	return strings.Join(parts, " "+styleHintSeparator.Render("•")+" ")
}
