package theme

// NewCatppuccinMocha creates the default Catppuccin Mocha theme.
func NewCatppuccinMocha() *Theme {
	return &Theme{
		Name:      "catppuccin-mocha",
		Primary:   "#cba6f7", // Mauve
		Secondary: "#b4befe", // Lavender
		Accent:    "#f9e2af", // Yellow

		FgMuted: "#6c7086", // Overlay0
		FgBase:  "#cdd6f4", // Text

		Success: "#a6e3a1",
		Warning: "#fab387",
		Error:   "#f38ba8",
	}
}
