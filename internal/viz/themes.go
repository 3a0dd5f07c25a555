package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines color scheme for the TUI
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:    "cyberpunk",
		Primary: lipgloss.Color("#00ffff"),
		Accent:  lipgloss.Color("#ff00ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666688"),
		Success: lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff4444"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Success: lipgloss.Color("#00ff00"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff0000"),
	}

	ThemeOcean = Theme{
		Name:    "ocean",
		Primary: lipgloss.Color("#4fc3f7"),
		Accent:  lipgloss.Color("#80deea"),
		Text:    lipgloss.Color("#e0f7fa"),
		Muted:   lipgloss.Color("#546e7a"),
		Success: lipgloss.Color("#69f0ae"),
		Warning: lipgloss.Color("#ffd54f"),
		Error:   lipgloss.Color("#ff5252"),
	}

	Themes = []Theme{ThemeCyberpunk, ThemeMinimal, ThemeOcean}
)

// GetTheme returns a theme by name, falling back to cyberpunk.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCyberpunk
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// styles is the set of lipgloss styles derived from one theme.
type styles struct {
	title, label, value, muted, pass, fail, panel lipgloss.Style
}

func (t Theme) styles() styles {
	return styles{
		title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		label: lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		value: lipgloss.NewStyle().Bold(true).Foreground(t.Text),
		muted: lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		pass:  lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		fail:  lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
	}
}
