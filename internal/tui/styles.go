package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/mydiary/internal/models"
)

// Theme holds the styles for one appearance.
type Theme struct {
	Dark bool

	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style
	Header      lipgloss.Style
	Muted       lipgloss.Style
	Danger      lipgloss.Style
	Warning     lipgloss.Style
	Banner      lipgloss.Style
	Doc         lipgloss.Style
}

// NewTheme builds the styles for mode. System mode follows the terminal
// background.
func NewTheme(mode models.ThemeMode) Theme {
	dark := lipgloss.HasDarkBackground()
	switch mode {
	case models.ThemeDark:
		dark = true
	case models.ThemeLight:
		dark = false
	}
	return newTheme(dark)
}

func newTheme(dark bool) Theme {
	accent, tabBg, muted, text := lipgloss.Color("205"), lipgloss.Color("236"), lipgloss.Color("240"), lipgloss.Color("252")
	if !dark {
		accent, tabBg, muted, text = lipgloss.Color("162"), lipgloss.Color("254"), lipgloss.Color("245"), lipgloss.Color("235")
	}

	return Theme{
		Dark: dark,
		ActiveTab: lipgloss.NewStyle().
			Foreground(accent).
			Background(tabBg).
			Padding(0, 1).
			Bold(true),
		InactiveTab: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),
		Header: lipgloss.NewStyle().
			Foreground(text).
			Bold(true).
			Padding(0, 1),
		Muted: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),
		Danger: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true),
		Banner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("160")).
			Padding(0, 1),
		Doc: lipgloss.NewStyle().Padding(1, 2),
	}
}

// CategoryBadge renders a category as a colored label.
func (t Theme) CategoryBadge(c models.Category) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(lipgloss.Color(c.Color(t.Dark))).
		Padding(0, 1).
		Render(c.Icon() + " " + c.Label())
}
