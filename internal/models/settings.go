package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/mydiary/internal/constants"
)

// ThemeMode selects the TUI color palette.
type ThemeMode string

const (
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
	ThemeSystem ThemeMode = "system"
)

// ParseThemeMode accepts light, dark or system.
func ParseThemeMode(s string) (ThemeMode, error) {
	switch m := ThemeMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ThemeLight, ThemeDark, ThemeSystem:
		return m, nil
	default:
		return "", fmt.Errorf("invalid theme mode %q (expected light, dark or system)", s)
	}
}

// Icon returns a glyph for the theme mode.
func (m ThemeMode) Icon() string {
	switch m {
	case ThemeLight:
		return "☀"
	case ThemeDark:
		return "☾"
	default:
		return "◐"
	}
}

// Settings represents application-wide settings
type Settings struct {
	Timezone        string    `json:"timezone"`          // IANA timezone name, or "Local" for the system timezone
	ThemeMode       ThemeMode `json:"theme_mode"`        // light, dark or system
	AutosaveDelayMs int       `json:"autosave_delay_ms"` // quiet period before the diary autosaves
}

// DefaultSettings returns the settings written by init.
func DefaultSettings() Settings {
	return Settings{
		Timezone:        constants.DefaultTimezone,
		ThemeMode:       ThemeMode(constants.DefaultThemeMode),
		AutosaveDelayMs: constants.DefaultAutosaveDelayMs,
	}
}

// AutosaveDelay returns the configured autosave delay, falling back to the
// default for non-positive values.
func (s Settings) AutosaveDelay() time.Duration {
	if s.AutosaveDelayMs <= 0 {
		return constants.AutosaveDelay
	}
	return time.Duration(s.AutosaveDelayMs) * time.Millisecond
}

// Validate checks every field.
func (s Settings) Validate() error {
	if s.Timezone != "" && s.Timezone != constants.DefaultTimezone {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
		}
	}
	if _, err := ParseThemeMode(string(s.ThemeMode)); err != nil {
		return err
	}
	if s.AutosaveDelayMs < 0 {
		return fmt.Errorf("autosave delay must not be negative")
	}
	return nil
}
