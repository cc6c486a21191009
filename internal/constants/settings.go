package constants

// Settings keys
const (
	SettingTimezone        = "timezone"
	SettingThemeMode       = "theme_mode"
	SettingAutosaveDelayMs = "autosave_delay_ms"
)

// Settings defaults
const (
	DefaultTimezone        = "Local"
	DefaultThemeMode       = "system"
	DefaultAutosaveDelayMs = 1000
)
