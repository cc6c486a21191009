package storage

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/julianstephens/mydiary/internal/constants"
	"github.com/julianstephens/mydiary/internal/models"
)

// FormatTimestamp renders t as fixed-width UTC text.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(constants.TimestampFormat)
}

// ParseTimestamp parses text written by FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(constants.TimestampFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// SettingsToRows flattens settings into key/value rows.
func SettingsToRows(s models.Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:        s.Timezone,
		constants.SettingThemeMode:       string(s.ThemeMode),
		constants.SettingAutosaveDelayMs: strconv.Itoa(s.AutosaveDelayMs),
	}
}

// SettingsFromRows rebuilds settings from key/value rows. Missing keys keep
// their defaults; unknown keys are ignored.
func SettingsFromRows(rows map[string]string) (models.Settings, error) {
	if len(rows) == 0 {
		return models.Settings{}, fmt.Errorf("settings not found")
	}
	s := models.DefaultSettings()
	if v, ok := rows[constants.SettingTimezone]; ok && v != "" {
		s.Timezone = v
	}
	if v, ok := rows[constants.SettingThemeMode]; ok && v != "" {
		mode, err := models.ParseThemeMode(v)
		if err != nil {
			return models.Settings{}, fmt.Errorf("parsing %s: %w", constants.SettingThemeMode, err)
		}
		s.ThemeMode = mode
	}
	if v, ok := rows[constants.SettingAutosaveDelayMs]; ok && v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return models.Settings{}, fmt.Errorf("parsing %s: %w", constants.SettingAutosaveDelayMs, err)
		}
		s.AutosaveDelayMs = ms
	}
	return s, nil
}

// Summarize builds day summaries from in-memory records. Stores without a
// query language use it for GetDaySummaries.
func Summarize(entries []models.DiaryEntry, todos []models.TodoItem, startKey, endKey string) []models.DaySummary {
	byDay := map[string]*models.DaySummary{}
	get := func(key string) *models.DaySummary {
		s, ok := byDay[key]
		if !ok {
			s = &models.DaySummary{DayKey: key}
			byDay[key] = s
		}
		return s
	}
	inRange := func(key string) bool {
		return key >= startKey && key <= endKey
	}

	for _, e := range entries {
		if inRange(e.DayKey) {
			get(e.DayKey).HasDiary = true
		}
	}
	for _, item := range todos {
		if !inRange(item.DayKey) {
			continue
		}
		s := get(item.DayKey)
		s.TodoTotal++
		if item.IsCompleted {
			s.TodoCompleted++
		}
	}

	out := make([]models.DaySummary, 0, len(byDay))
	for _, s := range byDay {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayKey < out[j].DayKey })
	return out
}
