package daykey

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/mydiary/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == constants.DefaultTimezone {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// Today returns midnight of the current day in loc.
func Today(loc *time.Location) time.Time {
	return StartOfDay(time.Now().In(loc))
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays moves t by n calendar days, keeping it at the start of the day.
// Calendar arithmetic keeps DST days from drifting into a neighbour.
func AddDays(t time.Time, n int) time.Time {
	return StartOfDay(t).AddDate(0, 0, n)
}

// SameDay reports whether a and b fall on the same calendar day, comparing
// both in a's location.
func SameDay(a, b time.Time) bool {
	return Key(a) == Key(b.In(a.Location()))
}

// IsToday reports whether t falls on the same day as now.
func IsToday(t, now time.Time) bool {
	return SameDay(now, t)
}

// Display formats t as a day header, e.g. "Wed, Jan 1".
func Display(t time.Time) string {
	return t.Format(constants.DisplayDateFormat)
}

// Clock formats t as HH:MM.
func Clock(t time.Time) string {
	return t.Format(constants.TimeFormat)
}

// MonthGrid lays out the month containing t as weeks starting on Sunday.
// Cells outside the month hold the zero time.
func MonthGrid(t time.Time) [][7]time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	daysInMonth := first.AddDate(0, 1, -1).Day()

	var weeks [][7]time.Time
	var week [7]time.Time
	col := int(first.Weekday())
	for day := 1; day <= daysInMonth; day++ {
		week[col] = first.AddDate(0, 0, day-1)
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = [7]time.Time{}
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}

// MonthBounds returns the first and last day keys of the month containing t.
func MonthBounds(t time.Time) (string, string) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return Key(first), Key(first.AddDate(0, 1, -1))
}

// ParseMonth parses a YYYY-MM month selector into the first day of that month in loc.
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(constants.MonthFormat, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q (expected YYYY-MM): %w", s, err)
	}
	return t, nil
}

// ResolveDate turns a command-line date into midnight of that day in loc.
// It accepts a day key or one of "today", "yesterday" and "tomorrow"; an
// empty string means today. now supplies the current instant.
func ResolveDate(s string, loc *time.Location, now time.Time) (time.Time, error) {
	today := StartOfDay(now.In(loc))
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return AddDays(today, -1), nil
	case "tomorrow":
		return AddDays(today, 1), nil
	}
	return ParseInLocation(strings.TrimSpace(s), loc)
}

// ParseDue parses a due date given as "YYYY-MM-DD HH:MM" or a bare day key,
// which means the end of that day.
func ParseDue(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(constants.DueFormat, s, loc); err == nil {
		return t, nil
	}
	day, err := ParseInLocation(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q (expected YYYY-MM-DD or \"YYYY-MM-DD HH:MM\")", s)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 0, 0, loc), nil
}
