// Package daykey converts between instants and the canonical YYYY-MM-DD day
// keys that scope diary entries and todo items.
//
// A key is always derived from the calendar date of an instant in that
// instant's own location. Callers that want "today" in the user's configured
// timezone convert the instant first (see Today and LoadLocation).
package daykey

import (
	"fmt"
	"time"

	"github.com/julianstephens/mydiary/internal/constants"
	myerrors "github.com/julianstephens/mydiary/internal/errors"
)

// Key returns the day key for t, e.g. "2025-01-01".
func Key(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// Parse converts a day key back into midnight of that day in time.Local.
func Parse(key string) (time.Time, error) {
	return ParseInLocation(key, time.Local)
}

// ParseInLocation converts a day key into midnight of that day in loc.
func ParseInLocation(key string, loc *time.Location) (time.Time, error) {
	if len(key) != len(constants.DateFormat) {
		return time.Time{}, fmt.Errorf("%w: %q", myerrors.ErrInvalidFormat, key)
	}
	t, err := time.ParseInLocation(constants.DateFormat, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", myerrors.ErrInvalidFormat, key, err)
	}
	return t, nil
}

// Valid reports whether key is a well-formed day key.
func Valid(key string) bool {
	_, err := ParseInLocation(key, time.UTC)
	return err == nil
}

// DateOrZero parses key for display purposes, returning the zero time when
// the key is malformed.
func DateOrZero(key string) time.Time {
	t, err := Parse(key)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Range returns every key from start to end inclusive. It returns nil when
// either key is malformed or end precedes start.
func Range(start, end string) []string {
	from, err := ParseInLocation(start, time.UTC)
	if err != nil {
		return nil
	}
	to, err := ParseInLocation(end, time.UTC)
	if err != nil || to.Before(from) {
		return nil
	}
	var keys []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		keys = append(keys, Key(d))
	}
	return keys
}
