package models

import (
	"strings"
	"time"
)

// DiaryEntry is the free-text note for one day. At most one entry exists
// per day key, and an entry is never stored with blank content.
type DiaryEntry struct {
	ID        string    `json:"id"`
	DayKey    string    `json:"day_key"`   // YYYY-MM-DD
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"` // last modified
}

// IsBlank reports whether content is empty after trimming whitespace.
func IsBlank(content string) bool {
	return strings.TrimSpace(content) == ""
}
