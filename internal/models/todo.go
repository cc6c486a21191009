package models

import (
	"sort"
	"time"
)

// TodoItem is a task scoped to a single day.
type TodoItem struct {
	ID          string     `json:"id"`
	DayKey      string     `json:"day_key"` // YYYY-MM-DD
	Title       string     `json:"title"`
	IsCompleted bool       `json:"is_completed"`
	Category    Category   `json:"category"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TodoLess orders pending items before completed ones, then oldest first.
// The ID breaks ties between items created at the same instant.
func TodoLess(a, b TodoItem) bool {
	if a.IsCompleted != b.IsCompleted {
		return !a.IsCompleted
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SortTodos sorts items in display order in place.
func SortTodos(items []TodoItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return TodoLess(items[i], items[j])
	})
}

// DaySummary aggregates what a day holds, for calendar views.
type DaySummary struct {
	DayKey        string `json:"day_key"`
	HasDiary      bool   `json:"has_diary"`
	TodoTotal     int    `json:"todo_total"`
	TodoCompleted int    `json:"todo_completed"`
}
