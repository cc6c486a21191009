package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/mydiary/internal/models"
)

var base = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func TestValidateDiaryEntries_Duplicates(t *testing.T) {
	validator := New()

	entries := []models.DiaryEntry{
		{ID: "a", DayKey: "2025-01-01", Content: "first", Timestamp: base},
		{ID: "b", DayKey: "2025-01-02", Content: "other day", Timestamp: base},
		{ID: "c", DayKey: "2025-01-01", Content: "second", Timestamp: base.Add(time.Hour)},
	}

	result := validator.ValidateDiaryEntries(entries)
	if result.Count(ConflictDuplicateDiaryEntry) != 1 {
		t.Fatalf("expected one duplicate conflict, got %+v", result.Conflicts)
	}
	conflict := result.Conflicts[0]
	if conflict.DayKey != "2025-01-01" || len(conflict.IDs) != 2 {
		t.Errorf("unexpected conflict %+v", conflict)
	}
}

func TestValidateDiaryEntries_BlankAndInvalid(t *testing.T) {
	validator := New()

	entries := []models.DiaryEntry{
		{ID: "a", DayKey: "2025-01-01", Content: "  \n"},
		{ID: "b", DayKey: "2025-13-01", Content: "bad month"},
	}

	result := validator.ValidateDiaryEntries(entries)
	if result.Count(ConflictBlankDiaryEntry) != 1 {
		t.Errorf("expected blank entry conflict, got %+v", result.Conflicts)
	}
	if result.Count(ConflictInvalidDayKey) != 1 {
		t.Errorf("expected invalid day key conflict, got %+v", result.Conflicts)
	}
}

func TestValidateTodos(t *testing.T) {
	validator := New()

	tests := []struct {
		name string
		item models.TodoItem
		want ConflictType
	}{
		{"invalid day key", models.TodoItem{ID: "1", DayKey: "yesterday", Title: "x", Category: models.CategoryOther}, ConflictInvalidDayKey},
		{"unknown category", models.TodoItem{ID: "2", DayKey: "2025-01-01", Title: "x", Category: "chores"}, ConflictInvalidCategory},
		{"empty title", models.TodoItem{ID: "3", DayKey: "2025-01-01", Title: " ", Category: models.CategoryStudy}, ConflictEmptyTodoTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.ValidateTodos([]models.TodoItem{tt.item})
			if len(result.Conflicts) != 1 || result.Conflicts[0].Type != tt.want {
				t.Errorf("conflicts = %+v, want one %s", result.Conflicts, tt.want)
			}
		})
	}

	valid := models.TodoItem{ID: "4", DayKey: "2025-01-01", Title: "Read", Category: models.CategoryStudy}
	if result := validator.ValidateTodos([]models.TodoItem{valid}); result.HasConflicts() {
		t.Errorf("valid todo reported conflicts: %+v", result.Conflicts)
	}
}

func TestValidate_DuplicateIDs(t *testing.T) {
	validator := New()

	todos := []models.TodoItem{
		{ID: "same", DayKey: "2025-01-01", Title: "A", Category: models.CategoryOther},
		{ID: "same", DayKey: "2025-01-02", Title: "B", Category: models.CategoryOther},
	}
	result := validator.Validate(nil, todos)
	if result.Count(ConflictDuplicateID) != 1 {
		t.Errorf("expected duplicate id conflict, got %+v", result.Conflicts)
	}
}

func TestFormatReport(t *testing.T) {
	var empty ValidationResult
	if got := empty.FormatReport(); got != "No conflicts detected." {
		t.Errorf("FormatReport() = %q", got)
	}

	result := ValidationResult{Conflicts: []Conflict{{Description: "Something off"}}}
	if got := result.FormatReport(); !strings.Contains(got, "- Something off") {
		t.Errorf("FormatReport() = %q", got)
	}
}

func TestAutoFixDuplicateEntries_KeepsNewest(t *testing.T) {
	entries := []models.DiaryEntry{
		{ID: "old", DayKey: "2025-01-01", Content: "first", Timestamp: base},
		{ID: "new", DayKey: "2025-01-01", Content: "second", Timestamp: base.Add(time.Hour)},
		{ID: "blank", DayKey: "2025-01-01", Content: " ", Timestamp: base.Add(2 * time.Hour)},
	}
	result := New().ValidateDiaryEntries(entries)

	var deleted []string
	actions := AutoFixDuplicateEntries(result.Conflicts, entries, func(id string) error {
		deleted = append(deleted, id)
		return nil
	})

	if len(actions) != 1 {
		t.Fatalf("expected one fix action, got %+v", actions)
	}
	if !strings.Contains(actions[0].Action, "kept ID: new") {
		t.Errorf("unexpected action %q", actions[0].Action)
	}
	if len(deleted) != 2 {
		t.Errorf("deleted = %v, want old and blank", deleted)
	}
	for _, id := range deleted {
		if id == "new" {
			t.Error("newest non-blank entry must be kept")
		}
	}
}

func TestAutoFixDuplicateEntries_ReportsFailures(t *testing.T) {
	entries := []models.DiaryEntry{
		{ID: "a", DayKey: "2025-01-01", Content: "x", Timestamp: base},
		{ID: "b", DayKey: "2025-01-01", Content: "y", Timestamp: base},
	}
	result := New().ValidateDiaryEntries(entries)

	actions := AutoFixDuplicateEntries(result.Conflicts, entries, func(string) error {
		return errors.New("disk full")
	})
	if len(actions) != 1 || !strings.HasPrefix(actions[0].Action, "Failed to remove duplicates") {
		t.Errorf("unexpected actions %+v", actions)
	}
}

func TestAutoFixBlankEntries(t *testing.T) {
	entries := []models.DiaryEntry{{ID: "a", DayKey: "2025-01-01", Content: ""}}
	result := New().ValidateDiaryEntries(entries)

	var deleted []string
	actions := AutoFixBlankEntries(result.Conflicts, func(id string) error {
		deleted = append(deleted, id)
		return nil
	})
	if len(actions) != 1 || len(deleted) != 1 || deleted[0] != "a" {
		t.Errorf("actions = %+v, deleted = %v", actions, deleted)
	}
}
