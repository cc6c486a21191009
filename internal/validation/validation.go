package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/mydiary/internal/daykey"
	"github.com/julianstephens/mydiary/internal/models"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictDuplicateDiaryEntry ConflictType = "duplicate_diary_entry"
	ConflictBlankDiaryEntry     ConflictType = "blank_diary_entry"
	ConflictInvalidDayKey       ConflictType = "invalid_day_key"
	ConflictInvalidCategory     ConflictType = "invalid_category"
	ConflictEmptyTodoTitle      ConflictType = "empty_todo_title"
	ConflictDuplicateID         ConflictType = "duplicate_id"
)

// Conflict represents a detected problem in the stored records
type Conflict struct {
	Type        ConflictType
	Description string
	DayKey      string   // YYYY-MM-DD (if applicable)
	IDs         []string // IDs of the records involved (for auto-fixing)
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// FixAction represents an action taken during auto-fix
type FixAction struct {
	Action         string   // Human-readable description of the action
	SourceConflict Conflict // The conflict that triggered this fix action
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// Count returns the number of conflicts of type t.
func (vr *ValidationResult) Count(t ConflictType) int {
	n := 0
	for _, c := range vr.Conflicts {
		if c.Type == t {
			n++
		}
	}
	return n
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Validator checks diary entries and todos for records the controllers
// would never write.
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidateDiaryEntries checks for days with more than one entry, blank
// entries and malformed day keys.
func (v *Validator) ValidateDiaryEntries(entries []models.DiaryEntry) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	byDay := make(map[string][]string)
	var days []string
	for _, e := range entries {
		if !daykey.Valid(e.DayKey) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidDayKey,
				Description: fmt.Sprintf("Diary entry %s has invalid day key %q", e.ID, e.DayKey),
				DayKey:      e.DayKey,
				IDs:         []string{e.ID},
			})
			continue
		}
		if models.IsBlank(e.Content) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictBlankDiaryEntry,
				Description: fmt.Sprintf("Diary entry for %s is blank (ID: %s)", e.DayKey, e.ID),
				DayKey:      e.DayKey,
				IDs:         []string{e.ID},
			})
		}
		if _, ok := byDay[e.DayKey]; !ok {
			days = append(days, e.DayKey)
		}
		byDay[e.DayKey] = append(byDay[e.DayKey], e.ID)
	}

	sort.Strings(days)
	for _, day := range days {
		ids := byDay[day]
		if len(ids) > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateDiaryEntry,
				Description: fmt.Sprintf("Multiple diary entries for %s (IDs: %v)", day, ids),
				DayKey:      day,
				IDs:         ids,
			})
		}
	}

	result.Conflicts = append(result.Conflicts, duplicateIDs("diary entry", diaryIDs(entries))...)
	return result
}

// ValidateTodos checks todo items for malformed day keys, unknown
// categories and empty titles.
func (v *Validator) ValidateTodos(todos []models.TodoItem) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	ids := make([]string, 0, len(todos))
	for _, item := range todos {
		ids = append(ids, item.ID)
		if !daykey.Valid(item.DayKey) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidDayKey,
				Description: fmt.Sprintf("Todo %q has invalid day key %q", item.Title, item.DayKey),
				DayKey:      item.DayKey,
				IDs:         []string{item.ID},
			})
		}
		if !item.Category.Valid() {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidCategory,
				Description: fmt.Sprintf("Todo %q has unknown category %q", item.Title, item.Category),
				DayKey:      item.DayKey,
				IDs:         []string{item.ID},
			})
		}
		if strings.TrimSpace(item.Title) == "" {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictEmptyTodoTitle,
				Description: fmt.Sprintf("Todo %s on %s has an empty title", item.ID, item.DayKey),
				DayKey:      item.DayKey,
				IDs:         []string{item.ID},
			})
		}
	}

	result.Conflicts = append(result.Conflicts, duplicateIDs("todo", ids)...)
	return result
}

// Validate runs every check over a whole store's records.
func (v *Validator) Validate(entries []models.DiaryEntry, todos []models.TodoItem) ValidationResult {
	diary := v.ValidateDiaryEntries(entries)
	todo := v.ValidateTodos(todos)
	return ValidationResult{Conflicts: append(diary.Conflicts, todo.Conflicts...)}
}

func diaryIDs(entries []models.DiaryEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func duplicateIDs(kind string, ids []string) []Conflict {
	seen := make(map[string]int)
	for _, id := range ids {
		seen[id]++
	}
	var dups []string
	for id, n := range seen {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)

	conflicts := make([]Conflict, 0, len(dups))
	for _, id := range dups {
		conflicts = append(conflicts, Conflict{
			Type:        ConflictDuplicateID,
			Description: fmt.Sprintf("%d records share %s ID %s", seen[id], kind, id),
			IDs:         []string{id},
		})
	}
	return conflicts
}

// AutoFixDuplicateEntries keeps the most recently written entry of each
// duplicated day and deletes the others through deleteFunc.
// Returns a slice of FixActions describing what was fixed
func AutoFixDuplicateEntries(conflicts []Conflict, entries []models.DiaryEntry, deleteFunc func(id string) error) []FixAction {
	actions := []FixAction{}

	entryMap := make(map[string]models.DiaryEntry)
	for _, e := range entries {
		entryMap[e.ID] = e
	}

	for _, conflict := range conflicts {
		if conflict.Type != ConflictDuplicateDiaryEntry || len(conflict.IDs) <= 1 {
			continue
		}

		var candidates []models.DiaryEntry
		for _, id := range conflict.IDs {
			if e, ok := entryMap[id]; ok {
				candidates = append(candidates, e)
			}
		}
		if len(candidates) <= 1 {
			continue
		}

		// non-blank first, then newest; the ID keeps equal timestamps deterministic
		sort.Slice(candidates, func(i, j int) bool {
			bi, bj := models.IsBlank(candidates[i].Content), models.IsBlank(candidates[j].Content)
			if bi != bj {
				return !bi
			}
			if !candidates[i].Timestamp.Equal(candidates[j].Timestamp) {
				return candidates[i].Timestamp.After(candidates[j].Timestamp)
			}
			return candidates[i].ID < candidates[j].ID
		})

		keep := candidates[0]
		var deletedIDs, failedIDs []string
		for _, e := range candidates[1:] {
			if err := deleteFunc(e.ID); err == nil {
				deletedIDs = append(deletedIDs, e.ID)
			} else {
				failedIDs = append(failedIDs, e.ID)
			}
		}

		if len(deletedIDs) > 0 {
			msg := fmt.Sprintf("Removed %d duplicate diary entr(ies) for %s (kept ID: %s, removed: %v)", len(deletedIDs), conflict.DayKey, keep.ID, deletedIDs)
			if len(failedIDs) > 0 {
				msg += fmt.Sprintf(" (failed to remove: %v)", failedIDs)
			}
			actions = append(actions, FixAction{Action: msg, SourceConflict: conflict})
		} else if len(failedIDs) > 0 {
			actions = append(actions, FixAction{
				Action:         fmt.Sprintf("Failed to remove duplicates for %s: %v", conflict.DayKey, failedIDs),
				SourceConflict: conflict,
			})
		}
	}

	return actions
}

// AutoFixBlankEntries deletes blank diary entries, which the diary
// controller treats the same as no entry.
func AutoFixBlankEntries(conflicts []Conflict, deleteFunc func(id string) error) []FixAction {
	actions := []FixAction{}
	for _, conflict := range conflicts {
		if conflict.Type != ConflictBlankDiaryEntry {
			continue
		}
		for _, id := range conflict.IDs {
			if err := deleteFunc(id); err != nil {
				actions = append(actions, FixAction{
					Action:         fmt.Sprintf("Failed to remove blank diary entry %s: %v", id, err),
					SourceConflict: conflict,
				})
				continue
			}
			actions = append(actions, FixAction{
				Action:         fmt.Sprintf("Removed blank diary entry for %s (ID: %s)", conflict.DayKey, id),
				SourceConflict: conflict,
			})
		}
	}
	return actions
}
