// Package export moves whole data sets in and out of a store: archives for
// the user, store-to-store copies, wiping and sample data.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/mydiary/internal/constants"
	"github.com/julianstephens/mydiary/internal/daykey"
	myerrors "github.com/julianstephens/mydiary/internal/errors"
	"github.com/julianstephens/mydiary/internal/models"
	"github.com/julianstephens/mydiary/internal/storage"
)

// ArchiveVersion is bumped when the JSON layout changes.
const ArchiveVersion = 1

// Archive is everything a store holds.
type Archive struct {
	Version      int                 `json:"version"`
	ExportedAt   time.Time           `json:"exported_at"`
	Settings     models.Settings     `json:"settings"`
	DiaryEntries []models.DiaryEntry `json:"diary_entries"`
	Todos        []models.TodoItem   `json:"todos"`
}

// Stats counts the records an operation touched.
type Stats struct {
	DiaryEntries int
	Todos        int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d diary entries, %d todos", s.DiaryEntries, s.Todos)
}

// Collect reads the whole store.
func Collect(store storage.Provider, now time.Time) (Archive, error) {
	settings, err := store.GetSettings()
	if err != nil {
		return Archive{}, fmt.Errorf("failed to read settings: %w", err)
	}
	entries, err := store.GetAllDiaryEntries()
	if err != nil {
		return Archive{}, fmt.Errorf("failed to read diary entries: %w", err)
	}
	todos, err := store.GetAllTodos()
	if err != nil {
		return Archive{}, fmt.Errorf("failed to read todos: %w", err)
	}

	if entries == nil {
		entries = []models.DiaryEntry{}
	}
	if todos == nil {
		todos = []models.TodoItem{}
	}
	return Archive{
		Version:      ArchiveVersion,
		ExportedAt:   now,
		Settings:     settings,
		DiaryEntries: entries,
		Todos:        todos,
	}, nil
}

func (a Archive) Stats() Stats {
	return Stats{DiaryEntries: len(a.DiaryEntries), Todos: len(a.Todos)}
}

// WriteJSON writes a as indented JSON.
func WriteJSON(w io.Writer, a Archive) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

// ReadJSON decodes an archive written by WriteJSON.
func ReadJSON(r io.Reader) (Archive, error) {
	var a Archive
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return Archive{}, fmt.Errorf("failed to decode archive: %w", err)
	}
	if a.Version > ArchiveVersion {
		return Archive{}, fmt.Errorf("archive version %d is newer than supported version %d", a.Version, ArchiveVersion)
	}
	return a, nil
}

// days returns every day key that holds data, oldest first.
func (a Archive) days() []string {
	seen := map[string]bool{}
	for _, e := range a.DiaryEntries {
		seen[e.DayKey] = true
	}
	for _, t := range a.Todos {
		seen[t.DayKey] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteMarkdown writes one section per day with its todos and diary text.
func WriteMarkdown(w io.Writer, a Archive) error {
	entries := map[string]models.DiaryEntry{}
	for _, e := range a.DiaryEntries {
		entries[e.DayKey] = e
	}
	todos := map[string][]models.TodoItem{}
	for _, t := range a.Todos {
		todos[t.DayKey] = append(todos[t.DayKey], t)
	}

	var b strings.Builder
	b.WriteString("# MyDiary\n")
	for _, day := range a.days() {
		b.WriteString("\n")
		b.WriteString(DayMarkdown(day, entries[day].Content, todos[day]))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// DayMarkdown renders one day as a Markdown section.
func DayMarkdown(dayKey, diary string, todos []models.TodoItem) string {
	var b strings.Builder

	heading := dayKey
	if t := daykey.DateOrZero(dayKey); !t.IsZero() {
		heading = fmt.Sprintf("%s (%s)", t.Format("Monday, January 2, 2006"), dayKey)
	}
	fmt.Fprintf(&b, "## %s\n", heading)

	if len(todos) > 0 {
		b.WriteString("\n### Todos\n\n")
		items := append([]models.TodoItem(nil), todos...)
		models.SortTodos(items)
		for _, item := range items {
			mark := " "
			if item.IsCompleted {
				mark = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s _(%s)_", mark, item.Title, item.Category.Label())
			if item.DueDate != nil {
				fmt.Fprintf(&b, " due %s", item.DueDate.Format(constants.DueFormat))
			}
			b.WriteString("\n")
		}
	}

	if !models.IsBlank(diary) {
		b.WriteString("\n### Diary\n\n")
		b.WriteString(strings.TrimRight(diary, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

// Restore stages every record of a into store and persists them together.
// Settings, when present, are written first.
func Restore(store storage.Provider, a Archive) (Stats, error) {
	if a.Settings != (models.Settings{}) {
		if err := store.SaveSettings(a.Settings); err != nil {
			return Stats{}, fmt.Errorf("failed to save settings: %w", err)
		}
	}
	for _, e := range a.DiaryEntries {
		if err := store.UpsertDiaryEntry(e); err != nil {
			return Stats{}, fmt.Errorf("failed to stage diary entry %s: %w", e.ID, err)
		}
	}
	for _, t := range a.Todos {
		if err := store.UpsertTodo(t); err != nil {
			return Stats{}, fmt.Errorf("failed to stage todo %s: %w", t.ID, err)
		}
	}
	if err := store.Persist(); err != nil {
		return Stats{}, err
	}
	return a.Stats(), nil
}

// Merge restores a into a store that may already hold data. An archived
// diary entry for a day that already has one takes over the existing
// record, so each day keeps a single entry. Archived settings are ignored.
func Merge(store storage.Provider, a Archive) (Stats, error) {
	merged := a
	merged.Settings = models.Settings{}
	merged.DiaryEntries = make([]models.DiaryEntry, 0, len(a.DiaryEntries))
	for _, e := range a.DiaryEntries {
		existing, err := store.FindDiaryEntryByDayKey(e.DayKey)
		switch {
		case err == nil:
			e.ID = existing.ID
		case !errors.Is(err, myerrors.ErrNotFound):
			return Stats{}, fmt.Errorf("failed to look up diary entry for %s: %w", e.DayKey, err)
		}
		merged.DiaryEntries = append(merged.DiaryEntries, e)
	}
	return Restore(store, merged)
}

// Copy moves everything from src into dst.
func Copy(src, dst storage.Provider, now time.Time) (Stats, error) {
	a, err := Collect(src, now)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read source: %w", err)
	}
	return Restore(dst, a)
}

// Reset deletes every diary entry and todo. Settings are kept.
func Reset(store storage.Provider) (Stats, error) {
	entries, err := store.GetAllDiaryEntries()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read diary entries: %w", err)
	}
	todos, err := store.GetAllTodos()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read todos: %w", err)
	}

	for _, e := range entries {
		if err := store.DeleteDiaryEntry(e.ID); err != nil {
			return Stats{}, err
		}
	}
	ids := make([]string, len(todos))
	for i, t := range todos {
		ids[i] = t.ID
	}
	if err := store.DeleteTodos(ids); err != nil {
		return Stats{}, err
	}
	if err := store.Persist(); err != nil {
		return Stats{}, err
	}
	return Stats{DiaryEntries: len(entries), Todos: len(todos)}, nil
}

// Seed adds a handful of sample todos and a diary entry to today.
func Seed(store storage.Provider, now time.Time, newID func() string) (Stats, error) {
	today := daykey.Key(now)
	categories := models.AllCategories()

	const sampleTodos = 5
	for i := 0; i < sampleTodos; i++ {
		item := models.TodoItem{
			ID:          newID(),
			DayKey:      today,
			Title:       fmt.Sprintf("Sample todo %d", i+1),
			IsCompleted: i%2 == 0,
			Category:    categories[i%len(categories)],
			CreatedAt:   now.Add(time.Duration(i) * time.Second),
		}
		if err := store.UpsertTodo(item); err != nil {
			return Stats{}, err
		}
	}

	if _, err := store.FindDiaryEntryByDayKey(today); err != nil {
		entry := models.DiaryEntry{
			ID:        newID(),
			DayKey:    today,
			Content:   "Started a new diary today. Todos on the left, thoughts on the right.",
			Timestamp: now,
		}
		if err := store.UpsertDiaryEntry(entry); err != nil {
			return Stats{}, err
		}
		if err := store.Persist(); err != nil {
			return Stats{}, err
		}
		return Stats{DiaryEntries: 1, Todos: sampleTodos}, nil
	}

	if err := store.Persist(); err != nil {
		return Stats{}, err
	}
	return Stats{Todos: sampleTodos}, nil
}
