// Package storagetest holds behaviour tests shared by every storage.Provider.
package storagetest

import (
	"errors"
	"testing"
	"time"

	myerrors "github.com/julianstephens/mydiary/internal/errors"
	"github.com/julianstephens/mydiary/internal/models"
	"github.com/julianstephens/mydiary/internal/storage"
)

// Opener returns a freshly initialized, empty store.
type Opener func(t *testing.T) storage.Provider

var base = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

// Run exercises the Provider contract against stores created by open.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Provider)
	}{
		{"DefaultSettings", testDefaultSettings},
		{"SaveSettings", testSaveSettings},
		{"DiaryNotFound", testDiaryNotFound},
		{"DiaryUpsertIsVisibleAfterPersist", testDiaryUpsertVisibleAfterPersist},
		{"DiaryUpsertOverwritesInPlace", testDiaryUpsertOverwrites},
		{"DiaryDelete", testDiaryDelete},
		{"DeleteUnknownIsNoop", testDeleteUnknown},
		{"TodosScopedByDay", testTodosScopedByDay},
		{"TodoOrdering", testTodoOrdering},
		{"TodoUpdateAndDueDate", testTodoUpdate},
		{"DeleteTodos", testDeleteTodos},
		{"GetAll", testGetAll},
		{"DaySummaries", testDaySummaries},
		{"PersistWithoutChanges", testPersistWithoutChanges},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			tt.fn(t, s)
		})
	}
}

func mustPersist(t *testing.T, s storage.Provider) {
	t.Helper()
	if err := s.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	if s.HasPendingChanges() {
		t.Fatal("expected no pending changes after Persist")
	}
}

func todo(id, day, title string, completed bool, created time.Time) models.TodoItem {
	return models.TodoItem{
		ID:          id,
		DayKey:      day,
		Title:       title,
		IsCompleted: completed,
		Category:    models.CategoryPersonal,
		CreatedAt:   created,
	}
}

func titles(items []models.TodoItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Title
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func testDefaultSettings(t *testing.T, s storage.Provider) {
	settings, err := s.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings != models.DefaultSettings() {
		t.Errorf("expected default settings, got %+v", settings)
	}
}

func testSaveSettings(t *testing.T, s storage.Provider) {
	want := models.Settings{Timezone: "UTC", ThemeMode: models.ThemeDark, AutosaveDelayMs: 400}
	if err := s.SaveSettings(want); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
	got, err := s.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if s.HasPendingChanges() {
		t.Error("settings must not be staged")
	}
}

func testDiaryNotFound(t *testing.T, s storage.Provider) {
	_, err := s.FindDiaryEntryByDayKey("2025-01-01")
	if !errors.Is(err, myerrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testDiaryUpsertVisibleAfterPersist(t *testing.T, s storage.Provider) {
	entry := models.DiaryEntry{ID: "e1", DayKey: "2025-01-01", Content: "first day", Timestamp: base}
	if err := s.UpsertDiaryEntry(entry); err != nil {
		t.Fatalf("UpsertDiaryEntry failed: %v", err)
	}
	if !s.HasPendingChanges() {
		t.Fatal("expected pending change")
	}
	if _, err := s.FindDiaryEntryByDayKey("2025-01-01"); !errors.Is(err, myerrors.ErrNotFound) {
		t.Errorf("staged entry must not be visible before Persist, got %v", err)
	}

	mustPersist(t, s)

	got, err := s.FindDiaryEntryByDayKey("2025-01-01")
	if err != nil {
		t.Fatalf("FindDiaryEntryByDayKey failed: %v", err)
	}
	if got.ID != "e1" || got.Content != "first day" || !got.Timestamp.Equal(base) {
		t.Errorf("unexpected entry %+v", got)
	}
}

func testDiaryUpsertOverwrites(t *testing.T, s storage.Provider) {
	first := models.DiaryEntry{ID: "e1", DayKey: "2025-01-01", Content: "draft", Timestamp: base}
	second := first
	second.Content = "final"
	second.Timestamp = base.Add(time.Minute)

	if err := s.UpsertDiaryEntry(first); err != nil {
		t.Fatalf("UpsertDiaryEntry failed: %v", err)
	}
	mustPersist(t, s)
	if err := s.UpsertDiaryEntry(second); err != nil {
		t.Fatalf("UpsertDiaryEntry failed: %v", err)
	}
	mustPersist(t, s)

	all, err := s.GetAllDiaryEntries()
	if err != nil {
		t.Fatalf("GetAllDiaryEntries failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(all))
	}
	if all[0].Content != "final" || !all[0].Timestamp.Equal(second.Timestamp) {
		t.Errorf("expected second save to win, got %+v", all[0])
	}
}

func testDiaryDelete(t *testing.T, s storage.Provider) {
	entry := models.DiaryEntry{ID: "e1", DayKey: "2025-01-01", Content: "x", Timestamp: base}
	if err := s.UpsertDiaryEntry(entry); err != nil {
		t.Fatalf("UpsertDiaryEntry failed: %v", err)
	}
	mustPersist(t, s)

	if err := s.DeleteDiaryEntry("e1"); err != nil {
		t.Fatalf("DeleteDiaryEntry failed: %v", err)
	}
	mustPersist(t, s)

	if _, err := s.FindDiaryEntryByDayKey("2025-01-01"); !errors.Is(err, myerrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func testDeleteUnknown(t *testing.T, s storage.Provider) {
	if err := s.DeleteDiaryEntry("missing"); err != nil {
		t.Fatalf("DeleteDiaryEntry failed: %v", err)
	}
	if err := s.DeleteTodos([]string{"missing-1", "missing-2"}); err != nil {
		t.Fatalf("DeleteTodos failed: %v", err)
	}
	mustPersist(t, s)
}

func testTodosScopedByDay(t *testing.T, s storage.Provider) {
	for _, item := range []models.TodoItem{
		todo("a", "2025-01-01", "A", false, base),
		todo("b", "2025-01-01", "B", false, base.Add(time.Minute)),
		todo("c", "2025-01-02", "C", false, base),
	} {
		if err := s.UpsertTodo(item); err != nil {
			t.Fatalf("UpsertTodo failed: %v", err)
		}
	}
	mustPersist(t, s)

	day1, err := s.FindTodosByDayKey("2025-01-01")
	if err != nil {
		t.Fatalf("FindTodosByDayKey failed: %v", err)
	}
	if got := titles(day1); !equalStrings(got, []string{"A", "B"}) {
		t.Errorf("day 1 = %v", got)
	}

	day2, err := s.FindTodosByDayKey("2025-01-02")
	if err != nil {
		t.Fatalf("FindTodosByDayKey failed: %v", err)
	}
	if got := titles(day2); !equalStrings(got, []string{"C"}) {
		t.Errorf("day 2 = %v", got)
	}

	empty, err := s.FindTodosByDayKey("2025-01-03")
	if err != nil {
		t.Fatalf("FindTodosByDayKey failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no items, got %v", titles(empty))
	}
}

func testTodoOrdering(t *testing.T, s storage.Provider) {
	for _, item := range []models.TodoItem{
		todo("b", "2025-01-01", "B", true, base.Add(2*time.Minute)),
		todo("c", "2025-01-01", "C", false, base.Add(3*time.Minute)),
		todo("a", "2025-01-01", "A", false, base.Add(time.Minute)),
	} {
		if err := s.UpsertTodo(item); err != nil {
			t.Fatalf("UpsertTodo failed: %v", err)
		}
	}
	mustPersist(t, s)

	items, err := s.FindTodosByDayKey("2025-01-01")
	if err != nil {
		t.Fatalf("FindTodosByDayKey failed: %v", err)
	}
	if got := titles(items); !equalStrings(got, []string{"A", "C", "B"}) {
		t.Errorf("order = %v, want [A C B]", got)
	}
}

func testTodoUpdate(t *testing.T, s storage.Provider) {
	item := todo("a", "2025-01-01", "A", false, base)
	if err := s.UpsertTodo(item); err != nil {
		t.Fatalf("UpsertTodo failed: %v", err)
	}
	mustPersist(t, s)

	due := time.Date(2025, 1, 10, 17, 0, 0, 0, time.UTC)
	item.Title = "A (revised)"
	item.Category = models.CategoryAssignment
	item.DueDate = &due
	item.IsCompleted = true
	if err := s.UpsertTodo(item); err != nil {
		t.Fatalf("UpsertTodo failed: %v", err)
	}
	mustPersist(t, s)

	items, err := s.FindTodosByDayKey("2025-01-01")
	if err != nil {
		t.Fatalf("FindTodosByDayKey failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	got := items[0]
	if got.Title != "A (revised)" || got.Category != models.CategoryAssignment || !got.IsCompleted {
		t.Errorf("unexpected item %+v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("due date = %v, want %v", got.DueDate, due)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("created at changed: %v", got.CreatedAt)
	}

	item.DueDate = nil
	if err := s.UpsertTodo(item); err != nil {
		t.Fatalf("UpsertTodo failed: %v", err)
	}
	mustPersist(t, s)
	items, _ = s.FindTodosByDayKey("2025-01-01")
	if len(items) != 1 || items[0].DueDate != nil {
		t.Errorf("expected due date to be cleared, got %+v", items)
	}
}

func testDeleteTodos(t *testing.T, s storage.Provider) {
	for _, item := range []models.TodoItem{
		todo("a", "2025-01-01", "A", false, base),
		todo("b", "2025-01-01", "B", false, base.Add(time.Minute)),
		todo("c", "2025-01-01", "C", false, base.Add(2*time.Minute)),
	} {
		if err := s.UpsertTodo(item); err != nil {
			t.Fatalf("UpsertTodo failed: %v", err)
		}
	}
	mustPersist(t, s)

	if err := s.DeleteTodos([]string{"a", "c"}); err != nil {
		t.Fatalf("DeleteTodos failed: %v", err)
	}
	mustPersist(t, s)

	items, err := s.FindTodosByDayKey("2025-01-01")
	if err != nil {
		t.Fatalf("FindTodosByDayKey failed: %v", err)
	}
	if got := titles(items); !equalStrings(got, []string{"B"}) {
		t.Errorf("remaining = %v", got)
	}

	if err := s.DeleteTodo("b"); err != nil {
		t.Fatalf("DeleteTodo failed: %v", err)
	}
	mustPersist(t, s)
	items, _ = s.FindTodosByDayKey("2025-01-01")
	if len(items) != 0 {
		t.Errorf("expected empty day, got %v", titles(items))
	}
}

func testGetAll(t *testing.T, s storage.Provider) {
	_ = s.UpsertDiaryEntry(models.DiaryEntry{ID: "e2", DayKey: "2025-01-02", Content: "two", Timestamp: base})
	_ = s.UpsertDiaryEntry(models.DiaryEntry{ID: "e1", DayKey: "2025-01-01", Content: "one", Timestamp: base})
	_ = s.UpsertTodo(todo("b", "2025-01-02", "B", false, base))
	_ = s.UpsertTodo(todo("a", "2025-01-01", "A", false, base))
	mustPersist(t, s)

	entries, err := s.GetAllDiaryEntries()
	if err != nil {
		t.Fatalf("GetAllDiaryEntries failed: %v", err)
	}
	if len(entries) != 2 || entries[0].DayKey != "2025-01-01" || entries[1].DayKey != "2025-01-02" {
		t.Errorf("entries not ordered by day: %+v", entries)
	}

	todos, err := s.GetAllTodos()
	if err != nil {
		t.Fatalf("GetAllTodos failed: %v", err)
	}
	if got := titles(todos); !equalStrings(got, []string{"A", "B"}) {
		t.Errorf("todos = %v", got)
	}
}

func testDaySummaries(t *testing.T, s storage.Provider) {
	_ = s.UpsertDiaryEntry(models.DiaryEntry{ID: "e1", DayKey: "2025-01-02", Content: "x", Timestamp: base})
	_ = s.UpsertDiaryEntry(models.DiaryEntry{ID: "e2", DayKey: "2025-02-01", Content: "x", Timestamp: base})
	_ = s.UpsertTodo(todo("a", "2025-01-02", "A", true, base))
	_ = s.UpsertTodo(todo("b", "2025-01-02", "B", false, base))
	_ = s.UpsertTodo(todo("c", "2025-01-05", "C", false, base))
	mustPersist(t, s)

	got, err := s.GetDaySummaries("2025-01-01", "2025-01-31")
	if err != nil {
		t.Fatalf("GetDaySummaries failed: %v", err)
	}
	want := []models.DaySummary{
		{DayKey: "2025-01-02", HasDiary: true, TodoTotal: 2, TodoCompleted: 1},
		{DayKey: "2025-01-05", TodoTotal: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("summary %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func testPersistWithoutChanges(t *testing.T, s storage.Provider) {
	if s.HasPendingChanges() {
		t.Fatal("fresh store should have nothing staged")
	}
	mustPersist(t, s)
}
