package days

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/julianstephens/mydiary/internal/cli"
	"github.com/julianstephens/mydiary/internal/models"
	"github.com/julianstephens/mydiary/internal/storage/sqlite"
)

var fixedNow = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func init() {
	color.NoColor = true
}

func setupContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.SaveSettings(models.Settings{Timezone: "UTC", ThemeMode: models.ThemeSystem, AutosaveDelayMs: 1000}); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}

	records := []models.TodoItem{
		{ID: "t1", DayKey: "2025-01-02", Title: "Read", Category: models.CategoryStudy, CreatedAt: fixedNow},
		{ID: "t2", DayKey: "2025-01-02", Title: "Call home", Category: models.CategoryPersonal, IsCompleted: true, CreatedAt: fixedNow},
		{ID: "t3", DayKey: "2025-02-01", Title: "Next month", Category: models.CategoryOther, CreatedAt: fixedNow},
	}
	for _, item := range records {
		if err := store.UpsertTodo(item); err != nil {
			t.Fatalf("failed to stage todo: %v", err)
		}
	}
	entry := models.DiaryEntry{ID: "e1", DayKey: "2025-01-10", Content: "Quiet day.", Timestamp: fixedNow}
	if err := store.UpsertDiaryEntry(entry); err != nil {
		t.Fatalf("failed to stage entry: %v", err)
	}
	if err := store.Persist(); err != nil {
		t.Fatalf("failed to persist: %v", err)
	}

	out := &bytes.Buffer{}
	return &cli.Context{
		Store:  store,
		Stdout: out,
		Now:    func() time.Time { return fixedNow },
	}, out
}

func TestDayCmd(t *testing.T) {
	ctx, out := setupContext(t)

	if err := (&DayCmd{Date: "2025-01-02"}).Run(ctx); err != nil {
		t.Fatalf("day failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"## Thursday, January 2, 2025 (2025-01-02)", "- [ ] Read _(Study)_", "- [x] Call home"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}

	out.Reset()
	if err := (&DayCmd{Date: "today"}).Run(ctx); err != nil {
		t.Fatalf("day failed: %v", err)
	}
	if !strings.Contains(out.String(), "Nothing recorded for this day.") {
		t.Errorf("unexpected output for an empty day:\n%s", out.String())
	}

	if err := (&DayCmd{Date: "not-a-date"}).Run(ctx); err == nil {
		t.Error("expected error for an invalid date")
	}
}

func TestMonthCmd(t *testing.T) {
	ctx, out := setupContext(t)

	if err := (&MonthCmd{}).Run(ctx); err != nil {
		t.Fatalf("month failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"January 2025", "  2+", " 10*", "2025-01-02", "1/2 todos done", "2025-01-10  diary"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "2025-02-01") {
		t.Errorf("summaries must stay within the month:\n%s", got)
	}

	out.Reset()
	if err := (&MonthCmd{Month: "2024-06"}).Run(ctx); err != nil {
		t.Fatalf("month failed: %v", err)
	}
	if !strings.Contains(out.String(), "No entries this month.") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	if err := (&MonthCmd{Month: "2025-13"}).Run(ctx); err == nil {
		t.Error("expected error for an invalid month")
	}
}

func TestCalendar_Layout(t *testing.T) {
	month := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got := Calendar(month, fixedNow, nil)

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	// Header, weekday row and five weeks
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d:\n%s", len(lines), got)
	}
	// January 1st 2025 is a Wednesday
	if want := "              1   2   3   4"; lines[2] != want {
		t.Errorf("first week = %q, want %q", lines[2], want)
	}
}
