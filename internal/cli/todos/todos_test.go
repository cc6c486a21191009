package todos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/julianstephens/mydiary/internal/cli"
	"github.com/julianstephens/mydiary/internal/models"
	"github.com/julianstephens/mydiary/internal/storage/sqlite"
)

var fixedNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

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

	ticks, ids := 0, 0
	out := &bytes.Buffer{}
	return &cli.Context{
		Store:  store,
		Stdout: out,
		// Every read advances the clock so creation order is stable
		Now: func() time.Time {
			ticks++
			return fixedNow.Add(time.Duration(ticks) * time.Second)
		},
		NewID: func() string {
			ids++
			return fmt.Sprintf("todo-%02d", ids)
		},
	}, out
}

func addTodos(t *testing.T, ctx *cli.Context, titles ...string) {
	t.Helper()
	for _, title := range titles {
		if err := (&TodoAddCmd{dateFlag: dateFlag{Date: "today"}, Title: title, Category: "other"}).Run(ctx); err != nil {
			t.Fatalf("failed to add todo %q: %v", title, err)
		}
	}
}

func listJSON(t *testing.T, ctx *cli.Context, out *bytes.Buffer) []models.TodoItem {
	t.Helper()
	out.Reset()
	if err := (&TodoListCmd{dateFlag: dateFlag{Date: "today"}, JSON: true}).Run(ctx); err != nil {
		t.Fatalf("failed to list todos: %v", err)
	}
	var items []models.TodoItem
	if err := json.Unmarshal(out.Bytes(), &items); err != nil {
		t.Fatalf("failed to parse list output: %v\n%s", err, out.String())
	}
	return items
}

func TestTodoAddCmd(t *testing.T) {
	ctx, out := setupContext(t)

	cmd := &TodoAddCmd{dateFlag: dateFlag{Date: "2025-01-02"}, Title: "  Read chapter 3 ", Category: "study", Due: "2025-01-03 17:00"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !strings.Contains(out.String(), "Added todo to 2025-01-02") {
		t.Errorf("unexpected output: %s", out.String())
	}

	items, err := ctx.Store.FindTodosByDayKey("2025-01-02")
	if err != nil {
		t.Fatalf("failed to get todos: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 todo, got %d", len(items))
	}
	item := items[0]
	if item.Title != "Read chapter 3" || item.Category != models.CategoryStudy {
		t.Errorf("unexpected item %+v", item)
	}
	if item.DueDate == nil || item.DueDate.Hour() != 17 {
		t.Errorf("due date not stored: %v", item.DueDate)
	}
}

func TestTodoAddCmd_Errors(t *testing.T) {
	ctx, _ := setupContext(t)

	tests := []struct {
		name string
		cmd  TodoAddCmd
	}{
		{"empty title", TodoAddCmd{dateFlag: dateFlag{Date: "today"}, Title: "   ", Category: "other"}},
		{"bad category", TodoAddCmd{dateFlag: dateFlag{Date: "today"}, Title: "x", Category: "chores"}},
		{"bad due", TodoAddCmd{dateFlag: dateFlag{Date: "today"}, Title: "x", Category: "other", Due: "soon"}},
		{"bad date", TodoAddCmd{dateFlag: dateFlag{Date: "2025-02-30"}, Title: "x", Category: "other"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Run(ctx); err == nil {
				t.Error("expected error")
			}
		})
	}

	todos, err := ctx.Store.GetAllTodos()
	if err != nil {
		t.Fatalf("failed to get todos: %v", err)
	}
	if len(todos) != 0 {
		t.Errorf("failed adds must not store anything, found %d", len(todos))
	}
}

func TestTodoListCmd(t *testing.T) {
	ctx, out := setupContext(t)
	addTodos(t, ctx, "First", "Second")

	out.Reset()
	if err := (&TodoListCmd{dateFlag: dateFlag{Date: "today"}}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Todos for Wed, Jan 1 (2025-01-01)", "0/2 done", " 1  [ ]  First", " 2  [ ]  Second"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}

	out.Reset()
	if err := (&TodoListCmd{dateFlag: dateFlag{Date: "yesterday"}}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "No todos for this day.") {
		t.Errorf("unexpected output for an empty day:\n%s", out.String())
	}
}

func TestTodoToggleCmd(t *testing.T) {
	ctx, out := setupContext(t)
	addTodos(t, ctx, "First", "Second")

	out.Reset()
	if err := (&TodoToggleCmd{dateFlag: dateFlag{Date: "today"}, Ref: "1"}).Run(ctx); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !strings.Contains(out.String(), `Marked "First" as done (1/2 done)`) {
		t.Errorf("unexpected output: %s", out.String())
	}

	// Completed items sort last
	items := listJSON(t, ctx, out)
	if len(items) != 2 || items[1].Title != "First" || !items[1].IsCompleted {
		t.Fatalf("unexpected order after toggle: %+v", items)
	}

	if err := (&TodoToggleCmd{dateFlag: dateFlag{Date: "today"}, Ref: items[1].ID}).Run(ctx); err != nil {
		t.Fatalf("toggle by id failed: %v", err)
	}
	items = listJSON(t, ctx, out)
	for _, item := range items {
		if item.IsCompleted {
			t.Errorf("%q should be pending again", item.Title)
		}
	}

	if err := (&TodoToggleCmd{dateFlag: dateFlag{Date: "today"}, Ref: "5"}).Run(ctx); err == nil {
		t.Error("expected error for a position out of range")
	}
}

func TestTodoEditCmd(t *testing.T) {
	ctx, out := setupContext(t)
	addTodos(t, ctx, "Draft")

	title, category, due := "Final", "assignment", "2025-01-05"
	cmd := &TodoEditCmd{dateFlag: dateFlag{Date: "today"}, Ref: "1", Title: &title, Category: &category, Due: &due}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	items := listJSON(t, ctx, out)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Title != "Final" || items[0].Category != models.CategoryAssignment || items[0].DueDate == nil {
		t.Errorf("unexpected item after edit: %+v", items[0])
	}

	noDue := ""
	if err := (&TodoEditCmd{dateFlag: dateFlag{Date: "today"}, Ref: "1", Due: &noDue}).Run(ctx); err != nil {
		t.Fatalf("clearing due date failed: %v", err)
	}
	items = listJSON(t, ctx, out)
	if items[0].DueDate != nil || items[0].Title != "Final" {
		t.Errorf("due date should be cleared and title kept: %+v", items[0])
	}

	if err := (&TodoEditCmd{dateFlag: dateFlag{Date: "today"}, Ref: "1"}).Run(ctx); err == nil {
		t.Error("expected error when nothing changes")
	}
}

func TestTodoDeleteCmd(t *testing.T) {
	ctx, out := setupContext(t)
	addTodos(t, ctx, "A", "B", "C")

	out.Reset()
	if err := (&TodoDeleteCmd{dateFlag: dateFlag{Date: "today"}, Refs: []string{"1", "3", "1"}}).Run(ctx); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !strings.Contains(out.String(), "Deleted 2 todo(s)") {
		t.Errorf("unexpected output: %s", out.String())
	}
	items := listJSON(t, ctx, out)
	if len(items) != 1 || items[0].Title != "B" {
		t.Errorf("unexpected remaining items: %+v", items)
	}

	if err := (&TodoDeleteCmd{dateFlag: dateFlag{Date: "today"}, Refs: []string{"missing-id"}}).Run(ctx); err == nil {
		t.Error("expected error for an unknown reference")
	}
}
