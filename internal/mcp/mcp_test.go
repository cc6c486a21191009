package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/julianstephens/mydiary/internal/models"
	"github.com/julianstephens/mydiary/internal/storage/sqlite"
	"github.com/julianstephens/mydiary/internal/storage/storagetest"
)

var day1 = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func setupSession(t *testing.T) (*Session, *storagetest.Faulty) {
	t.Helper()
	db := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := db.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := storagetest.NewFaulty(db)
	clock := day1
	ids := 0
	sess := NewSession(store, time.UTC,
		WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
		WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("id-%02d", ids)
		}),
	)
	t.Cleanup(sess.Close)
	return sess, store
}

func call(t *testing.T, handler server.ToolHandlerFunc, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return text.Text
}

func decodeTodos(t *testing.T, res *mcp.CallToolResult) TodoList {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool failed: %s", resultText(t, res))
	}
	var list TodoList
	if err := json.Unmarshal([]byte(resultText(t, res)), &list); err != nil {
		t.Fatalf("failed to decode todo list: %v", err)
	}
	return list
}

func decodeDiary(t *testing.T, res *mcp.CallToolResult) DiaryPage {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool failed: %s", resultText(t, res))
	}
	var page DiaryPage
	if err := json.Unmarshal([]byte(resultText(t, res)), &page); err != nil {
		t.Fatalf("failed to decode diary page: %v", err)
	}
	return page
}

func TestTodoTools(t *testing.T) {
	sess, _ := setupSession(t)

	list := decodeTodos(t, call(t, listTodosHandler(sess), nil))
	if list.DayKey != "2025-01-01" || list.Total != 0 || list.Items == nil {
		t.Fatalf("unexpected empty list: %+v", list)
	}

	decodeTodos(t, call(t, addTodoHandler(sess), map[string]interface{}{"title": "A", "category": "study"}))
	decodeTodos(t, call(t, addTodoHandler(sess), map[string]interface{}{"title": "B"}))
	list = decodeTodos(t, call(t, addTodoHandler(sess), map[string]interface{}{"title": "C", "due": "2025-01-01 17:00"}))
	if list.Total != 3 {
		t.Fatalf("Total = %d, want 3", list.Total)
	}
	if list.Items[0].Category != models.CategoryStudy || list.Items[1].Category != models.CategoryOther {
		t.Errorf("unexpected categories: %+v", list.Items)
	}
	if list.Items[2].DueDate == nil || list.Items[2].DueDate.Hour() != 17 {
		t.Errorf("due date not stored: %+v", list.Items[2])
	}

	list = decodeTodos(t, call(t, toggleTodoHandler(sess), map[string]interface{}{"id": list.Items[1].ID}))
	got := []string{list.Items[0].Title, list.Items[1].Title, list.Items[2].Title}
	if strings.Join(got, "") != "ACB" {
		t.Errorf("order after toggle = %v, want [A C B]", got)
	}
	if list.Completed != 1 {
		t.Errorf("Completed = %d, want 1", list.Completed)
	}

	list = decodeTodos(t, call(t, deleteTodoHandler(sess), map[string]interface{}{"position": float64(1)}))
	if list.Total != 2 || list.Items[0].Title != "C" {
		t.Errorf("delete by position removed the wrong item: %+v", list.Items)
	}
	list = decodeTodos(t, call(t, deleteTodoHandler(sess), map[string]interface{}{"id": list.Items[0].ID}))
	if list.Total != 1 || list.Items[0].Title != "B" {
		t.Errorf("delete by id removed the wrong item: %+v", list.Items)
	}
}

func TestTodoToolsDateScoping(t *testing.T) {
	sess, _ := setupSession(t)

	decodeTodos(t, call(t, addTodoHandler(sess), map[string]interface{}{"title": "tomorrow's", "date": "tomorrow"}))

	today := decodeTodos(t, call(t, listTodosHandler(sess), map[string]interface{}{"date": "2025-01-01"}))
	if today.Total != 0 {
		t.Errorf("2025-01-01 should be empty, got %+v", today.Items)
	}
	next := decodeTodos(t, call(t, listTodosHandler(sess), map[string]interface{}{"date": "2025-01-02"}))
	if next.Total != 1 || next.Items[0].DayKey != "2025-01-02" {
		t.Errorf("unexpected list for 2025-01-02: %+v", next)
	}
}

func TestTodoToolErrors(t *testing.T) {
	sess, store := setupSession(t)

	tests := []struct {
		name    string
		handler server.ToolHandlerFunc
		args    map[string]interface{}
	}{
		{"missing title", addTodoHandler(sess), map[string]interface{}{}},
		{"blank title", addTodoHandler(sess), map[string]interface{}{"title": "   "}},
		{"bad category", addTodoHandler(sess), map[string]interface{}{"title": "x", "category": "chores"}},
		{"bad due", addTodoHandler(sess), map[string]interface{}{"title": "x", "due": "soon"}},
		{"bad date", listTodosHandler(sess), map[string]interface{}{"date": "01/01/2025"}},
		{"unknown id", toggleTodoHandler(sess), map[string]interface{}{"id": "nope"}},
		{"no selector", deleteTodoHandler(sess), map[string]interface{}{}},
		{"bad position", deleteTodoHandler(sess), map[string]interface{}{"position": float64(5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, tt.handler, tt.args)
			if !res.IsError {
				t.Errorf("expected tool error, got %s", resultText(t, res))
			}
		})
	}

	store.FailPersist(true)
	res := call(t, addTodoHandler(sess), map[string]interface{}{"title": "x"})
	if !res.IsError {
		t.Error("expected persist failure to surface as a tool error")
	}
	store.FailPersist(false)
	list := decodeTodos(t, call(t, listTodosHandler(sess), nil))
	if list.Total != 0 {
		t.Errorf("failed add should not be stored, got %+v", list.Items)
	}

	store.FailReads(true)
	res = call(t, listTodosHandler(sess), nil)
	if !res.IsError || !strings.Contains(resultText(t, res), "Failed to load todos.") {
		t.Errorf("expected load failure, got %s", resultText(t, res))
	}
}

func TestDiaryTools(t *testing.T) {
	sess, _ := setupSession(t)

	page := decodeDiary(t, call(t, getDiaryHandler(sess), nil))
	if page.Content != "" || page.SavedAt != nil {
		t.Fatalf("expected empty page, got %+v", page)
	}

	page = decodeDiary(t, call(t, writeDiaryHandler(sess), map[string]interface{}{"content": "first"}))
	if page.Content != "first" || page.SavedAt == nil {
		t.Fatalf("unexpected page after write: %+v", page)
	}
	page = decodeDiary(t, call(t, writeDiaryHandler(sess), map[string]interface{}{"content": "second"}))

	entries, err := sess.store.GetAllDiaryEntries()
	if err != nil {
		t.Fatalf("failed to list entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Content != "second" {
		t.Fatalf("expected one entry with the second text, got %+v", entries)
	}

	other := decodeDiary(t, call(t, getDiaryHandler(sess), map[string]interface{}{"date": "yesterday"}))
	if other.DayKey != "2024-12-31" || other.Content != "" {
		t.Errorf("unexpected page for yesterday: %+v", other)
	}

	page = decodeDiary(t, call(t, writeDiaryHandler(sess), map[string]interface{}{"content": "  ", "date": "2025-01-01"}))
	if page.SavedAt != nil {
		t.Errorf("blank write should clear the entry, got %+v", page)
	}
	entries, err = sess.store.GetAllDiaryEntries()
	if err != nil {
		t.Fatalf("failed to list entries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %+v", entries)
	}

	if res := call(t, writeDiaryHandler(sess), map[string]interface{}{}); !res.IsError {
		t.Error("expected error for missing content")
	}
}

func TestDiaryToolSaveFailure(t *testing.T) {
	sess, store := setupSession(t)

	store.FailPersist(true)
	res := call(t, writeDiaryHandler(sess), map[string]interface{}{"content": "lost"})
	if !res.IsError {
		t.Fatalf("expected save failure, got %s", resultText(t, res))
	}

	store.FailPersist(false)
	page := decodeDiary(t, call(t, getDiaryHandler(sess), nil))
	if page.Content != "" {
		t.Errorf("failed write should not be stored, got %+v", page)
	}
}

func TestDaySummariesTool(t *testing.T) {
	sess, _ := setupSession(t)

	decodeTodos(t, call(t, addTodoHandler(sess), map[string]interface{}{"title": "A", "date": "2025-01-03"}))
	decodeDiary(t, call(t, writeDiaryHandler(sess), map[string]interface{}{"content": "hi", "date": "2025-01-01"}))
	decodeDiary(t, call(t, writeDiaryHandler(sess), map[string]interface{}{"content": "later", "date": "2025-02-01"}))

	res := call(t, daySummariesHandler(sess), map[string]interface{}{"month": "2025-01"})
	if res.IsError {
		t.Fatalf("tool failed: %s", resultText(t, res))
	}
	var summaries []models.DaySummary
	if err := json.Unmarshal([]byte(resultText(t, res)), &summaries); err != nil {
		t.Fatalf("failed to decode summaries: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 days, got %+v", summaries)
	}
	if summaries[0].DayKey != "2025-01-01" || !summaries[0].HasDiary {
		t.Errorf("unexpected first summary: %+v", summaries[0])
	}
	if summaries[1].DayKey != "2025-01-03" || summaries[1].TodoTotal != 1 {
		t.Errorf("unexpected second summary: %+v", summaries[1])
	}

	if res := call(t, daySummariesHandler(sess), map[string]interface{}{"month": "January"}); !res.IsError {
		t.Error("expected error for malformed month")
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	db := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := db.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	defer db.Close()

	srv := NewServer(db, time.UTC)
	defer srv.Session().Close()
	if srv.MCPRawServer() == nil {
		t.Fatal("expected an MCP server")
	}
	if len(ToolNames()) != 7 {
		t.Errorf("ToolNames() = %v", ToolNames())
	}
}
