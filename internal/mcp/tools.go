package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/julianstephens/mydiary/internal/daykey"
	"github.com/julianstephens/mydiary/internal/models"
)

const dateDescription = "Day as YYYY-MM-DD, or today, yesterday or tomorrow. Defaults to today."

// TodoList is the JSON shape returned by the todo tools.
type TodoList struct {
	DayKey    string            `json:"day_key"`
	Completed int               `json:"completed"`
	Total     int               `json:"total"`
	Items     []models.TodoItem `json:"items"`
}

// DiaryPage is the JSON shape returned by the diary tools.
type DiaryPage struct {
	DayKey  string     `json:"day_key"`
	Content string     `json:"content"`
	SavedAt *time.Time `json:"saved_at,omitempty"`
}

func categoryNames() []string {
	names := make([]string, 0, len(models.AllCategories()))
	for _, c := range models.AllCategories() {
		names = append(names, string(c))
	}
	return names
}

func stringArg(request mcp.CallToolRequest, name string) string {
	v, _ := request.Params.Arguments[name].(string)
	return v
}

func jsonResult(v any, what string) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize %s to JSON: %v", what, err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// todoList snapshots the todo controller. Callers hold s.mu.
func (s *Session) todoList() TodoList {
	items := s.todos.Items()
	if items == nil {
		items = []models.TodoItem{}
	}
	return TodoList{
		DayKey:    s.todos.DayKey(),
		Completed: s.todos.CompletedCount(),
		Total:     s.todos.TotalCount(),
		Items:     items,
	}
}

// diaryPage snapshots the diary controller. Callers hold s.mu.
func (s *Session) diaryPage() DiaryPage {
	page := DiaryPage{DayKey: s.diary.DayKey(), Content: s.diary.Content()}
	if saved, ok := s.diary.LastSaved(); ok {
		page.SavedAt = &saved
	}
	return page
}

// selectTodos switches to the requested day and rereads its list. Errors
// left over from an earlier call are dropped first.
func (s *Session) selectTodos(date string) error {
	if _, err := s.selectDate(date); err != nil {
		return err
	}
	s.todos.ClearError()
	s.todos.Refresh()
	if err := s.todos.Err(); err != nil {
		return fmt.Errorf("%s %v", s.todos.ErrorMessage(), err)
	}
	return nil
}

func (s *Session) findTodo(id string) (models.TodoItem, bool) {
	for _, item := range s.todos.Items() {
		if item.ID == id {
			return item, true
		}
	}
	return models.TodoItem{}, false
}

// RegisterListTodosTool registers the list_todos tool.
func RegisterListTodosTool(s *server.MCPServer, sess *Session) {
	tool := mcp.NewTool("list_todos",
		mcp.WithDescription("Lists the todo items of a day, pending items first."),
		mcp.WithString("date", mcp.Description(dateDescription)),
	)
	s.AddTool(tool, listTodosHandler(sess))
}

func listTodosHandler(sess *Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess.mu.Lock()
		defer sess.mu.Unlock()

		if err := sess.selectTodos(stringArg(request, "date")); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list todos: %v", err)), nil
		}
		return jsonResult(sess.todoList(), "todos")
	}
}

// RegisterAddTodoTool registers the add_todo tool.
func RegisterAddTodoTool(s *server.MCPServer, sess *Session) {
	tool := mcp.NewTool("add_todo",
		mcp.WithDescription("Adds a todo item to a day and returns the updated list."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the todo item.")),
		mcp.WithString("category", mcp.Description("Category of the item. Defaults to other."), mcp.Enum(categoryNames()...)),
		mcp.WithString("date", mcp.Description(dateDescription)),
		mcp.WithString("due", mcp.Description("Optional due date as YYYY-MM-DD or \"YYYY-MM-DD HH:MM\".")),
	)
	s.AddTool(tool, addTodoHandler(sess))
}

func addTodoHandler(sess *Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title := stringArg(request, "title")
		if title == "" {
			return mcp.NewToolResultError("'title' parameter is required and must be a non-empty string."), nil
		}

		var category models.Category
		if raw := stringArg(request, "category"); raw != "" {
			c, err := models.ParseCategory(raw)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			category = c
		}

		sess.mu.Lock()
		defer sess.mu.Unlock()

		var due *time.Time
		if raw := stringArg(request, "due"); raw != "" {
			t, err := daykey.ParseDue(raw, sess.sel.Location())
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			due = &t
		}

		if err := sess.selectTodos(stringArg(request, "date")); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to add todo: %v", err)), nil
		}
		if err := sess.todos.Add(title, category, due); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to add todo: %v", err)), nil
		}
		return jsonResult(sess.todoList(), "todos")
	}
}

// RegisterToggleTodoTool registers the toggle_todo tool.
func RegisterToggleTodoTool(s *server.MCPServer, sess *Session) {
	tool := mcp.NewTool("toggle_todo",
		mcp.WithDescription("Marks a todo item completed, or pending again if it was completed."),
		mcp.WithString("id", mcp.Required(), mcp.Description("ID of the todo item, as returned by list_todos.")),
		mcp.WithString("date", mcp.Description(dateDescription)),
	)
	s.AddTool(tool, toggleTodoHandler(sess))
}

func toggleTodoHandler(sess *Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := stringArg(request, "id")
		if id == "" {
			return mcp.NewToolResultError("'id' parameter is required and must be a non-empty string."), nil
		}

		sess.mu.Lock()
		defer sess.mu.Unlock()

		if err := sess.selectTodos(stringArg(request, "date")); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to toggle todo: %v", err)), nil
		}
		item, ok := sess.findTodo(id)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("Todo '%s' not found on %s.", id, sess.todos.DayKey())), nil
		}
		if err := sess.todos.ToggleCompletion(item); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to toggle todo: %v", err)), nil
		}
		return jsonResult(sess.todoList(), "todos")
	}
}

// RegisterDeleteTodoTool registers the delete_todo tool.
func RegisterDeleteTodoTool(s *server.MCPServer, sess *Session) {
	tool := mcp.NewTool("delete_todo",
		mcp.WithDescription("Deletes a todo item by ID or by its 1-based position in list_todos."),
		mcp.WithString("id", mcp.Description("ID of the todo item.")),
		mcp.WithNumber("position", mcp.Description("1-based position of the item in the day's list.")),
		mcp.WithString("date", mcp.Description(dateDescription)),
	)
	s.AddTool(tool, deleteTodoHandler(sess))
}

func deleteTodoHandler(sess *Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := stringArg(request, "id")
		position, hasPosition := request.Params.Arguments["position"].(float64)
		if id == "" && !hasPosition {
			return mcp.NewToolResultError("Either 'id' or 'position' is required."), nil
		}

		sess.mu.Lock()
		defer sess.mu.Unlock()

		if err := sess.selectTodos(stringArg(request, "date")); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to delete todo: %v", err)), nil
		}

		var err error
		if id != "" {
			item, ok := sess.findTodo(id)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("Todo '%s' not found on %s.", id, sess.todos.DayKey())), nil
			}
			err = sess.todos.Delete(item)
		} else {
			err = sess.todos.DeleteAt([]int{int(position) - 1})
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to delete todo: %v", err)), nil
		}
		return jsonResult(sess.todoList(), "todos")
	}
}

// RegisterGetDiaryTool registers the get_diary tool.
func RegisterGetDiaryTool(s *server.MCPServer, sess *Session) {
	tool := mcp.NewTool("get_diary",
		mcp.WithDescription("Returns the diary entry of a day. Days without an entry return empty content."),
		mcp.WithString("date", mcp.Description(dateDescription)),
	)
	s.AddTool(tool, getDiaryHandler(sess))
}

func getDiaryHandler(sess *Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess.mu.Lock()
		defer sess.mu.Unlock()

		if _, err := sess.selectDate(stringArg(request, "date")); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get diary: %v", err)), nil
		}
		sess.diary.ClearError()
		sess.diary.Load()
		if err := sess.diary.Err(); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s %v", sess.diary.ErrorMessage(), err)), nil
		}
		return jsonResult(sess.diaryPage(), "diary")
	}
}

// RegisterWriteDiaryTool registers the write_diary tool.
func RegisterWriteDiaryTool(s *server.MCPServer, sess *Session) {
	tool := mcp.NewTool("write_diary",
		mcp.WithDescription("Replaces the diary entry of a day. Blank content deletes the entry."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full text of the entry.")),
		mcp.WithString("date", mcp.Description(dateDescription)),
	)
	s.AddTool(tool, writeDiaryHandler(sess))
}

func writeDiaryHandler(sess *Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, ok := request.Params.Arguments["content"].(string)
		if !ok {
			return mcp.NewToolResultError("'content' parameter is required and must be a string."), nil
		}

		sess.mu.Lock()
		defer sess.mu.Unlock()

		if _, err := sess.selectDate(stringArg(request, "date")); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to write diary: %v", err)), nil
		}
		sess.diary.ClearError()
		sess.diary.Load()
		sess.diary.SetContent(content)
		if err := sess.diary.Save(); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to write diary: %v", err)), nil
		}
		return jsonResult(sess.diaryPage(), "diary")
	}
}

// RegisterDaySummariesTool registers the day_summaries tool.
func RegisterDaySummariesTool(s *server.MCPServer, sess *Session) {
	tool := mcp.NewTool("day_summaries",
		mcp.WithDescription("Lists the days of a month that hold a diary entry or todo items."),
		mcp.WithString("month", mcp.Description("Month as YYYY-MM. Defaults to the current month.")),
	)
	s.AddTool(tool, daySummariesHandler(sess))
}

func daySummariesHandler(sess *Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess.mu.Lock()
		defer sess.mu.Unlock()

		month := sess.sel.Now()
		if raw := stringArg(request, "month"); raw != "" {
			m, err := daykey.ParseMonth(raw, sess.sel.Location())
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			month = m
		}
		start, end := daykey.MonthBounds(month)
		summaries, err := sess.store.GetDaySummaries(start, end)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to summarize days: %v", err)), nil
		}
		if summaries == nil {
			summaries = []models.DaySummary{}
		}
		return jsonResult(summaries, "day summaries")
	}
}
