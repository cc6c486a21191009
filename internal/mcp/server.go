// Package mcp exposes the diary and todo controllers as Model Context
// Protocol tools over stdio.
package mcp

import (
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/julianstephens/mydiary/internal/constants"
	"github.com/julianstephens/mydiary/internal/daykey"
	"github.com/julianstephens/mydiary/internal/diary"
	"github.com/julianstephens/mydiary/internal/selection"
	"github.com/julianstephens/mydiary/internal/storage"
	"github.com/julianstephens/mydiary/internal/todo"
)

// Session binds one store to a date selection and the two controllers that
// follow it. Tool calls are serialized because the controllers share the
// selection.
type Session struct {
	mu    sync.Mutex
	store storage.Provider
	sel   *selection.Date
	todos *todo.Controller
	diary *diary.Controller
}

type Option func(*sessionConfig)

type sessionConfig struct {
	now   func() time.Time
	newID func() string
}

// WithClock replaces time.Now for "today" and record timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *sessionConfig) {
		c.now = now
	}
}

// WithIDGenerator replaces the uuid generator used for new records.
func WithIDGenerator(newID func() string) Option {
	return func(c *sessionConfig) {
		c.newID = newID
	}
}

// NewSession builds the controllers for store. The store must already be
// loaded.
func NewSession(store storage.Provider, loc *time.Location, opts ...Option) *Session {
	cfg := sessionConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	sel := selection.New(loc, selection.WithNow(cfg.now))

	todoOpts := []todo.Option{todo.WithClock(cfg.now)}
	diaryOpts := []diary.Option{diary.WithClock(cfg.now)}
	if cfg.newID != nil {
		todoOpts = append(todoOpts, todo.WithIDGenerator(cfg.newID))
		diaryOpts = append(diaryOpts, diary.WithIDGenerator(cfg.newID))
	}

	return &Session{
		store: store,
		sel:   sel,
		todos: todo.New(store, sel, todoOpts...),
		diary: diary.New(store, sel, diaryOpts...),
	}
}

// Close detaches the controllers from the selection.
func (s *Session) Close() {
	s.diary.Close()
	s.todos.Close()
}

// selectDate points the controllers at the day named by arg, or today when
// arg is empty.
func (s *Session) selectDate(arg string) (string, error) {
	t, err := daykey.ResolveDate(arg, s.sel.Location(), s.sel.Now())
	if err != nil {
		return "", err
	}
	s.sel.Select(t)
	return s.sel.Key(), nil
}

// Server wraps the MCP server and the session its tools act on.
type Server struct {
	mcpServer *server.MCPServer
	session   *Session
}

// NewServer creates an MCP server with every mydiary tool registered.
func NewServer(store storage.Provider, loc *time.Location, opts ...Option) *Server {
	s := server.NewMCPServer(
		fmt.Sprintf("%s MCP Server", constants.AppName),
		constants.Version,
		server.WithLogging(),
		server.WithRecovery(),
	)

	sess := NewSession(store, loc, opts...)

	RegisterListTodosTool(s, sess)
	RegisterAddTodoTool(s, sess)
	RegisterToggleTodoTool(s, sess)
	RegisterDeleteTodoTool(s, sess)
	RegisterGetDiaryTool(s, sess)
	RegisterWriteDiaryTool(s, sess)
	RegisterDaySummariesTool(s, sess)

	return &Server{mcpServer: s, session: sess}
}

// MCPRawServer returns the underlying mcp-go server.
func (s *Server) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}

// Session returns the state the tools act on.
func (s *Server) Session() *Session {
	return s.session
}

// Start serves JSON-RPC on stdin/stdout until stdin closes.
func (s *Server) Start() error {
	defer s.session.Close()
	return server.ServeStdio(s.mcpServer)
}

// ToolNames lists the registered tools in registration order.
func ToolNames() []string {
	return []string{"list_todos", "add_todo", "toggle_todo", "delete_todo", "get_diary", "write_diary", "day_summaries"}
}
