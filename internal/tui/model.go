package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/mydiary/internal/constants"
	"github.com/julianstephens/mydiary/internal/diary"
	"github.com/julianstephens/mydiary/internal/logger"
	"github.com/julianstephens/mydiary/internal/markdown"
	"github.com/julianstephens/mydiary/internal/models"
	"github.com/julianstephens/mydiary/internal/selection"
	"github.com/julianstephens/mydiary/internal/storage"
	"github.com/julianstephens/mydiary/internal/todo"
	"github.com/julianstephens/mydiary/internal/tui/components/calendar"
	"github.com/julianstephens/mydiary/internal/tui/components/todolist"
)

// tabs are the panes reachable with tab/shift+tab, in order.
var tabs = []constants.SessionState{constants.StateTodos, constants.StateDiary, constants.StateCalendar}

type TodoFormModel struct {
	Title    string
	Category models.Category
	Due      string
}

type tickMsg time.Time

type Model struct {
	store         storage.Provider
	sel           *selection.Date
	todos         *todo.Controller
	diary         *diary.Controller
	state         constants.SessionState
	previousState constants.SessionState
	keys          KeyMap
	help          help.Model
	theme         Theme
	mdStyle       markdown.Style
	todoList      todolist.Model
	calendar      calendar.Model
	editor        textarea.Model
	preview       bool
	form          *huh.Form
	todoForm      *TodoFormModel
	editingTodo   *models.TodoItem
	deleteTodo    *models.TodoItem
	deletePos     int
	formError     string
	quitting      bool
	width         int
	height        int
}

// NewModel builds the TUI over controllers that already follow sel. The
// caller owns the controllers and flushes the diary after the program exits.
func NewModel(store storage.Provider, sel *selection.Date, todos *todo.Controller, d *diary.Controller, settings models.Settings) Model {
	theme := NewTheme(settings.ThemeMode)

	ta := textarea.New()
	ta.Placeholder = "Write about your day..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0

	m := Model{
		store:    store,
		sel:      sel,
		todos:    todos,
		diary:    d,
		state:    constants.StateTodos,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		theme:    theme,
		mdStyle:  markdown.StyleFor(settings.ThemeMode, theme.Dark, true),
		todoList: todolist.New(todos.Items(), theme.CategoryBadge, 0, 0),
		calendar: calendar.New(sel.Current(), sel.Now()),
		editor:   ta,
	}
	m.syncDay()
	return m
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case constants.StateTodos:
		keys = append(keys, m.keys.PrevDay, m.keys.NextDay, m.keys.Add, m.keys.Toggle, m.keys.Delete)
	case constants.StateDiary:
		keys = append(keys, m.keys.PrevDay, m.keys.NextDay, m.keys.Write, m.keys.Preview)
	case constants.StateWriting:
		keys = []key.Binding{m.keys.Back, m.keys.Save}
	case constants.StateCalendar:
		keys = append(keys, m.keys.PrevDay, m.keys.NextDay, m.keys.Today)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.PrevDay, m.keys.NextDay, m.keys.Today}

	var actions []key.Binding
	switch m.state {
	case constants.StateTodos:
		actions = []key.Binding{m.keys.Add, m.keys.Edit, m.keys.Delete, m.keys.Toggle}
	case constants.StateDiary:
		actions = []key.Binding{m.keys.Write, m.keys.Save, m.keys.Preview}
	case constants.StateWriting:
		return [][]key.Binding{{m.keys.Back, m.keys.Save}}
	}

	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// tick redraws once a second so the saved-at status follows autosaves
// that complete on the timer goroutine.
func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// syncDay copies the controllers' view of the selected day into the
// widgets.
func (m *Model) syncDay() {
	m.todoList.SetTodos(m.todos.Items())
	m.editor.SetValue(m.diary.Content())
	m.calendar.SetDate(m.sel.Current(), m.sel.Now())

	start, end := m.calendar.Bounds()
	summaries, err := m.store.GetDaySummaries(start, end)
	if err != nil {
		logger.Error("Failed to load day summaries", "start", start, "end", end, "error", err)
		summaries = nil
	}
	m.calendar.SetSummaries(summaries)
}

// refreshTodos redraws the list after a todo mutation.
func (m *Model) refreshTodos() {
	m.todoList.SetTodos(m.todos.Items())
	start, end := m.calendar.Bounds()
	if summaries, err := m.store.GetDaySummaries(start, end); err == nil {
		m.calendar.SetSummaries(summaries)
	}
}

// errorBanner returns the message to show above the panes, if any.
func (m Model) errorBanner() string {
	if m.formError != "" {
		return m.formError
	}
	if msg := m.todos.ErrorMessage(); msg != "" {
		return msg
	}
	return m.diary.ErrorMessage()
}

// saveStatus describes the diary's persistence state.
func (m Model) saveStatus() string {
	if m.diary.IsDirty() {
		return "Unsaved changes"
	}
	if saved, ok := m.diary.LastSaved(); ok {
		return "Saved at " + saved.In(m.sel.Location()).Format(constants.TimeFormat)
	}
	return "Not saved yet"
}

func (m *Model) resize() {
	h := m.height - 6
	if h < 3 {
		h = 3
	}
	m.help.Width = m.width
	m.todoList.SetSize(m.width-4, h)
	m.calendar.SetSize(m.width-4, h)
	m.editor.SetWidth(m.width - 4)
	m.editor.SetHeight(h - 2)
}

// contentWidth is the text width inside the panes. Before the first
// WindowSizeMsg it assumes an 80 column terminal.
func (m Model) contentWidth() int {
	if m.width <= 4 {
		return 76
	}
	return m.width - 4
}
