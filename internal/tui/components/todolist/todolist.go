package todolist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/mydiary/internal/constants"
	"github.com/julianstephens/mydiary/internal/models"
)

type AddTodoMsg struct{}

type EditTodoMsg struct {
	Todo models.TodoItem
}

type DeleteTodoMsg struct {
	Todo     models.TodoItem
	Position int
}

type ToggleTodoMsg struct {
	Todo models.TodoItem
}

// BadgeFunc renders the category label shown under each title.
type BadgeFunc func(models.Category) string

type Item struct {
	Todo  models.TodoItem
	badge BadgeFunc
}

func (i Item) Title() string {
	if i.Todo.IsCompleted {
		return "✓ " + i.Todo.Title
	}
	return "○ " + i.Todo.Title
}

func (i Item) Description() string {
	desc := i.Todo.Category.Icon() + " " + i.Todo.Category.Label()
	if i.badge != nil {
		desc = i.badge(i.Todo.Category)
	}
	if i.Todo.DueDate != nil {
		desc += fmt.Sprintf(" | due %s", i.Todo.DueDate.Format(constants.DueFormat))
	}
	return desc
}

func (i Item) FilterValue() string { return i.Todo.Title }

type KeyMap struct {
	Add    key.Binding
	Edit   key.Binding
	Delete key.Binding
	Toggle key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space", "toggle"),
		),
	}
}

type Model struct {
	list  list.Model
	keys  KeyMap
	badge BadgeFunc
}

func New(todos []models.TodoItem, badge BadgeFunc, width, height int) Model {
	l := list.New(toItems(todos, badge), list.NewDefaultDelegate(), width, height)
	l.Title = "Todos"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	return Model{list: l, keys: DefaultKeyMap(), badge: badge}
}

func toItems(todos []models.TodoItem, badge BadgeFunc) []list.Item {
	items := make([]list.Item, len(todos))
	for i, t := range todos {
		items[i] = Item{Todo: t, badge: badge}
	}
	return items
}

// SetTodos replaces the list, keeping the cursor in range.
func (m *Model) SetTodos(todos []models.TodoItem) {
	cursor := m.list.Index()
	m.list.SetItems(toItems(todos, m.badge))
	if cursor >= len(todos) && len(todos) > 0 {
		cursor = len(todos) - 1
	}
	m.list.Select(cursor)
}

// Selected returns the highlighted item and its position.
func (m Model) Selected() (models.TodoItem, int, bool) {
	i, ok := m.list.SelectedItem().(Item)
	if !ok {
		return models.TodoItem{}, 0, false
	}
	return i.Todo, m.list.Index(), true
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddTodoMsg{} }
		case key.Matches(msg, m.keys.Edit):
			if todo, _, ok := m.Selected(); ok {
				return m, func() tea.Msg { return EditTodoMsg{Todo: todo} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if todo, pos, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteTodoMsg{Todo: todo, Position: pos} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Toggle):
			if todo, _, ok := m.Selected(); ok {
				return m, func() tea.Msg { return ToggleTodoMsg{Todo: todo} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return "\n  No todos for this day.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
