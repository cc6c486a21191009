package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/mydiary/internal/constants"
	"github.com/julianstephens/mydiary/internal/logger"
	"github.com/julianstephens/mydiary/internal/tui/components/todolist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case tickMsg:
		return m, tick()
	}

	switch m.state {
	case constants.StateAddTodo, constants.StateEditTodo:
		return m.updateForm(msg)
	case constants.StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	case constants.StateWriting:
		return m.updateWriting(msg)
	}

	if handled, cmd := m.handleTodoMessages(msg); handled {
		return m, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		return m.quit()
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(keyMsg, m.keys.Tab):
		m.state = nextTab(m.state, 1)
		return m, nil
	case key.Matches(keyMsg, m.keys.ShiftTab):
		m.state = nextTab(m.state, -1)
		return m, nil
	case key.Matches(keyMsg, m.keys.PrevDay):
		m.shiftDay(-1)
		return m, nil
	case key.Matches(keyMsg, m.keys.NextDay):
		m.shiftDay(1)
		return m, nil
	case key.Matches(keyMsg, m.keys.Today):
		m.sel.Today()
		m.syncDay()
		return m, nil
	}

	switch m.state {
	case constants.StateTodos:
		var cmd tea.Cmd
		m.todoList, cmd = m.todoList.Update(keyMsg)
		return m, cmd
	case constants.StateDiary:
		return m.updateDiary(keyMsg)
	case constants.StateCalendar:
		return m.updateCalendar(keyMsg)
	}
	return m, nil
}

func nextTab(current constants.SessionState, step int) constants.SessionState {
	for i, s := range tabs {
		if s == current {
			return tabs[(i+step+len(tabs))%len(tabs)]
		}
	}
	return tabs[0]
}

// shiftDay moves the selection; the controllers follow it on their own.
func (m *Model) shiftDay(n int) {
	m.sel.Shift(n)
	m.syncDay()
}

// quit writes any pending diary edits before leaving.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if err := m.diary.Flush(); err != nil {
		logger.Error("Failed to save diary on exit", "error", err)
	}
	m.quitting = true
	return m, tea.Quit
}

func (m *Model) handleTodoMessages(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case todolist.AddTodoMsg:
		m.editingTodo = nil
		m.todoForm = newTodoFormModel(nil, m.sel.Location())
		m.form = NewTodoForm(m.todoForm, m.sel.Location())
		m.formError = ""
		m.previousState = m.state
		m.state = constants.StateAddTodo
		return true, m.form.Init()

	case todolist.EditTodoMsg:
		item := msg.Todo
		m.editingTodo = &item
		m.todoForm = newTodoFormModel(&item, m.sel.Location())
		m.form = NewTodoForm(m.todoForm, m.sel.Location())
		m.formError = ""
		m.previousState = m.state
		m.state = constants.StateEditTodo
		return true, m.form.Init()

	case todolist.DeleteTodoMsg:
		item := msg.Todo
		m.deleteTodo = &item
		m.deletePos = msg.Position
		m.previousState = m.state
		m.state = constants.StateConfirmDelete
		return true, nil

	case todolist.ToggleTodoMsg:
		if err := m.todos.ToggleCompletion(msg.Todo); err != nil {
			logger.Debug("Toggle failed", "id", msg.Todo.ID, "error", err)
		}
		m.refreshTodos()
		return true, nil
	}
	return false, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = m.previousState
		m.formError = ""
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		if err := m.applyTodoForm(); err != nil {
			// Stay in the form so the user can retry or cancel with esc
			m.formError = fmt.Sprintf("Failed to save todo: %v", err)
			m.form.State = huh.StateNormal
			return m, tea.Batch(cmds...)
		}
		m.formError = ""
		m.refreshTodos()
		m.state = m.previousState
	case huh.StateAborted:
		m.state = m.previousState
	}
	return m, tea.Batch(cmds...)
}

// applyTodoForm adds or updates the todo described by the form.
func (m *Model) applyTodoForm() error {
	loc := m.sel.Location()
	due, err := m.todoForm.dueDate(loc)
	if err != nil {
		return err
	}
	if m.editingTodo == nil {
		return m.todos.Add(m.todoForm.Title, m.todoForm.Category, due)
	}
	return m.todos.Update(*m.editingTodo, m.todoForm.Title, m.todoForm.Category, due)
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		if m.deleteTodo != nil {
			if err := m.todos.DeleteAt([]int{m.deletePos}); err != nil {
				logger.Debug("Delete failed", "id", m.deleteTodo.ID, "error", err)
			}
			m.refreshTodos()
		}
		m.deleteTodo = nil
		m.state = m.previousState
	case key.Matches(keyMsg, m.keys.Cancel):
		m.deleteTodo = nil
		m.state = m.previousState
	}
	return m, nil
}

func (m Model) updateDiary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Write):
		m.preview = false
		m.state = constants.StateWriting
		return m, m.editor.Focus()
	case key.Matches(msg, m.keys.Preview):
		m.preview = !m.preview
	case key.Matches(msg, m.keys.Save):
		_ = m.diary.Save()
	}
	return m, nil
}

// updateWriting feeds keys to the editor. Every change restarts the
// autosave countdown.
func (m Model) updateWriting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case keyMsg.Type == tea.KeyCtrlC:
			return m.quit()
		case key.Matches(keyMsg, m.keys.Back):
			m.editor.Blur()
			m.state = constants.StateDiary
			return m, nil
		case key.Matches(keyMsg, m.keys.Save):
			_ = m.diary.Save()
			return m, nil
		}
	}

	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if after := m.editor.Value(); after != before {
		m.diary.Edit(after)
	}
	return m, cmd
}

func (m Model) updateCalendar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.shiftDay(-7)
	case key.Matches(msg, m.keys.Down):
		m.shiftDay(7)
	case key.Matches(msg, m.keys.Write):
		m.state = constants.StateDiary
	}
	return m, nil
}
