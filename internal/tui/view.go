package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/mydiary/internal/constants"
	"github.com/julianstephens/mydiary/internal/daykey"
	"github.com/julianstephens/mydiary/internal/markdown"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.state {
	case constants.StateTodos:
		content = m.viewTodos()
	case constants.StateDiary, constants.StateWriting:
		content = m.viewDiary()
	case constants.StateCalendar:
		content = m.viewCalendar()
	case constants.StateAddTodo, constants.StateEditTodo:
		content = m.viewForm()
	case constants.StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	sections := []string{m.viewHeader(), m.viewTabs()}
	if banner := m.errorBanner(); banner != "" {
		sections = append(sections, m.theme.Banner.Render("⚠ "+banner))
	}
	sections = append(sections, content, m.help.View(m))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewHeader() string {
	current := m.sel.Current()
	title := fmt.Sprintf("%s  %s", daykey.Display(current), m.theme.Muted.Render(daykey.Key(current)))
	if daykey.IsToday(current, m.sel.Now()) {
		title += m.theme.Muted.Render("  (today)")
	}
	return m.theme.Header.Render(constants.AppName + " · " + title)
}

func (m Model) viewTabs() string {
	var rendered []string
	for _, s := range tabs {
		title := tabTitle(s, m.todos.CompletedCount(), m.todos.TotalCount())
		active := m.state == s || (s == constants.StateDiary && m.state == constants.StateWriting) ||
			(s == constants.StateTodos && (m.state == constants.StateAddTodo || m.state == constants.StateEditTodo || m.state == constants.StateConfirmDelete))
		if active {
			rendered = append(rendered, m.theme.ActiveTab.Render(title))
		} else {
			rendered = append(rendered, m.theme.InactiveTab.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func tabTitle(s constants.SessionState, completed, total int) string {
	switch s {
	case constants.StateTodos:
		return fmt.Sprintf("Todos %d/%d", completed, total)
	case constants.StateDiary:
		return "Diary"
	default:
		return "Calendar"
	}
}

func (m Model) viewTodos() string {
	return m.theme.Doc.Render(m.todoList.View())
}

func (m Model) viewDiary() string {
	status := m.theme.Muted.Render(m.saveStatus())

	var body string
	switch {
	case m.state == constants.StateWriting:
		body = m.editor.View()
	case strings.TrimSpace(m.diary.Content()) == "":
		body = "No entry for this day.\nPress enter to start writing."
	case m.preview:
		body = markdown.Render(m.diary.Content(), m.contentWidth(), m.mdStyle)
	default:
		body = markdown.Wrap(m.diary.Content(), m.contentWidth())
	}

	return m.theme.Doc.Render(lipgloss.JoinVertical(lipgloss.Left, body, "", status))
}

func (m Model) viewCalendar() string {
	return m.theme.Doc.Render(m.calendar.View())
}

func (m Model) viewForm() string {
	title := "Add todo"
	if m.state == constants.StateEditTodo {
		title = "Edit todo"
	}
	parts := []string{m.theme.Header.Render(title), m.form.View()}
	if m.formError != "" {
		parts = append(parts, m.theme.Danger.Render(m.formError))
	}
	return m.theme.Doc.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) viewConfirmDelete() string {
	name := ""
	if m.deleteTodo != nil {
		name = m.deleteTodo.Title
	}
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			m.theme.Danger.Render(fmt.Sprintf("Delete %q?", name)),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
