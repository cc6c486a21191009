// Package calendar renders a month grid with the selected day, today and
// the days that hold records marked.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/mydiary/internal/daykey"
	"github.com/julianstephens/mydiary/internal/models"
)

// Styles controls how the cells are drawn.
type Styles struct {
	Header   lipgloss.Style
	Empty    lipgloss.Style
	Entry    lipgloss.Style
	Today    lipgloss.Style
	Selected lipgloss.Style
	Status   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Bold(true),
		Empty:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Entry:    lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		Today:    lipgloss.NewStyle().Underline(true),
		Selected: lipgloss.NewStyle().Reverse(true),
		Status:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),
	}
}

type Model struct {
	selected  time.Time
	now       time.Time
	summaries map[string]models.DaySummary
	styles    Styles
	width     int
	height    int
}

func New(selected, now time.Time) Model {
	return Model{
		selected:  selected,
		now:       now,
		summaries: make(map[string]models.DaySummary),
		styles:    DefaultStyles(),
	}
}

// SetDate moves the highlighted day.
func (m *Model) SetDate(selected, now time.Time) {
	m.selected = selected
	m.now = now
}

// SetSummaries replaces the per-day markers for the shown month.
func (m *Model) SetSummaries(summaries []models.DaySummary) {
	m.summaries = make(map[string]models.DaySummary, len(summaries))
	for _, s := range summaries {
		m.summaries[s.DayKey] = s
	}
}

// Bounds returns the first and last day keys of the shown month.
func (m Model) Bounds() (string, string) {
	return daykey.MonthBounds(m.selected)
}

func (m Model) View() string {
	if m.selected.IsZero() {
		return ""
	}

	lines := []string{
		m.styles.Header.Render(m.selected.Format("January 2006")),
		m.styles.Header.Render("Su Mo Tu We Th Fr Sa"),
	}
	for _, week := range daykey.MonthGrid(m.selected) {
		cells := make([]string, 0, 7)
		for _, day := range week {
			if day.IsZero() {
				cells = append(cells, "  ")
				continue
			}
			cells = append(cells, m.renderDay(day))
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	lines = append(lines, "", m.styles.Status.Render(m.describe(daykey.Key(m.selected))))
	return strings.Join(lines, "\n")
}

func (m Model) renderDay(day time.Time) string {
	style := m.styles.Empty
	if _, ok := m.summaries[daykey.Key(day)]; ok {
		style = m.styles.Entry
	}
	if daykey.SameDay(m.now, day) {
		style = style.Inherit(m.styles.Today)
	}
	if daykey.SameDay(m.selected, day) {
		style = style.Inherit(m.styles.Selected)
	}
	return style.Render(fmt.Sprintf("%2d", day.Day()))
}

func (m Model) describe(key string) string {
	s, ok := m.summaries[key]
	if !ok {
		return "Nothing recorded on " + key
	}
	parts := []string{}
	if s.HasDiary {
		parts = append(parts, "diary entry")
	}
	if s.TodoTotal > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d todos done", s.TodoCompleted, s.TodoTotal))
	}
	return key + ": " + strings.Join(parts, ", ")
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
