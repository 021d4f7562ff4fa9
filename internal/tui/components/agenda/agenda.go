package agenda

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/callboard/internal/calendar"
	"github.com/julianstephens/callboard/internal/constants"
	"github.com/julianstephens/callboard/internal/models"
)

var (
	dayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(14)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			PaddingLeft(16)
)

// Model shows a calendar as a scrollable day-by-day agenda
type Model struct {
	viewport viewport.Model
	events   []models.Event
	loaded   bool
	width    int
	height   int
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.loaded {
		return "Loading calendar..."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

func (m *Model) SetEvents(events []models.Event) {
	m.events = events
	m.loaded = true
	m.Render()
}

func (m *Model) Render() {
	if len(m.events) == 0 {
		m.viewport.SetContent("Nothing scheduled.")
		return
	}

	var b strings.Builder
	for i, day := range calendar.GroupByDay(m.events) {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(dayStyle.Render(day.Date.Format("Mon Jan 2, 2006")) + "\n")
		for _, e := range day.Events {
			b.WriteString(Line(e) + "\n")
			for _, item := range e.Agenda {
				b.WriteString(itemStyle.Render(fmt.Sprintf("%s-%s %s", item.StartTime, item.EndTime, item.Title)) + "\n")
			}
		}
	}
	m.viewport.SetContent(b.String())
}

// Line renders one event as "<time> <title> <role/location>"
func Line(e models.Event) string {
	when := "all day"
	if !e.AllDay() {
		when = e.StartTime.Format(constants.TimeFormat)
		if e.EndTime != nil {
			when += "-" + e.EndTime.Format(constants.TimeFormat)
		}
	}

	meta := string(e.UserRole)
	if e.Location != "" {
		meta += " · " + e.Location
	}
	return fmt.Sprintf("%s %s %s",
		timeStyle.Render(when),
		titleStyle.Render(e.Title),
		metaStyle.Render(meta),
	)
}
