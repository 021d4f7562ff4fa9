package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateCalendar:
		content = docStyle.Render(m.agendaModel.View())
	case StateRehearsals:
		content = docStyle.Render(m.rehearsalsModel.View())
	case StateConflicts:
		content = docStyle.Render(m.viewConflicts())
	case StateAddAgenda:
		content = docStyle.Render(m.form.View())
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		m.viewBanner(),
		content,
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range tabTitles {
		if m.state == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewBanner() string {
	switch {
	case m.err != nil:
		return dangerStyle.Render("Error: " + m.err.Error())
	case m.formError != "":
		return dangerStyle.Render(m.formError)
	case m.status != "":
		return statusStyle.Render(m.status)
	case len(m.conflicts) > 0 && m.state != StateConflicts:
		return bannerStyle.Render(fmt.Sprintf("⚠ %d CONFLICT(S) DETECTED", len(m.conflicts)))
	}
	return ""
}

func (m Model) viewConflicts() string {
	if len(m.conflicts) == 0 {
		return "No conflicts."
	}
	var b strings.Builder
	for _, c := range m.conflicts {
		line := c.Description
		if c.Date != "" {
			line = c.Date + "  " + line
		}
		if c.TimeRange != "" {
			line += " (" + c.TimeRange + ")"
		}
		b.WriteString(warningStyle.Render(line) + "\n")
	}
	return b.String()
}
