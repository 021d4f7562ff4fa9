package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/callboard/internal/tui/components/rehearsals"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.setSize(size.Width, size.Height)
		return m, nil
	}

	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.agendaModel.SetEvents(msg.calendar.Events)
		m.rehearsalsModel.SetRehearsals(msg.rehearsals)
		m.conflicts = msg.calendar.Conflicts
		return m, nil

	case agendaSavedMsg:
		if msg.err != nil {
			m.formError = msg.err.Error()
			m.state = StateRehearsals
			return m, nil
		}
		m.formError = ""
		m.status = fmt.Sprintf("Added %q %s-%s", msg.item.Title, msg.item.StartTime, msg.item.EndTime)
		m.state = StateRehearsals
		return m, m.load()

	case rehearsals.AddAgendaMsg:
		r := msg.Rehearsal
		m.editing = &r
		m.agendaForm = &AgendaFormModel{}
		m.form = newAgendaForm(r, m.agendaForm)
		m.formError = ""
		m.status = ""
		m.state = StateAddAgenda
		return m, m.form.Init()
	}

	if m.state == StateAddAgenda {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % SessionState(len(tabTitles))
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state + SessionState(len(tabTitles)) - 1) % SessionState(len(tabTitles))
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.status = ""
			return m, m.load()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case StateCalendar:
		m.agendaModel, cmd = m.agendaModel.Update(msg)
	case StateRehearsals:
		m.rehearsalsModel, cmd = m.rehearsalsModel.Update(msg)
	}
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateRehearsals
		return m, nil
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		item, err := agendaItem(*m.editing, *m.agendaForm)
		if err != nil {
			// stay in the form so the window can be corrected
			m.formError = err.Error()
			m.form.State = huh.StateNormal
			return m, tea.Batch(cmds...)
		}
		m.state = StateRehearsals
		cmds = append(cmds, m.saveAgenda(item))
	case huh.StateAborted:
		m.state = StateRehearsals
	}
	return m, tea.Batch(cmds...)
}
