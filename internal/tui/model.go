// Package tui is the interactive terminal view of a personal calendar.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/callboard/internal/calendar"
	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/tui/components/agenda"
	"github.com/julianstephens/callboard/internal/tui/components/rehearsals"
	"github.com/julianstephens/callboard/internal/validation"
)

type SessionState int

const (
	StateCalendar SessionState = iota
	StateRehearsals
	StateConflicts
	StateAddAgenda
)

var tabTitles = []string{"Calendar", "Rehearsals", "Conflicts"}

// Store is what the TUI reads and writes besides the calendar itself
type Store interface {
	RehearsalEventsForUser(ctx context.Context, userID string, role models.UserRole) ([]models.RehearsalEvent, error)
	AddAgendaItem(ctx context.Context, item models.AgendaItem) (models.AgendaItem, error)
}

type CalendarBuilder interface {
	Build(ctx context.Context, userID string) (*calendar.Calendar, error)
}

type AgendaFormModel struct {
	Title       string
	Start       string
	End         string
	Description string
}

type Model struct {
	store           Store
	builder         CalendarBuilder
	userID          string
	state           SessionState
	keys            KeyMap
	help            help.Model
	agendaModel     agenda.Model
	rehearsalsModel rehearsals.Model
	conflicts       []validation.Conflict
	form            *huh.Form
	agendaForm      *AgendaFormModel
	editing         *models.RehearsalEvent
	status          string
	formError       string
	err             error
	quitting        bool
	width           int
	height          int
}

func NewModel(store Store, builder CalendarBuilder, userID string) Model {
	return Model{
		store:           store,
		builder:         builder,
		userID:          userID,
		state:           StateCalendar,
		keys:            DefaultKeyMap(),
		help:            help.New(),
		agendaModel:     agenda.New(0, 0),
		rehearsalsModel: rehearsals.New(nil, 0, 0),
	}
}

func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Tab, m.keys.Refresh, m.keys.Quit, m.keys.Help}
}

func (m Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Tab, m.keys.ShiftTab},
		{m.keys.Refresh, m.keys.Help, m.keys.Quit},
	}
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

type loadedMsg struct {
	calendar   *calendar.Calendar
	rehearsals []models.RehearsalEvent
	err        error
}

type agendaSavedMsg struct {
	item models.AgendaItem
	err  error
}

// load rebuilds the calendar and the rehearsals the user may edit, which are
// the ones they own or help run.
func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		cal, err := m.builder.Build(ctx, m.userID)
		if err != nil {
			return loadedMsg{err: err}
		}

		seen := make(map[string]bool)
		var editable []models.RehearsalEvent
		for _, role := range []models.UserRole{models.RoleOwner, models.RoleProductionTeam} {
			list, err := m.store.RehearsalEventsForUser(ctx, m.userID, role)
			if err != nil {
				return loadedMsg{err: err}
			}
			for _, r := range list {
				if !seen[r.ID] {
					seen[r.ID] = true
					editable = append(editable, r)
				}
			}
		}
		return loadedMsg{calendar: cal, rehearsals: editable}
	}
}

func (m Model) saveAgenda(item models.AgendaItem) tea.Cmd {
	return func() tea.Msg {
		saved, err := m.store.AddAgendaItem(context.Background(), item)
		return agendaSavedMsg{item: saved, err: err}
	}
}

func (m *Model) setSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
	// tabs, banner and help take four lines; docStyle pads two more each way
	inner := height - 8
	if inner < 1 {
		inner = 1
	}
	m.agendaModel.SetSize(width-4, inner)
	m.rehearsalsModel.SetSize(width-4, inner)
}
