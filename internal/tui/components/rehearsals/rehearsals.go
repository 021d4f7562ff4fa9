package rehearsals

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/callboard/internal/models"
)

// AddAgendaMsg asks the parent to open the agenda form for a rehearsal
type AddAgendaMsg struct {
	Rehearsal models.RehearsalEvent
}

type Item struct {
	Rehearsal models.RehearsalEvent
}

func (i Item) Title() string {
	return fmt.Sprintf("%s  %s %s-%s", i.Rehearsal.Title, i.Rehearsal.Date, i.Rehearsal.StartTime, i.Rehearsal.EndTime)
}

func (i Item) Description() string {
	n := len(i.Rehearsal.AgendaItems)
	desc := fmt.Sprintf("%d agenda item(s)", n)
	if i.Rehearsal.Recurrence != "" {
		desc += " · repeats " + i.Rehearsal.Recurrence
	}
	if i.Rehearsal.Location != "" {
		desc += " · " + i.Rehearsal.Location
	}
	return desc
}

func (i Item) FilterValue() string { return i.Rehearsal.Title }

type KeyMap struct {
	Add key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add agenda item"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(rehearsals []models.RehearsalEvent, width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "Rehearsals"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add}
	}

	m := Model{list: l, keys: keys}
	m.SetRehearsals(rehearsals)
	return m
}

func (m *Model) SetRehearsals(rehearsals []models.RehearsalEvent) {
	items := make([]list.Item, len(rehearsals))
	for i, r := range rehearsals {
		items[i] = Item{Rehearsal: r}
	}
	m.list.SetItems(items)
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		if key.Matches(msg, m.keys.Add) {
			if item, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg {
					return AddAgendaMsg{Rehearsal: item.Rehearsal}
				}
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return "No rehearsals you can edit."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
