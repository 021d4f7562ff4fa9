package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/callboard/internal/constants"
	"github.com/julianstephens/callboard/internal/logger"
	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/utils"
)

// Records is everything one relationship surfaces for a user. Slots are keyed
// by audition ID.
type Records struct {
	Auditions        []models.Audition
	Slots            map[string][]models.Slot
	Rehearsals       []models.RehearsalEvent
	ProductionEvents []models.ProductionEvent
	Casts            []models.CastMembership
	Personal         []models.PersonalEvent
}

// Generator turns source records into calendar events. It never mutates its
// inputs.
type Generator struct {
	loc         *time.Location
	logger      *log.Logger
	horizonDays int
}

// NewGenerator creates a generator that places wall-clock times in loc and
// expands recurring rehearsals up to horizonDays past their first date.
func NewGenerator(loc *time.Location, l *log.Logger, horizonDays int) *Generator {
	if loc == nil {
		loc = time.Local
	}
	if l == nil {
		l = logger.Default()
	}
	if horizonDays <= 0 {
		horizonDays = constants.DefaultHorizonDays
	}
	return &Generator{loc: loc, logger: l, horizonDays: horizonDays}
}

func (g *Generator) Location() *time.Location {
	return g.loc
}

// Generate emits every event the records produce, tagged with role
func (g *Generator) Generate(rec Records, role models.UserRole) []models.Event {
	auditions := make(map[string]models.Audition, len(rec.Auditions))
	for _, a := range rec.Auditions {
		auditions[a.ID] = a
	}
	for _, c := range rec.Casts {
		if c.Audition != nil {
			if _, ok := auditions[c.AuditionID]; !ok {
				auditions[c.AuditionID] = *c.Audition
			}
		}
	}

	var events []models.Event
	for _, a := range rec.Auditions {
		events = append(events, g.AuditionEvents(a, role)...)
		events = append(events, g.SlotEvents(a, rec.Slots[a.ID], role)...)
	}
	for _, c := range rec.Casts {
		events = append(events, g.CastEvents(c, role)...)
	}
	for _, r := range rec.Rehearsals {
		var show *models.ShowInfo
		if a, ok := auditions[r.AuditionID]; ok {
			show = a.ShowInfo()
		}
		events = append(events, g.RehearsalEvents(r, show, role)...)
	}
	for _, pe := range rec.ProductionEvents {
		var show *models.ShowInfo
		if a, ok := auditions[pe.AuditionID]; ok {
			show = a.ShowInfo()
		}
		if ev, ok := g.ProductionEvent(pe, show, role); ok {
			events = append(events, ev)
		}
	}
	for _, p := range rec.Personal {
		events = append(events, g.PersonalEvent(p))
	}

	g.logger.Debug("generated events", "role", role, "count", len(events))
	return events
}

// AuditionEvents emits one all-day event per rehearsal and performance date
// listed on the audition. Malformed dates are skipped.
func (g *Generator) AuditionEvents(a models.Audition, role models.UserRole) []models.Event {
	title := a.DisplayTitle()
	var events []models.Event

	for _, date := range g.splitDates(a.ID, a.RehearsalDates) {
		events = append(events, models.Event{
			Type:     models.EventTypeRehearsal,
			Title:    title + " Rehearsal",
			Date:     date,
			Location: a.Location,
			Show:     a.ShowInfo(),
			UserRole: role,
		})
	}
	for _, date := range g.splitDates(a.ID, a.PerformanceDates) {
		events = append(events, models.Event{
			Type:     models.EventTypePerformance,
			Title:    title + " Performance",
			Date:     date,
			Location: a.Location,
			Show:     a.ShowInfo(),
			UserRole: role,
		})
	}
	return events
}

// SlotEvents emits one audition_slot event per slot of the audition
func (g *Generator) SlotEvents(a models.Audition, slots []models.Slot, role models.UserRole) []models.Event {
	var events []models.Event
	for _, s := range slots {
		if s.AuditionID != "" && s.AuditionID != a.ID {
			continue
		}

		start := s.StartTime.In(g.loc)
		end := s.EndTime.In(g.loc)
		prefix := "Audition"
		if s.Callback {
			prefix = "Callback"
		}
		loc := s.Location
		if loc == "" {
			loc = a.Location
		}

		events = append(events, models.Event{
			Type:      models.EventTypeAuditionSlot,
			Title:     fmt.Sprintf("%s: %s", prefix, a.DisplayTitle()),
			Date:      utils.StartOfDay(start),
			StartTime: &start,
			EndTime:   &end,
			Location:  loc,
			SlotID:    s.ID,
			Show:      a.ShowInfo(),
			UserRole:  role,
		})
	}
	return events
}

// CastEvents emits the audition's dates for a cast member plus a single cast
// event naming the role on opening night, or the audition date when no
// performances are scheduled.
func (g *Generator) CastEvents(c models.CastMembership, role models.UserRole) []models.Event {
	if c.Audition == nil {
		g.logger.Debug("cast membership without audition", "audition", c.AuditionID, "user", c.UserID)
		return nil
	}
	a := *c.Audition
	events := g.AuditionEvents(a, role)

	var date time.Time
	if dates := g.splitDates(a.ID, a.PerformanceDates); len(dates) > 0 {
		date = dates[0]
	} else if d, err := utils.ParseDateInLocation(a.AuditionDate, g.loc); err == nil {
		date = d
	} else {
		return events
	}

	title := "Cast in " + a.DisplayTitle()
	if c.RoleName != "" {
		title = fmt.Sprintf("Cast: %s in %s", c.RoleName, a.DisplayTitle())
	}
	return append(events, models.Event{
		Type:     models.EventTypeCast,
		Title:    title,
		Date:     date,
		Location: a.Location,
		Show:     a.ShowInfo(),
		UserRole: role,
	})
}

// RehearsalEvents emits one rehearsal_event per occurrence. Agenda items ride
// along on the event rather than becoming entries of their own.
func (g *Generator) RehearsalEvents(r models.RehearsalEvent, show *models.ShowInfo, role models.UserRole) []models.Event {
	if strings.TrimSpace(r.Recurrence) == "" {
		ev, ok := g.rehearsalOn(r, r.Date, r.ID, show, role)
		if !ok {
			return nil
		}
		return []models.Event{ev}
	}

	dates, err := g.expandRecurrence(r)
	if err != nil {
		g.logger.Warn("invalid rehearsal recurrence, using first date only", "rehearsal", r.ID, "rrule", r.Recurrence, "err", err)
		ev, ok := g.rehearsalOn(r, r.Date, r.ID, show, role)
		if !ok {
			return nil
		}
		return []models.Event{ev}
	}

	events := make([]models.Event, 0, len(dates))
	for _, date := range dates {
		if ev, ok := g.rehearsalOn(r, date, r.ID+"@"+date, show, role); ok {
			events = append(events, ev)
		}
	}
	return events
}

func (g *Generator) rehearsalOn(r models.RehearsalEvent, date, id string, show *models.ShowInfo, role models.UserRole) (models.Event, bool) {
	day, err := utils.ParseDateInLocation(date, g.loc)
	if err != nil {
		g.logger.Debug("skipping rehearsal with malformed date", "rehearsal", r.ID, "date", date)
		return models.Event{}, false
	}

	ev := models.Event{
		Type:        models.EventTypeRehearsalEvent,
		Title:       r.Title,
		Date:        day,
		Location:    r.Location,
		Description: r.Notes,
		EventID:     id,
		Show:        show,
		UserRole:    role,
	}
	if len(r.AgendaItems) > 0 {
		ev.Agenda = append([]models.AgendaItem(nil), r.AgendaItems...)
	}
	ev.StartTime, ev.EndTime = g.clockRange(date, r.StartTime, r.EndTime)
	return ev, true
}

// ProductionEvent maps an assigned production event. A missing or malformed
// date drops it.
func (g *Generator) ProductionEvent(pe models.ProductionEvent, show *models.ShowInfo, role models.UserRole) (models.Event, bool) {
	day, err := utils.ParseDateInLocation(pe.Date, g.loc)
	if err != nil {
		g.logger.Debug("skipping production event with malformed date", "event", pe.ID, "date", pe.Date)
		return models.Event{}, false
	}
	if pe.Show != nil {
		show = &models.ShowInfo{Title: pe.Show.Title, Author: pe.Show.Author}
	}

	title := pe.Title
	if title == "" {
		title = string(pe.Kind)
	}
	ev := models.Event{
		Type:              models.EventTypeProductionEvent,
		Title:             title,
		Date:              day,
		Location:          pe.Location,
		Description:       pe.Description,
		ProductionEventID: pe.ID,
		Show:              show,
		UserRole:          role,
	}
	ev.StartTime, ev.EndTime = g.clockRange(pe.Date, pe.StartTime, pe.EndTime)
	return ev, true
}

// PersonalEvent maps a user's own entry. Personal events are always the
// user's own, so they carry the owner role.
func (g *Generator) PersonalEvent(p models.PersonalEvent) models.Event {
	start := p.Start.In(g.loc)
	ev := models.Event{
		Type:        models.EventTypePersonal,
		Title:       p.Title,
		Date:        utils.StartOfDay(start),
		Location:    p.Location,
		Description: p.Notes,
		EventID:     p.ID,
		UserRole:    models.RoleOwner,
	}
	if !p.AllDay {
		end := p.End.In(g.loc)
		ev.StartTime = &start
		if end.After(start) {
			ev.EndTime = &end
		}
	}
	return ev
}

// clockRange combines HH:MM values with date. An unparseable start makes the
// event all-day; an unparseable or non-increasing end leaves it open.
func (g *Generator) clockRange(date, startStr, endStr string) (*time.Time, *time.Time) {
	if strings.TrimSpace(startStr) == "" {
		return nil, nil
	}
	start, err := utils.CombineDateAndTime(date, startStr, g.loc)
	if err != nil {
		g.logger.Debug("treating event as all-day", "date", date, "start", startStr, "err", err)
		return nil, nil
	}
	if strings.TrimSpace(endStr) == "" {
		return &start, nil
	}
	end, err := utils.CombineDateAndTime(date, endStr, g.loc)
	if err != nil || !end.After(start) {
		g.logger.Debug("ignoring end time", "date", date, "start", startStr, "end", endStr)
		return &start, nil
	}
	return &start, &end
}

// splitDates parses a comma-joined list of YYYY-MM-DD dates
func (g *Generator) splitDates(auditionID, joined string) []time.Time {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	var dates []time.Time
	for _, token := range strings.Split(joined, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		d, err := utils.ParseDateInLocation(token, g.loc)
		if err != nil {
			g.logger.Debug("skipping malformed date", "audition", auditionID, "token", token)
			continue
		}
		dates = append(dates, d)
	}
	return dates
}
