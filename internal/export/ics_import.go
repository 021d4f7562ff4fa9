package export

import (
	"fmt"
	"io"
	"strings"

	ical "github.com/arran4/golang-ical"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/julianstephens/callboard/internal/logger"
	"github.com/julianstephens/callboard/internal/models"
)

// ParseICS reads VEVENTs from an ICS stream as personal events for userID.
// Events without a usable start are skipped and logged. Recurrence rules
// are not expanded; only the first occurrence is imported.
func ParseICS(r io.Reader, userID string, l *log.Logger) ([]models.PersonalEvent, error) {
	if l == nil {
		l = logger.Default()
	}

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}

	var events []models.PersonalEvent
	for _, ve := range cal.Events() {
		ev, err := personalFromVEvent(ve, userID)
		if err != nil {
			l.Warn("skipping calendar entry", "uid", ve.Id(), "err", err)
			continue
		}
		events = append(events, ev)
	}

	l.Debug("parsed calendar", "events", len(events))
	return events, nil
}

func personalFromVEvent(ve *ical.VEvent, userID string) (models.PersonalEvent, error) {
	ev := models.PersonalEvent{
		ID:     ve.Id(),
		UserID: userID,
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Title = p.Value
	}
	if ev.Title == "" {
		ev.Title = "Busy"
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Notes = p.Value
	}

	start := ve.GetProperty(ical.ComponentPropertyDtStart)
	if start == nil {
		return ev, fmt.Errorf("missing DTSTART")
	}

	if isDateValue(start) {
		ev.AllDay = true
		t, err := ve.GetAllDayStartAt()
		if err != nil {
			return ev, err
		}
		ev.Start = t
		ev.End = t.AddDate(0, 0, 1)
		if end, err := ve.GetAllDayEndAt(); err == nil && end.After(t) {
			ev.End = end
		}
		return ev, nil
	}

	t, err := ve.GetStartAt()
	if err != nil {
		return ev, err
	}
	ev.Start = t
	ev.End = t
	if end, err := ve.GetEndAt(); err == nil && end.After(t) {
		ev.End = end
	}
	if !ev.End.After(ev.Start) {
		return ev, fmt.Errorf("event has no duration")
	}
	return ev, nil
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters[string(ical.ParameterValue)]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}
