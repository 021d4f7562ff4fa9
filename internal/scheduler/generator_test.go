package scheduler

import (
	"testing"
	"time"

	"github.com/julianstephens/callboard/internal/logger"
	"github.com/julianstephens/callboard/internal/models"
)

func newTestGenerator() *Generator {
	return NewGenerator(time.UTC, logger.Discard(), 30)
}

func hamlet() models.Audition {
	return models.Audition{
		ID:               "aud1",
		OwnerID:          "owner1",
		Show:             &models.Show{ID: "show1", Title: "Hamlet", Author: "Shakespeare"},
		Location:         "Globe Theatre, Springfield, IL 62701",
		AuditionDate:     "2024-05-01",
		RehearsalDates:   "2024-06-01, 2024-06-02,not-a-date,,2024-06-03",
		PerformanceDates: "2024-07-01,2024-07-02",
	}
}

func TestAuditionEvents_SplitsDates(t *testing.T) {
	g := newTestGenerator()

	events := g.AuditionEvents(hamlet(), models.RoleOwner)

	var rehearsals, performances int
	for _, e := range events {
		switch e.Type {
		case models.EventTypeRehearsal:
			rehearsals++
		case models.EventTypePerformance:
			performances++
		}
		if !e.AllDay() {
			t.Errorf("Expected %s to be all-day", e.Title)
		}
		if e.UserRole != models.RoleOwner {
			t.Errorf("UserRole = %s, want owner", e.UserRole)
		}
		if e.Show == nil || e.Show.Title != "Hamlet" {
			t.Errorf("Expected show info on %s", e.Title)
		}
	}
	if rehearsals != 3 {
		t.Errorf("Expected 3 rehearsal dates (malformed and empty skipped), got %d", rehearsals)
	}
	if performances != 2 {
		t.Errorf("Expected 2 performance dates, got %d", performances)
	}

	first := events[0]
	if first.Title != "Hamlet Rehearsal" {
		t.Errorf("Title = %q", first.Title)
	}
	if want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC); !first.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", first.Date, want)
	}
}

func TestAuditionEvents_NoDates(t *testing.T) {
	g := newTestGenerator()

	a := models.Audition{ID: "aud2", Title: "Untitled workshop"}
	if events := g.AuditionEvents(a, models.RoleOwner); len(events) != 0 {
		t.Errorf("Expected no events, got %d", len(events))
	}
}

func TestSlotEvents(t *testing.T) {
	g := newTestGenerator()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	slots := []models.Slot{
		{ID: "s1", AuditionID: "aud1", StartTime: start, EndTime: start.Add(15 * time.Minute)},
		{ID: "s2", AuditionID: "aud1", StartTime: start.Add(time.Hour), EndTime: start.Add(75 * time.Minute), Location: "Studio B", Callback: true},
		{ID: "other", AuditionID: "aud9", StartTime: start, EndTime: start.Add(15 * time.Minute)},
	}

	events := g.SlotEvents(hamlet(), slots, models.RoleOwner)
	if len(events) != 2 {
		t.Fatalf("Expected 2 slot events, got %d", len(events))
	}

	if events[0].Title != "Audition: Hamlet" || events[0].SlotID != "s1" {
		t.Errorf("Unexpected first slot event: %+v", events[0])
	}
	if !events[0].StartTime.Equal(start) || !events[0].EndTime.Equal(start.Add(15*time.Minute)) {
		t.Errorf("Slot times not carried over")
	}
	if events[0].Location != "Globe Theatre, Springfield, IL 62701" {
		t.Errorf("Expected audition location fallback, got %q", events[0].Location)
	}
	if events[1].Title != "Callback: Hamlet" || events[1].Location != "Studio B" {
		t.Errorf("Unexpected callback event: %+v", events[1])
	}
}

func TestRehearsalEvents_AttachesAgenda(t *testing.T) {
	g := newTestGenerator()

	r := models.RehearsalEvent{
		ID:        "r1",
		Title:     "Act I blocking",
		Date:      "2024-06-01",
		StartTime: "19:00",
		EndTime:   "22:00",
		AgendaItems: []models.AgendaItem{
			{ID: "a1", Title: "Warmup", StartTime: "19:00", EndTime: "19:30"},
			{ID: "a2", Title: "Scene 1", StartTime: "19:30", EndTime: "21:00"},
		},
	}

	events := g.RehearsalEvents(r, &models.ShowInfo{Title: "Hamlet"}, models.RoleProductionTeam)
	if len(events) != 1 {
		t.Fatalf("Expected agenda items to stay nested in a single event, got %d events", len(events))
	}

	ev := events[0]
	if ev.Type != models.EventTypeRehearsalEvent || ev.EventID != "r1" {
		t.Errorf("Unexpected event: %+v", ev)
	}
	if len(ev.Agenda) != 2 {
		t.Errorf("Expected 2 agenda items, got %d", len(ev.Agenda))
	}
	if want := time.Date(2024, 6, 1, 19, 0, 0, 0, time.UTC); ev.StartTime == nil || !ev.StartTime.Equal(want) {
		t.Errorf("StartTime = %v, want %v", ev.StartTime, want)
	}
	if want := time.Date(2024, 6, 1, 22, 0, 0, 0, time.UTC); ev.EndTime == nil || !ev.EndTime.Equal(want) {
		t.Errorf("EndTime = %v, want %v", ev.EndTime, want)
	}

	// The input must not be shared with the output
	ev.Agenda[0].Title = "changed"
	if r.AgendaItems[0].Title != "Warmup" {
		t.Error("Generator aliased the rehearsal's agenda slice")
	}
}

func TestRehearsalEvents_BadTimes(t *testing.T) {
	g := newTestGenerator()

	allDay := g.RehearsalEvents(models.RehearsalEvent{ID: "r1", Title: "Work call", Date: "2024-06-01", StartTime: "TBD"}, nil, models.RoleCast)
	if len(allDay) != 1 || !allDay[0].AllDay() {
		t.Errorf("Expected an all-day event for an unparseable start")
	}

	openEnded := g.RehearsalEvents(models.RehearsalEvent{ID: "r2", Title: "Notes", Date: "2024-06-01", StartTime: "21:00", EndTime: "20:00"}, nil, models.RoleCast)
	if len(openEnded) != 1 || openEnded[0].EndTime != nil {
		t.Errorf("Expected inverted end time to be dropped")
	}

	if events := g.RehearsalEvents(models.RehearsalEvent{ID: "r3", Date: "June 1"}, nil, models.RoleCast); len(events) != 0 {
		t.Errorf("Expected malformed date to be skipped")
	}
}

func TestCastEvents(t *testing.T) {
	g := newTestGenerator()
	a := hamlet()

	events := g.CastEvents(models.CastMembership{UserID: "u1", AuditionID: a.ID, Audition: &a, RoleName: "Ophelia"}, models.RoleCast)

	var cast []models.Event
	for _, e := range events {
		if e.UserRole != models.RoleCast {
			t.Errorf("UserRole = %s, want cast", e.UserRole)
		}
		if e.Type == models.EventTypeCast {
			cast = append(cast, e)
		}
	}
	if len(cast) != 1 {
		t.Fatalf("Expected one cast event, got %d", len(cast))
	}
	if cast[0].Title != "Cast: Ophelia in Hamlet" {
		t.Errorf("Title = %q", cast[0].Title)
	}
	if want := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC); !cast[0].Date.Equal(want) {
		t.Errorf("Cast event should land on opening night, got %v", cast[0].Date)
	}

	noPerf := models.Audition{ID: "aud3", Title: "Showcase", AuditionDate: "2024-05-10"}
	events = g.CastEvents(models.CastMembership{AuditionID: "aud3", Audition: &noPerf}, models.RoleCast)
	if len(events) != 1 || events[0].Title != "Cast in Showcase" {
		t.Errorf("Expected fallback to audition date, got %+v", events)
	}

	if events := g.CastEvents(models.CastMembership{AuditionID: "missing"}, models.RoleCast); events != nil {
		t.Errorf("Expected no events without audition")
	}
}

func TestProductionEvent(t *testing.T) {
	g := newTestGenerator()

	ev, ok := g.ProductionEvent(models.ProductionEvent{
		ID:        "pe1",
		Kind:      models.ProductionEventOther,
		Date:      "2024-06-10",
		StartTime: "18:00",
		EndTime:   "19:00",
		Show:      &models.Show{Title: "Hamlet"},
	}, nil, models.RoleCast)
	if !ok {
		t.Fatal("expected production event")
	}
	if ev.ProductionEventID != "pe1" || ev.Title != "other" {
		t.Errorf("Unexpected event: %+v", ev)
	}
	if ev.Show == nil || ev.Show.Title != "Hamlet" {
		t.Errorf("Expected show from the production event")
	}

	if _, ok := g.ProductionEvent(models.ProductionEvent{ID: "pe2"}, nil, models.RoleCast); ok {
		t.Error("expected production event without date to be skipped")
	}
}

func TestPersonalEvent(t *testing.T) {
	g := newTestGenerator()
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	timed := g.PersonalEvent(models.PersonalEvent{ID: "p1", Title: "Day job", Start: start, End: start.Add(8 * time.Hour)})
	if timed.Type != models.EventTypePersonal || timed.EventID != "p1" {
		t.Errorf("Unexpected event: %+v", timed)
	}
	if timed.AllDay() || timed.EndTime == nil {
		t.Errorf("Expected a timed event with an end")
	}

	allDay := g.PersonalEvent(models.PersonalEvent{ID: "p2", Title: "Vacation", Start: start, AllDay: true})
	if !allDay.AllDay() {
		t.Errorf("Expected all-day event")
	}
	if want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC); !allDay.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", allDay.Date, want)
	}
}

func TestGenerate_DoesNotMutateInputs(t *testing.T) {
	g := newTestGenerator()
	a := hamlet()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	rec := Records{
		Auditions: []models.Audition{a},
		Slots: map[string][]models.Slot{
			"aud1": {{ID: "s1", AuditionID: "aud1", StartTime: start, EndTime: start.Add(15 * time.Minute)}},
		},
		Rehearsals: []models.RehearsalEvent{
			{ID: "r1", AuditionID: "aud1", Title: "Blocking", Date: "2024-06-01", StartTime: "19:00", EndTime: "22:00"},
		},
		ProductionEvents: []models.ProductionEvent{
			{ID: "pe1", AuditionID: "aud1", Title: "Photo call", Date: "2024-06-20"},
		},
	}
	before := rec.Auditions[0]

	events := g.Generate(rec, models.RoleOwner)

	// 3 rehearsal dates, 2 performances, 1 slot, 1 rehearsal event, 1 production event
	if len(events) != 8 {
		t.Fatalf("Expected 8 events, got %d", len(events))
	}
	if rec.Auditions[0] != before {
		t.Error("Generate mutated its audition input")
	}
	for _, e := range events {
		if e.Type == models.EventTypeRehearsalEvent && (e.Show == nil || e.Show.Title != "Hamlet") {
			t.Errorf("Expected rehearsal event to carry the audition's show")
		}
	}
}
