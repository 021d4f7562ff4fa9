package models

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventTypeRehearsal       EventType = "rehearsal"
	EventTypePerformance     EventType = "performance"
	EventTypeAuditionSlot    EventType = "audition_slot"
	EventTypeRehearsalEvent  EventType = "rehearsal_event"
	EventTypeAgendaItem      EventType = "agenda_item"
	EventTypeProductionEvent EventType = "production_event"
	EventTypeCast            EventType = "cast"
	EventTypePersonal        EventType = "personal"
)

type UserRole string

const (
	RoleOwner          UserRole = "owner"
	RoleProductionTeam UserRole = "production_team"
	RoleCast           UserRole = "cast"
)

// ShowInfo is the show summary carried on generated events
type ShowInfo struct {
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
}

// Event is the unified calendar entry produced from every source record.
// A nil StartTime marks an all-day event on Date.
type Event struct {
	Type              EventType    `json:"type"`
	Title             string       `json:"title"`
	Date              time.Time    `json:"date"`
	StartTime         *time.Time   `json:"start_time,omitempty"`
	EndTime           *time.Time   `json:"end_time,omitempty"`
	Location          string       `json:"location,omitempty"`
	Description       string       `json:"description,omitempty"`
	EventID           string       `json:"event_id,omitempty"`
	SlotID            string       `json:"slot_id,omitempty"`
	ProductionEventID string       `json:"production_event_id,omitempty"`
	Show              *ShowInfo    `json:"show,omitempty"`
	UserRole          UserRole     `json:"user_role"`
	Agenda            []AgendaItem `json:"agenda,omitempty"`
}

// Key returns the identity used to collapse the same logical event reached
// through several relationships. Events without any stable ID fall back to
// type, date and title, so two distinct untracked events sharing all three
// collapse into one.
func (e Event) Key() string {
	switch {
	case e.ProductionEventID != "":
		return e.ProductionEventID
	case e.EventID != "":
		return e.EventID
	case e.SlotID != "":
		return e.SlotID
	default:
		return fmt.Sprintf("%s|%d|%s", e.Type, e.Date.UnixMilli(), e.Title)
	}
}

// AllDay reports whether the event has no time-of-day component
func (e Event) AllDay() bool {
	return e.StartTime == nil
}

// Start returns the start instant, or midnight of Date for all-day events
func (e Event) Start() time.Time {
	if e.StartTime != nil {
		return *e.StartTime
	}
	return e.Date
}

// End returns the end instant. All-day events end at the following midnight;
// timed events without an explicit end last the given fallback.
func (e Event) End(fallback time.Duration) time.Time {
	if e.StartTime == nil {
		return e.Date.AddDate(0, 0, 1)
	}
	if e.EndTime != nil {
		return *e.EndTime
	}
	return e.StartTime.Add(fallback)
}
