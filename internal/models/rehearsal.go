package models

type RehearsalEvent struct {
	ID          string       `json:"id"`
	AuditionID  string       `json:"audition_id"`
	Title       string       `json:"title"`
	Date        string       `json:"date"`       // YYYY-MM-DD format
	StartTime   string       `json:"start_time"` // HH:MM format
	EndTime     string       `json:"end_time"`   // HH:MM format
	Location    string       `json:"location,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	Recurrence  string       `json:"recurrence,omitempty"` // RFC 5545 RRULE, e.g. FREQ=WEEKLY;COUNT=6
	AgendaItems []AgendaItem `json:"agenda_items,omitempty"`
}

// AgendaItem is one activity inside a rehearsal. Its window must sit within
// the parent rehearsal's window on the same day.
type AgendaItem struct {
	ID               string `json:"id"`
	RehearsalEventID string `json:"rehearsal_event_id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	StartTime        string `json:"start_time"` // HH:MM format
	EndTime          string `json:"end_time"`   // HH:MM format
}

type ProductionEventKind string

const (
	ProductionEventRehearsal   ProductionEventKind = "rehearsal"
	ProductionEventPerformance ProductionEventKind = "performance"
	ProductionEventOther       ProductionEventKind = "other"
)

// ProductionEvent is a generic calendar-worthy occurrence assigned to users
type ProductionEvent struct {
	ID          string              `json:"id"`
	AuditionID  string              `json:"audition_id"`
	Kind        ProductionEventKind `json:"kind"`
	Title       string              `json:"title"`
	Date        string              `json:"date"`                 // YYYY-MM-DD format
	StartTime   string              `json:"start_time,omitempty"` // HH:MM format
	EndTime     string              `json:"end_time,omitempty"`   // HH:MM format
	Location    string              `json:"location,omitempty"`
	Description string              `json:"description,omitempty"`
	Show        *Show               `json:"show,omitempty"`
}
