package validation

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/callboard/internal/constants"
	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/utils"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictInvalidTime          ConflictType = "invalid_time"
	ConflictAgendaOutOfBounds    ConflictType = "agenda_out_of_bounds"
	ConflictInvertedRange        ConflictType = "inverted_range"
	ConflictOverlappingAgenda    ConflictType = "overlapping_agenda"
	ConflictOverCapacity         ConflictType = "over_capacity"
	ConflictOverlappingSlots     ConflictType = "overlapping_slots"
	ConflictOverlappingEvents    ConflictType = "overlapping_events"
	ConflictInvalidDate          ConflictType = "invalid_date"
)

// Conflict represents a detected conflict in a rehearsal, slot list or calendar
type Conflict struct {
	Type        ConflictType
	Description string
	Date        string   // YYYY-MM-DD format (if applicable)
	Items       []string // Titles or IDs involved
	TimeRange   string   // Human-readable time range (if applicable)
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	report := "Conflicts detected:\n"
	for _, conflict := range vr.Conflicts {
		report += fmt.Sprintf("- %s\n", conflict.Description)
	}
	return report
}

func (vr *ValidationResult) add(c Conflict) {
	vr.Conflicts = append(vr.Conflicts, c)
}

// Validator checks rehearsals, slots and assembled calendars for conflicts
type Validator struct {
	// DefaultDuration is assumed for timed events that have no end
	DefaultDuration time.Duration
}

// New creates a new Validator
func New() *Validator {
	return &Validator{DefaultDuration: constants.DefaultTimedLength}
}

// ValidateRehearsal checks that every agenda item nests inside the rehearsal
// window and that agenda items do not overlap each other.
func (v *Validator) ValidateRehearsal(event models.RehearsalEvent) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	if _, err := time.Parse(constants.DateFormat, event.Date); err != nil {
		result.add(Conflict{
			Type:        ConflictInvalidDate,
			Description: fmt.Sprintf("Rehearsal \"%s\" has invalid date: %s", event.Title, event.Date),
			Items:       []string{event.Title},
		})
	}

	boundStart, errStart := utils.ParseTimeToMinutes(event.StartTime)
	boundEnd, errEnd := utils.ParseTimeToMinutes(event.EndTime)
	if errStart != nil || errEnd != nil {
		result.add(Conflict{
			Type:        ConflictInvalidTime,
			Description: fmt.Sprintf("Rehearsal \"%s\" has invalid window: %s-%s", event.Title, event.StartTime, event.EndTime),
			Date:        event.Date,
			Items:       []string{event.Title},
		})
		return result // agenda items cannot be checked without a window
	}
	if boundEnd <= boundStart {
		result.add(Conflict{
			Type:        ConflictInvertedRange,
			Description: fmt.Sprintf("Rehearsal \"%s\" ends (%s) before it starts (%s)", event.Title, event.EndTime, event.StartTime),
			Date:        event.Date,
			Items:       []string{event.Title},
			TimeRange:   fmt.Sprintf("%s-%s", event.StartTime, event.EndTime),
		})
		return result
	}

	var valid []models.AgendaItem
	for _, item := range event.AgendaItems {
		err := ValidateWithinBounds(event.StartTime, event.EndTime, item.StartTime, item.EndTime)
		if err == nil {
			valid = append(valid, item)
			continue
		}

		conflictType := ConflictInvalidTime
		switch {
		case errors.Is(err, ErrOutOfBounds):
			conflictType = ConflictAgendaOutOfBounds
		case errors.Is(err, ErrInvertedRange):
			conflictType = ConflictInvertedRange
		}
		result.add(Conflict{
			Type:        conflictType,
			Description: fmt.Sprintf("Agenda item \"%s\" in \"%s\": %v", item.Title, event.Title, err),
			Date:        event.Date,
			Items:       []string{item.Title},
			TimeRange:   fmt.Sprintf("%s-%s", item.StartTime, item.EndTime),
		})
	}

	// Items already reported above are left out of the overlap check
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].StartTime < valid[j].StartTime
	})
	for i := 0; i < len(valid); i++ {
		for j := i + 1; j < len(valid); j++ {
			a, b := valid[i], valid[j]
			if !timesOverlap(a.StartTime, a.EndTime, b.StartTime, b.EndTime) {
				continue
			}
			result.add(Conflict{
				Type: ConflictOverlappingAgenda,
				Description: fmt.Sprintf("Agenda items overlap in \"%s\": \"%s\" (%s-%s) and \"%s\" (%s-%s)",
					event.Title, a.Title, a.StartTime, a.EndTime, b.Title, b.StartTime, b.EndTime),
				Date:      event.Date,
				Items:     []string{a.Title, b.Title},
				TimeRange: fmt.Sprintf("%s-%s", b.StartTime, a.EndTime),
			})
		}
	}

	return result
}

// ValidateSlots reports inverted slots, slots holding more signups than their
// capacity, and slots of the same audition that overlap.
func (v *Validator) ValidateSlots(slots []models.Slot) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	byAudition := make(map[string][]models.Slot)
	var order []string
	for _, slot := range slots {
		if !slot.EndTime.After(slot.StartTime) {
			result.add(Conflict{
				Type:        ConflictInvertedRange,
				Description: fmt.Sprintf("Slot %s ends before it starts (%s)", slot.ID, formatRange(slot.StartTime, slot.EndTime)),
				Date:        slot.StartTime.Format(constants.DateFormat),
				Items:       []string{slot.ID},
			})
			continue
		}
		if slot.CurrentSignups > slot.Capacity() {
			result.add(Conflict{
				Type:        ConflictOverCapacity,
				Description: fmt.Sprintf("Slot %s has %d signups for %d places", slot.ID, slot.CurrentSignups, slot.Capacity()),
				Date:        slot.StartTime.Format(constants.DateFormat),
				Items:       []string{slot.ID},
				TimeRange:   formatRange(slot.StartTime, slot.EndTime),
			})
		}
		if _, seen := byAudition[slot.AuditionID]; !seen {
			order = append(order, slot.AuditionID)
		}
		byAudition[slot.AuditionID] = append(byAudition[slot.AuditionID], slot)
	}

	for _, auditionID := range order {
		group := byAudition[auditionID]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].StartTime.Before(group[j].StartTime)
		})
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if !b.StartTime.Before(a.EndTime) {
					break // sorted by start, nothing later can overlap a
				}
				result.add(Conflict{
					Type: ConflictOverlappingSlots,
					Description: fmt.Sprintf("Slots overlap for audition %s: %s (%s) and %s (%s)",
						auditionID, a.ID, formatRange(a.StartTime, a.EndTime), b.ID, formatRange(b.StartTime, b.EndTime)),
					Date:      a.StartTime.Format(constants.DateFormat),
					Items:     []string{a.ID, b.ID},
					TimeRange: formatRange(b.StartTime, a.EndTime),
				})
			}
		}
	}

	return result
}

// ValidateCalendar reports overlapping timed events in an assembled calendar.
// All-day events never conflict.
func (v *Validator) ValidateCalendar(events []models.Event) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	fallback := v.DefaultDuration
	if fallback <= 0 {
		fallback = constants.DefaultTimedLength
	}

	var timed []models.Event
	for _, e := range events {
		if !e.AllDay() {
			timed = append(timed, e)
		}
	}
	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].Start().Before(timed[j].Start())
	})

	for i := 0; i < len(timed); i++ {
		aEnd := timed[i].End(fallback)
		for j := i + 1; j < len(timed); j++ {
			if !timed[j].Start().Before(aEnd) {
				break
			}
			a, b := timed[i], timed[j]
			bEnd := b.End(fallback)
			overlapEnd := aEnd
			if bEnd.Before(overlapEnd) {
				overlapEnd = bEnd
			}
			result.add(Conflict{
				Type: ConflictOverlappingEvents,
				Description: fmt.Sprintf("%s: \"%s\" (%s) overlaps \"%s\" (%s)",
					a.Start().Format("Mon Jan 2"), a.Title, formatRange(a.Start(), aEnd), b.Title, formatRange(b.Start(), bEnd)),
				Date:      a.Start().Format(constants.DateFormat),
				Items:     []string{a.Title, b.Title},
				TimeRange: formatRange(b.Start(), overlapEnd),
			})
		}
	}

	return result
}

// Helper functions

// timesOverlap checks if two HH:MM ranges overlap
func timesOverlap(start1, end1, start2, end2 string) bool {
	s1, err := utils.ParseTimeToMinutes(start1)
	if err != nil {
		return false
	}
	e1, err := utils.ParseTimeToMinutes(end1)
	if err != nil {
		return false
	}
	s2, err := utils.ParseTimeToMinutes(start2)
	if err != nil {
		return false
	}
	e2, err := utils.ParseTimeToMinutes(end2)
	if err != nil {
		return false
	}

	// Two ranges overlap if: start1 < end2 AND start2 < end1
	return s1 < e2 && s2 < e1
}

func formatRange(start, end time.Time) string {
	return fmt.Sprintf("%s-%s", start.Format(constants.TimeFormat), end.Format(constants.TimeFormat))
}
