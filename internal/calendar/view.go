package calendar

import (
	"sort"
	"time"

	"github.com/julianstephens/callboard/internal/constants"
	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/utils"
)

// SortEvents orders events by day, then start time. All-day events lead
// their day and ties keep input order.
func SortEvents(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start().Before(events[j].Start())
	})
}

// Between returns the events that overlap [from, to)
func Between(events []models.Event, from, to time.Time) []models.Event {
	var out []models.Event
	for _, e := range events {
		if e.Start().Before(to) && e.End(constants.DefaultTimedLength).After(from) {
			out = append(out, e)
		}
	}
	return out
}

// Day is one calendar day's events
type Day struct {
	Date   time.Time      `json:"date"`
	Events []models.Event `json:"events"`
}

// GroupByDay buckets events by the day they start on, in the order the days
// first appear. Pass sorted events for a chronological agenda.
func GroupByDay(events []models.Event) []Day {
	var days []Day
	index := make(map[string]int)
	for _, e := range events {
		date := utils.StartOfDay(e.Start())
		key := date.Format(constants.DateFormat)
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, Day{Date: date})
		}
		days[i].Events = append(days[i].Events, e)
	}
	return days
}
