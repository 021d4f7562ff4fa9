// Package slots answers capacity questions about audition slots. The answers
// are advisory: the storage layer's conditional sign-up update is what keeps
// two performers from taking the last place.
package slots

import (
	"sort"
	"time"

	"github.com/julianstephens/callboard/internal/models"
)

type Status string

const (
	StatusOpen         Status = "open"
	StatusFull         Status = "full"
	StatusOverCapacity Status = "over_capacity"
)

// IsAvailable reports whether the slot is still ahead of now and has room
func IsAvailable(slot models.Slot, now time.Time) bool {
	return slot.IsFuture(now) && slot.IsOpen()
}

// FilterAvailable returns the available slots ordered by start time. Slots
// sharing a start time keep their input order.
func FilterAvailable(slots []models.Slot, now time.Time) []models.Slot {
	out := make([]models.Slot, 0, len(slots))
	for _, s := range slots {
		if IsAvailable(s, now) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// SelectNextAvailable returns the earliest available slot
func SelectNextAvailable(slots []models.Slot, now time.Time) (models.Slot, bool) {
	available := FilterAvailable(slots, now)
	if len(available) == 0 {
		return models.Slot{}, false
	}
	return available[0], true
}

func CountAvailable(slots []models.Slot, now time.Time) int {
	n := 0
	for _, s := range slots {
		if IsAvailable(s, now) {
			n++
		}
	}
	return n
}

// StatusOf classifies a slot by signups alone, ignoring its start time
func StatusOf(slot models.Slot) Status {
	switch {
	case slot.CurrentSignups > slot.Capacity():
		return StatusOverCapacity
	case slot.CurrentSignups == slot.Capacity():
		return StatusFull
	default:
		return StatusOpen
	}
}

// Remaining returns how many more signups the slot accepts, never negative
func Remaining(slot models.Slot) int {
	if r := slot.Capacity() - slot.CurrentSignups; r > 0 {
		return r
	}
	return 0
}
