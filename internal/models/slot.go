package models

import (
	"fmt"
	"time"
)

// DefaultSlotCapacity applies when a slot has no explicit max_signups
const DefaultSlotCapacity = 1

type Slot struct {
	ID             string    `json:"id"`
	AuditionID     string    `json:"audition_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Location       string    `json:"location,omitempty"`
	MaxSignups     *int      `json:"max_signups,omitempty"`
	CurrentSignups int       `json:"current_signups"`
	Callback       bool      `json:"callback"`
}

// Capacity returns max_signups, defaulting to a single-signup slot
func (s Slot) Capacity() int {
	if s.MaxSignups == nil {
		return DefaultSlotCapacity
	}
	return *s.MaxSignups
}

func (s Slot) IsOpen() bool {
	return s.CurrentSignups < s.Capacity()
}

func (s Slot) IsFuture(now time.Time) bool {
	return s.StartTime.After(now)
}

func (s Slot) Validate() error {
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return fmt.Errorf("slot start and end times are required")
	}
	if !s.EndTime.After(s.StartTime) {
		return fmt.Errorf("slot end time (%s) must be after start time (%s)",
			s.EndTime.Format(time.RFC3339), s.StartTime.Format(time.RFC3339))
	}
	if s.MaxSignups != nil && *s.MaxSignups < 1 {
		return fmt.Errorf("max signups must be at least 1")
	}
	if s.CurrentSignups < 0 {
		return fmt.Errorf("current signups cannot be negative")
	}
	return nil
}
