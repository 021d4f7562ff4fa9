package models

import (
	"fmt"
	"time"
)

// PersonalEvent is a user's own calendar entry (day job, class, imported feed)
type PersonalEvent struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	AllDay   bool      `json:"all_day"`
	Location string    `json:"location,omitempty"`
	Notes    string    `json:"notes,omitempty"`
}

func (p PersonalEvent) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("personal event needs a user")
	}
	if p.Title == "" {
		return fmt.Errorf("personal event title cannot be empty")
	}
	if !p.AllDay && !p.End.After(p.Start) {
		return fmt.Errorf("personal event must end after it starts")
	}
	return nil
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationData is what could be recovered from a free-text address
type LocationData struct {
	FormattedAddress string       `json:"formatted_address"`
	City             string       `json:"city,omitempty"`
	State            string       `json:"state,omitempty"`
	Country          string       `json:"country,omitempty"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
}
