package models

import (
	"fmt"
	"strings"
)

type Show struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
}

type Audition struct {
	ID               string         `json:"id"`
	ShowID           string         `json:"show_id"`
	Show             *Show          `json:"show,omitempty"`
	OwnerID          string         `json:"owner_id"`
	Title            string         `json:"title,omitempty"`
	Location         string         `json:"location,omitempty"`
	AuditionDate     string         `json:"audition_date,omitempty"`     // YYYY-MM-DD format
	RehearsalDates   string         `json:"rehearsal_dates,omitempty"`   // comma-joined YYYY-MM-DD
	PerformanceDates string         `json:"performance_dates,omitempty"` // comma-joined YYYY-MM-DD
	WorkflowStatus   WorkflowStatus `json:"workflow_status"`
}

// DisplayTitle prefers the show title, then the audition title
func (a Audition) DisplayTitle() string {
	if a.Show != nil && a.Show.Title != "" {
		return a.Show.Title
	}
	if a.Title != "" {
		return a.Title
	}
	return "Untitled production"
}

// ShowInfo returns the show summary for generated events, or nil when unknown
func (a Audition) ShowInfo() *ShowInfo {
	if a.Show == nil {
		return nil
	}
	return &ShowInfo{Title: a.Show.Title, Author: a.Show.Author}
}

func (a Audition) Validate() error {
	if strings.TrimSpace(a.OwnerID) == "" {
		return fmt.Errorf("audition owner cannot be empty")
	}
	if a.Show == nil && strings.TrimSpace(a.Title) == "" && a.ShowID == "" {
		return fmt.Errorf("audition needs a show or a title")
	}
	if a.WorkflowStatus != "" && !a.WorkflowStatus.Valid() {
		return fmt.Errorf("unknown workflow status: %s", a.WorkflowStatus)
	}
	return nil
}

type CastMembership struct {
	UserID     string    `json:"user_id"`
	AuditionID string    `json:"audition_id"`
	Audition   *Audition `json:"audition,omitempty"`
	RoleName   string    `json:"role_name,omitempty"`
}

type TeamMembership struct {
	UserID     string `json:"user_id"`
	AuditionID string `json:"audition_id"`
	Role       string `json:"role,omitempty"` // e.g. "stage manager"
}
