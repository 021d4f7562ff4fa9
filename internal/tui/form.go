package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/utils"
	"github.com/julianstephens/callboard/internal/validation"
)

var errEmptyTitle = errors.New("title cannot be empty")

func newAgendaForm(r models.RehearsalEvent, f *AgendaFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Add agenda item").
				Description(r.Title+" on "+r.Date+", "+r.StartTime+"-"+r.EndTime),
			huh.NewInput().
				Title("Title").
				Value(&f.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errEmptyTitle
					}
					return nil
				}),
			huh.NewInput().
				Title("Start (HH:MM)").
				Value(&f.Start).
				Validate(func(s string) error {
					if !utils.ValidateTimeFormat(s) {
						return validation.ErrInvalidTime
					}
					return nil
				}),
			huh.NewInput().
				Title("End (HH:MM)").
				Value(&f.End).
				Validate(func(s string) error {
					return validation.ValidateWithinBounds(r.StartTime, r.EndTime, f.Start, s)
				}),
			huh.NewText().
				Title("Description").
				Value(&f.Description),
		),
	)
}

// agendaItem turns a completed form into an item, re-checking the window
// since huh only validates fields as they are left.
func agendaItem(r models.RehearsalEvent, f AgendaFormModel) (models.AgendaItem, error) {
	item := models.AgendaItem{
		RehearsalEventID: r.ID,
		Title:            strings.TrimSpace(f.Title),
		Description:      strings.TrimSpace(f.Description),
		StartTime:        strings.TrimSpace(f.Start),
		EndTime:          strings.TrimSpace(f.End),
	}
	if item.Title == "" {
		return models.AgendaItem{}, errEmptyTitle
	}
	if err := validation.ValidateWithinBounds(r.StartTime, r.EndTime, item.StartTime, item.EndTime); err != nil {
		return models.AgendaItem{}, err
	}
	return item, nil
}
