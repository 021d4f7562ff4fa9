package rehearsals

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/callboard/internal/cli"
	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/scheduler"
	"github.com/julianstephens/callboard/internal/validation"
)

type RehearsalAddCmd struct {
	Audition string `help:"Audition ID." required:""`
	Title    string `help:"Rehearsal title." required:""`
	Date     string `help:"Date of the first rehearsal (YYYY-MM-DD)." required:""`
	Start    string `help:"Start time (HH:MM)." required:""`
	End      string `help:"End time (HH:MM)." required:""`
	Location string `help:"Rehearsal space."`
	Notes    string `help:"Notes for the company."`
	Repeat   string `help:"RRULE recurrence, e.g. 'FREQ=WEEKLY;BYDAY=MO,WE;COUNT=8'."`
}

func (c *RehearsalAddCmd) Run(ctx *cli.Context) error {
	if err := cli.ValidateDate(c.Date); err != nil {
		return err
	}
	repeat := strings.TrimPrefix(strings.TrimSpace(c.Repeat), "RRULE:")
	if repeat != "" {
		if _, err := scheduler.ParseRecurrence(repeat); err != nil {
			return err
		}
	}

	bg := context.Background()
	a, err := ctx.Store.GetAudition(bg, c.Audition)
	if err != nil {
		return err
	}

	r, err := ctx.Store.AddRehearsalEvent(bg, models.RehearsalEvent{
		AuditionID: a.ID,
		Title:      c.Title,
		Date:       c.Date,
		StartTime:  c.Start,
		EndTime:    c.End,
		Location:   c.Location,
		Notes:      c.Notes,
		Recurrence: repeat,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out(), "Added rehearsal %s: %s on %s %s-%s", r.ID, r.Title, r.Date, r.StartTime, r.EndTime)
	if r.Recurrence != "" {
		fmt.Fprintf(ctx.Out(), " (repeats %s)", r.Recurrence)
	}
	fmt.Fprintln(ctx.Out())
	return nil
}

// AgendaAddCmd schedules an activity inside a rehearsal's window
type AgendaAddCmd struct {
	Rehearsal   string `help:"Rehearsal ID." required:""`
	Title       string `help:"Agenda item title." required:""`
	Start       string `help:"Start time (HH:MM)." required:""`
	End         string `help:"End time (HH:MM)." required:""`
	Description string `help:"Details, e.g. scenes or calls."`
}

func (c *AgendaAddCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	item, err := ctx.Store.AddAgendaItem(bg, models.AgendaItem{
		RehearsalEventID: c.Rehearsal,
		Title:            c.Title,
		Description:      c.Description,
		StartTime:        c.Start,
		EndTime:          c.End,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out(), "Added agenda item %s: %s %s-%s\n", item.ID, item.Title, item.StartTime, item.EndTime)

	// Overlapping agenda items are allowed but worth pointing out
	r, err := ctx.Store.GetRehearsalEvent(bg, c.Rehearsal)
	if err != nil {
		return err
	}
	result := validation.New().ValidateRehearsal(r)
	if result.HasConflicts() {
		fmt.Fprint(ctx.Out(), result.FormatReport())
	}
	return nil
}
