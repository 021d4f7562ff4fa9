package rehearsals

import (
	"context"
	"fmt"

	"github.com/julianstephens/callboard/internal/cli"
	"github.com/julianstephens/callboard/internal/models"
)

type EventAddCmd struct {
	Audition    string `help:"Audition ID." required:""`
	Title       string `help:"Event title." required:""`
	Kind        string `help:"Event kind." enum:"rehearsal,performance,other" default:"other"`
	Date        string `help:"Event date (YYYY-MM-DD)." required:""`
	Start       string `help:"Start time (HH:MM), omit for an all-day event."`
	End         string `help:"End time (HH:MM)."`
	Location    string `help:"Venue."`
	Description string `help:"Details."`
}

func (c *EventAddCmd) Run(ctx *cli.Context) error {
	if err := cli.ValidateDate(c.Date); err != nil {
		return err
	}
	if c.End != "" && c.Start == "" {
		return fmt.Errorf("--end requires --start")
	}

	bg := context.Background()
	a, err := ctx.Store.GetAudition(bg, c.Audition)
	if err != nil {
		return err
	}

	pe, err := ctx.Store.AddProductionEvent(bg, models.ProductionEvent{
		AuditionID:  a.ID,
		Kind:        models.ProductionEventKind(c.Kind),
		Title:       c.Title,
		Date:        c.Date,
		StartTime:   c.Start,
		EndTime:     c.End,
		Location:    c.Location,
		Description: c.Description,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out(), "Added %s event %s: %s on %s\n", pe.Kind, pe.ID, pe.Title, pe.Date)
	return nil
}

// EventAssignCmd puts a production event on a user's calendar
type EventAssignCmd struct {
	ID   string `arg:"" help:"Production event ID."`
	User string `help:"User to assign." required:""`
}

func (c *EventAssignCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.AssignProductionEvent(context.Background(), c.ID, c.User); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out(), "Assigned %s to %s\n", c.ID, c.User)
	return nil
}
