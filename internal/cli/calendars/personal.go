package calendars

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/julianstephens/callboard/internal/cli"
	"github.com/julianstephens/callboard/internal/export"
	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/storage"
	"github.com/julianstephens/callboard/internal/utils"
)

type PersonalAddCmd struct {
	User     string `help:"Owner of the event." required:""`
	Title    string `help:"Event title." required:""`
	Date     string `help:"Event date (YYYY-MM-DD)." required:""`
	Start    string `help:"Start time (HH:MM)."`
	End      string `help:"End time (HH:MM)."`
	AllDay   bool   `help:"Block out the whole day."`
	Location string `help:"Where it happens."`
	Notes    string `help:"Notes."`
}

func (c *PersonalAddCmd) Run(ctx *cli.Context) error {
	p := models.PersonalEvent{
		UserID:   c.User,
		Title:    c.Title,
		AllDay:   c.AllDay,
		Location: c.Location,
		Notes:    c.Notes,
	}

	var err error
	if c.AllDay {
		if p.Start, err = utils.ParseDateInLocation(c.Date, ctx.Location()); err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
		p.End = p.Start.AddDate(0, 0, 1)
	} else {
		if c.Start == "" || c.End == "" {
			return fmt.Errorf("--start and --end are required unless --all-day is set")
		}
		if p.Start, err = ctx.ParseDateTime(c.Date, c.Start); err != nil {
			return fmt.Errorf("start: %w", err)
		}
		if p.End, err = ctx.ParseDateTime(c.Date, c.End); err != nil {
			return fmt.Errorf("end: %w", err)
		}
	}

	p, err = ctx.Store.AddPersonalEvent(context.Background(), p)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out(), "Added personal event %s: %s\n", p.ID, p.Title)
	return nil
}

// PersonalImportCmd loads events from an .ics file, such as an export from
// another calendar app
type PersonalImportCmd struct {
	File string `arg:"" help:"ICS file to import." type:"existingfile"`
	User string `help:"Owner of the imported events." required:""`
}

func (c *PersonalImportCmd) Run(ctx *cli.Context) error {
	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	events, err := export.ParseICS(f, c.User, ctx.Log())
	if err != nil {
		return err
	}

	bg := context.Background()
	added, skipped := 0, 0
	for _, p := range events {
		if p.AllDay {
			p.Start = inLocation(p.Start, ctx.Location())
			p.End = inLocation(p.End, ctx.Location())
		}
		if _, err := ctx.Store.AddPersonalEvent(bg, p); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				skipped++
				continue
			}
			return fmt.Errorf("failed to import %q: %w", p.Title, err)
		}
		added++
	}

	fmt.Fprintf(ctx.Out(), "✓ Imported %d event(s)", added)
	if skipped > 0 {
		fmt.Fprintf(ctx.Out(), ", skipped %d already imported", skipped)
	}
	fmt.Fprintln(ctx.Out())
	return nil
}

// inLocation keeps the wall-clock date of an all-day value in loc
func inLocation(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
