package auditions

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/callboard/internal/cli"
	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/slots"
)

type SlotAddCmd struct {
	Audition string `help:"Audition ID." required:""`
	Date     string `help:"Slot date (YYYY-MM-DD)." required:""`
	Start    string `help:"Start time (HH:MM)." required:""`
	End      string `help:"End time (HH:MM)." required:""`
	Location string `help:"Room or address, when different from the audition's."`
	Max      int    `help:"Maximum sign-ups, defaults to one." default:"0"`
	Callback bool   `help:"Mark as a callback slot."`
}

func (c *SlotAddCmd) Run(ctx *cli.Context) error {
	start, err := ctx.ParseDateTime(c.Date, c.Start)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	end, err := ctx.ParseDateTime(c.Date, c.End)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}

	slot := models.Slot{
		AuditionID: c.Audition,
		StartTime:  start,
		EndTime:    end,
		Location:   c.Location,
		Callback:   c.Callback,
	}
	if c.Max > 0 {
		max := c.Max
		slot.MaxSignups = &max
	}

	slot, err = ctx.Store.AddSlot(context.Background(), slot)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out(), "Added slot %s: %s (capacity %d)\n",
		slot.ID, cli.FormatSlotRange(slot, ctx.Location()), slot.Capacity())
	return nil
}

type SlotListCmd struct {
	Audition string `arg:"" help:"Audition ID."`
	Open     bool   `help:"Only list slots that can still be booked."`
}

func (c *SlotListCmd) Run(ctx *cli.Context) error {
	list, err := ctx.Store.SlotsForAudition(context.Background(), c.Audition)
	if err != nil {
		return err
	}
	now := time.Now()
	if c.Open {
		list = slots.FilterAvailable(list, now)
	}

	out := ctx.Out()
	if len(list) == 0 {
		fmt.Fprintln(out, "No slots found.")
		return nil
	}

	loc := ctx.Location()
	for _, s := range list {
		fmt.Fprintf(out, "%s  %s  %d/%d  %s", s.ID, cli.FormatSlotRange(s, loc),
			s.CurrentSignups, s.Capacity(), slots.StatusOf(s))
		if s.Callback {
			fmt.Fprint(out, "  callback")
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "\n%d of %d slot(s) available\n", slots.CountAvailable(list, now), len(list))
	return nil
}

// SlotNextCmd shows the earliest future slot with room left
type SlotNextCmd struct {
	Audition string `arg:"" help:"Audition ID."`
}

func (c *SlotNextCmd) Run(ctx *cli.Context) error {
	list, err := ctx.Store.SlotsForAudition(context.Background(), c.Audition)
	if err != nil {
		return err
	}
	slot, ok := slots.SelectNextAvailable(list, time.Now())
	if !ok {
		fmt.Fprintln(ctx.Out(), "No open slots remain.")
		return nil
	}
	fmt.Fprintf(ctx.Out(), "%s  %s  %d place(s) left\n",
		slot.ID, cli.FormatSlotRange(slot, ctx.Location()), slots.Remaining(slot))
	return nil
}

type SlotSignupCmd struct {
	Slot string `arg:"" help:"Slot ID."`
	User string `help:"User signing up." required:""`
}

func (c *SlotSignupCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	slot, err := ctx.Store.GetSlot(bg, c.Slot)
	if err != nil {
		return err
	}
	if !slot.StartTime.After(time.Now()) {
		return fmt.Errorf("slot %s has already started", slot.ID)
	}

	slot, err = ctx.Store.SignUp(bg, c.Slot, c.User)
	if err != nil {
		return fmt.Errorf("sign up: %w", err)
	}

	fmt.Fprintf(ctx.Out(), "✓ %s signed up for %s (%d place(s) left)\n",
		c.User, cli.FormatSlotRange(slot, ctx.Location()), slots.Remaining(slot))
	return nil
}
