package auditions

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/callboard/internal/cli"
	"github.com/julianstephens/callboard/internal/location"
	"github.com/julianstephens/callboard/internal/models"
)

type AuditionAddCmd struct {
	Owner            string `help:"User who owns the audition." required:""`
	Show             string `help:"Show title."`
	Author           string `help:"Show author."`
	Title            string `help:"Audition title, used when there is no show."`
	Location         string `help:"Venue address, e.g. '123 Main St, Springfield, IL 62701'."`
	Date             string `help:"Audition date (YYYY-MM-DD)."`
	RehearsalDates   string `help:"Comma-separated rehearsal dates (YYYY-MM-DD)."`
	PerformanceDates string `help:"Comma-separated performance dates (YYYY-MM-DD)."`
}

func (c *AuditionAddCmd) Run(ctx *cli.Context) error {
	if strings.TrimSpace(c.Show) == "" && strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("either --show or --title is required")
	}
	if c.Date != "" {
		if err := cli.ValidateDate(c.Date); err != nil {
			return err
		}
	}
	rehearsals, err := cli.ValidateDates(c.RehearsalDates)
	if err != nil {
		return fmt.Errorf("rehearsal dates: %w", err)
	}
	performances, err := cli.ValidateDates(c.PerformanceDates)
	if err != nil {
		return fmt.Errorf("performance dates: %w", err)
	}

	a := models.Audition{
		OwnerID:          c.Owner,
		Title:            c.Title,
		Location:         c.Location,
		AuditionDate:     c.Date,
		RehearsalDates:   rehearsals,
		PerformanceDates: performances,
		WorkflowStatus:   models.WorkflowAuditioning,
	}
	if c.Show != "" {
		a.Show = &models.Show{Title: c.Show, Author: c.Author}
	}

	a, err = ctx.Store.AddAudition(context.Background(), a)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out(), "Added audition: %s (%s)\n", a.DisplayTitle(), a.ID)
	return nil
}

type AuditionListCmd struct {
	State string `help:"Only list auditions in this two-letter state."`
	Owner string `help:"Only list auditions owned by this user."`
}

func (c *AuditionListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	var (
		list []models.Audition
		err  error
	)
	if c.Owner != "" {
		list, err = ctx.Store.OwnedAuditions(bg, c.Owner)
	} else {
		list, err = ctx.Store.ListAuditions(bg)
	}
	if err != nil {
		return err
	}

	out := ctx.Out()
	shown := 0
	for _, a := range list {
		if c.State != "" && !location.MatchesState(a.Location, c.State) {
			continue
		}
		shown++
		fmt.Fprintf(out, "%s  %-30s  %-15s", a.ID, a.DisplayTitle(), a.WorkflowStatus.Label())
		if a.AuditionDate != "" {
			fmt.Fprintf(out, "  %s", a.AuditionDate)
		}
		if loc, ok := location.Parse(a.Location); ok && loc.City != "" {
			fmt.Fprintf(out, "  %s, %s", loc.City, loc.State)
		}
		fmt.Fprintln(out)
	}

	if shown == 0 {
		fmt.Fprintln(out, "No auditions found.")
	}
	return nil
}

// AuditionAdvanceCmd moves a production to the next workflow stage
type AuditionAdvanceCmd struct {
	ID string `arg:"" help:"Audition ID."`
}

func (c *AuditionAdvanceCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	a, err := ctx.Store.GetAudition(bg, c.ID)
	if err != nil {
		return err
	}

	next, err := a.WorkflowStatus.Next()
	if err != nil {
		return err
	}
	if err := ctx.Store.SetWorkflowStatus(bg, a.ID, next); err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out(), "%s: %s → %s\n", a.DisplayTitle(), a.WorkflowStatus.Label(), next.Label())
	return nil
}
