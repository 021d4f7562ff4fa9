package calendars

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/callboard/internal/cli"
	"github.com/julianstephens/callboard/internal/export"
	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/storage"
)

// ProfileSetCmd creates or updates a performer profile. Empty flags keep
// the stored values.
type ProfileSetCmd struct {
	User    string   `help:"Profile owner." required:""`
	Name    string   `help:"Display name."`
	Email   string   `help:"Contact email."`
	Phone   string   `help:"Contact phone."`
	Website string   `help:"Website."`
	Bio     string   `help:"Short bio."`
	Skills  string   `help:"Comma-separated skills."`
	Credit  []string `help:"Credit as 'Show|Role|Company|Year', repeatable. Replaces stored credits."`
}

func (c *ProfileSetCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	p, err := ctx.Store.GetProfile(bg, c.User)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		p = models.Profile{UserID: c.User}
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.Name, c.Name)
	set(&p.Email, c.Email)
	set(&p.Phone, c.Phone)
	set(&p.Website, c.Website)
	set(&p.Bio, c.Bio)
	if c.Skills != "" {
		p.Skills = splitList(c.Skills)
	}
	if len(c.Credit) > 0 {
		p.Credits = p.Credits[:0]
		for _, raw := range c.Credit {
			credit, err := parseCredit(raw)
			if err != nil {
				return err
			}
			p.Credits = append(p.Credits, credit)
		}
	}

	if err := ctx.Store.SaveProfile(bg, p); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out(), "✓ Saved profile for %s\n", p.Name)
	return nil
}

func parseCredit(raw string) (models.Credit, error) {
	parts := strings.Split(raw, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return models.Credit{}, fmt.Errorf("invalid credit %q, expected 'Show|Role|Company|Year'", raw)
	}
	credit := models.Credit{Show: parts[0], Role: parts[1]}
	if len(parts) > 2 {
		credit.Company = parts[2]
	}
	if len(parts) > 3 {
		credit.Year = parts[3]
	}
	return credit, nil
}

type ProfileShowCmd struct {
	User string `arg:"" help:"Profile owner."`
}

func (c *ProfileShowCmd) Run(ctx *cli.Context) error {
	p, err := ctx.Store.GetProfile(context.Background(), c.User)
	if err != nil {
		return err
	}

	out := ctx.Out()
	fmt.Fprintln(out, p.Name)
	for _, line := range []string{p.Email, p.Phone, p.Website} {
		if line != "" {
			fmt.Fprintf(out, "  %s\n", line)
		}
	}
	if p.Bio != "" {
		fmt.Fprintf(out, "\n%s\n", p.Bio)
	}
	if len(p.Skills) > 0 {
		fmt.Fprintf(out, "\nSkills: %s\n", strings.Join(p.Skills, ", "))
	}
	printCredits := func(title string, credits []models.Credit) {
		if len(credits) == 0 {
			return
		}
		fmt.Fprintf(out, "\n%s:\n", title)
		for _, cr := range credits {
			fmt.Fprintf(out, "  %s - %s", cr.Show, cr.Role)
			if cr.Year != "" {
				fmt.Fprintf(out, " (%s)", cr.Year)
			}
			if cr.Verified {
				fmt.Fprint(out, " ✓")
			}
			fmt.Fprintln(out)
		}
	}
	printCredits("Casting history", p.CastingHistory)
	printCredits("Credits", p.Credits)
	return nil
}

type ResumeExportCmd struct {
	User   string `arg:"" help:"Profile owner."`
	Output string `short:"o" help:"Output file, defaults to <name>_resume.pdf in the current directory."`
}

func (c *ResumeExportCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	p, err := ctx.Store.GetProfile(bg, c.User)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := ctx.PDFRenderer().Resume(bg, &buf, p); err != nil {
		return err
	}

	output := c.Output
	if output == "" {
		output = export.ResumeFilename(p.Name)
	}
	if err := writeFile(output, buf.Bytes()); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out(), "✓ Resume written to %s\n", output)
	return nil
}
