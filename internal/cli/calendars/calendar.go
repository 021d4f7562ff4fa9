package calendars

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/callboard/internal/calendar"
	"github.com/julianstephens/callboard/internal/cli"
	"github.com/julianstephens/callboard/internal/export"
	"github.com/julianstephens/callboard/internal/utils"
	"github.com/julianstephens/callboard/internal/validation"
)

var maxTime = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

type CalendarShowCmd struct {
	User string `arg:"" help:"User whose calendar to show."`
	From string `help:"First day to show (YYYY-MM-DD), defaults to today."`
	Days int    `help:"Number of days to show, 0 for everything ahead." default:"14"`
	All  bool   `help:"Include past events."`
}

func (c *CalendarShowCmd) Run(ctx *cli.Context) error {
	cal, err := ctx.Builder().Build(context.Background(), c.User)
	if err != nil {
		return err
	}

	loc := ctx.Location()
	from := utils.StartOfDay(time.Now().In(loc))
	if c.From != "" {
		if from, err = utils.ParseDateInLocation(c.From, loc); err != nil {
			return fmt.Errorf("invalid --from date: %w", err)
		}
	}
	to := maxTime
	if c.Days > 0 {
		to = from.AddDate(0, 0, c.Days)
	}
	if c.All {
		from = time.Time{}
	}

	out := ctx.Out()
	days := calendar.GroupByDay(calendar.Between(cal.Events, from, to))
	if len(days) == 0 {
		fmt.Fprintln(out, "Nothing scheduled.")
		return nil
	}
	for _, day := range days {
		fmt.Fprintln(out, day.Date.Format("Mon Jan 2, 2006"))
		for _, e := range day.Events {
			fmt.Fprintf(out, "  %-11s  %s  [%s]", cli.FormatEventTime(e), e.Title, e.UserRole)
			if e.Location != "" {
				fmt.Fprintf(out, "  @ %s", e.Location)
			}
			fmt.Fprintln(out)
			for _, item := range e.Agenda {
				fmt.Fprintf(out, "      %s-%s  %s\n", item.StartTime, item.EndTime, item.Title)
			}
		}
	}
	if n := len(cal.Conflicts); n > 0 {
		fmt.Fprintf(out, "\n⚠ %d conflict(s), run 'callboard calendar conflicts %s'\n", n, c.User)
	}
	return nil
}

type CalendarExportCmd struct {
	User   string `arg:"" help:"User whose calendar to export."`
	Format string `help:"Output format." enum:"ics,pdf" default:"ics"`
	Output string `short:"o" help:"Output file, defaults to <user>_calendar.<format> in the current directory."`
	Name   string `help:"Calendar name, defaults to the configured one."`
}

func (c *CalendarExportCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	cal, err := ctx.Builder().Build(bg, c.User)
	if err != nil {
		return err
	}

	name := c.Name
	if name == "" {
		name = ctx.Cfg().CalendarName
	}

	var buf bytes.Buffer
	output := c.Output
	switch c.Format {
	case "pdf":
		if output == "" {
			output = export.PDFFilename(c.User)
		}
		err = ctx.PDFRenderer().CalendarPDF(bg, &buf, name, cal.Events)
	default:
		if output == "" {
			output = export.Filename(c.User)
		}
		err = export.WriteICS(&buf, cal.Events, name, export.ICSOptions{})
	}
	if err != nil {
		return err
	}

	if err := writeFile(output, buf.Bytes()); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out(), "✓ Exported %d event(s) to %s\n", len(cal.Events), output)
	return nil
}

type CalendarConflictsCmd struct {
	User string `arg:"" help:"User whose calendar to check."`
}

func (c *CalendarConflictsCmd) Run(ctx *cli.Context) error {
	cal, err := ctx.Builder().Build(context.Background(), c.User)
	if err != nil {
		return err
	}

	result := validation.ValidationResult{Conflicts: cal.Conflicts}
	fmt.Fprint(ctx.Out(), result.FormatReport())
	if !result.HasConflicts() {
		fmt.Fprintln(ctx.Out())
	}
	return nil
}

func writeFile(path string, data []byte) error {
	path, err := utils.ExpandHome(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
