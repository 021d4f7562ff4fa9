package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/callboard/internal/cli"
	"github.com/julianstephens/callboard/internal/refresh"
)

// WatchCmd rewrites the configured users' .ics files on a cron schedule
type WatchCmd struct {
	Once bool `help:"Export once and exit."`
}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	exporter, err := refresh.New(ctx.Cfg(), ctx.Builder(), ctx.Log())
	if err != nil {
		return err
	}

	if c.Once {
		if err := exporter.RunOnce(context.Background()); err != nil {
			return err
		}
		fmt.Fprintf(ctx.Out(), "✓ Refreshed %d calendar(s)\n", len(ctx.Cfg().ExportUsers))
		return nil
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(ctx.Out(), "Refreshing %d calendar(s) on %q, press Ctrl+C to stop\n",
		len(ctx.Cfg().ExportUsers), ctx.Cfg().RefreshCron)
	return exporter.Start(sigCtx)
}
