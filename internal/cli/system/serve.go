package system

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/callboard/internal/cli"
	"github.com/julianstephens/callboard/internal/server"
)

// ServeCmd exposes calendars, exports and slot lookups over HTTP
type ServeCmd struct {
	Listen string `help:"Listen address, overrides the config file."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Cfg()
	if c.Listen != "" {
		cfg.Listen = c.Listen
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, ctx.Store, ctx.Builder(), ctx.PDFRenderer(), ctx.Log())
	return srv.Run(sigCtx)
}
