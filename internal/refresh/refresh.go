// Package refresh keeps exported .ics files on disk current on a cron
// schedule.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/julianstephens/callboard/internal/calendar"
	"github.com/julianstephens/callboard/internal/config"
	"github.com/julianstephens/callboard/internal/export"
	"github.com/julianstephens/callboard/internal/logger"
	"github.com/julianstephens/callboard/internal/utils"
)

// CalendarBuilder builds one user's calendar
type CalendarBuilder interface {
	Build(ctx context.Context, userID string) (*calendar.Calendar, error)
}

type Exporter struct {
	builder CalendarBuilder
	spec    string
	dir     string
	users   []string
	name    string
	cfg     *config.Config
	logger  *log.Logger
}

func New(cfg *config.Config, builder CalendarBuilder, l *log.Logger) (*Exporter, error) {
	if l == nil {
		l = logger.Default()
	}
	if len(cfg.ExportUsers) == 0 {
		return nil, errors.New("no export users configured (set export_users in the config file)")
	}
	if _, err := cron.ParseStandard(cfg.RefreshCron); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", cfg.RefreshCron, err)
	}
	dir, err := utils.ExpandHome(cfg.ExportDir)
	if err != nil {
		return nil, err
	}
	return &Exporter{
		builder: builder,
		spec:    cfg.RefreshCron,
		dir:     dir,
		users:   cfg.ExportUsers,
		name:    cfg.CalendarName,
		cfg:     cfg,
		logger:  l,
	}, nil
}

// Path is where userID's calendar is written
func (e *Exporter) Path(userID string) string {
	return filepath.Join(e.dir, export.Filename(userID))
}

// RunOnce exports every configured user. One user's failure does not stop
// the others; all failures are returned together.
func (e *Exporter) RunOnce(ctx context.Context) error {
	if err := os.MkdirAll(e.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	var errs []error
	for _, user := range e.users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.exportUser(ctx, user); err != nil {
			if errors.Is(err, export.ErrNoEvents) {
				e.logger.Info("nothing to export", "user", user)
				if err := e.removeStale(user); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", user, err))
				}
				continue
			}
			e.logger.Error("calendar export failed", "user", user, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", user, err))
		}
	}
	return errors.Join(errs...)
}

func (e *Exporter) exportUser(ctx context.Context, user string) error {
	cal, err := e.builder.Build(ctx, user)
	if err != nil {
		return err
	}
	body, err := export.ToICS(cal.Events, e.name, export.ICSOptions{})
	if err != nil {
		return err
	}

	target := e.Path(user)
	tmp, err := os.CreateTemp(e.dir, ".callboard-export-*.ics")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		return err
	}
	e.logger.Debug("calendar exported", "user", user, "events", len(cal.Events), "path", target)
	return nil
}

// removeStale deletes a previous export so subscribers stop seeing events
// that no longer exist
func (e *Exporter) removeStale(user string) error {
	err := os.Remove(e.Path(user))
	if err == nil {
		e.logger.Info("removed stale calendar", "user", user, "path", e.Path(user))
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to remove stale calendar: %w", err)
}

// Start exports immediately, then on every tick of the schedule until ctx
// is cancelled. A run that overlaps the next tick causes that tick to be
// skipped.
func (e *Exporter) Start(ctx context.Context) error {
	loc, err := e.cfg.Location()
	if err != nil {
		return err
	}

	cl := cronLogger{e.logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(e.spec, func() {
		_ = e.RunOnce(ctx)
	}); err != nil {
		return err
	}

	if err := e.RunOnce(ctx); err != nil {
		e.logger.Warn("initial export had failures", "error", err)
	}

	e.logger.Info("refresh scheduled", "schedule", e.spec, "users", len(e.users), "dir", e.dir)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// cronLogger routes cron's own logging through charmbracelet/log
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
