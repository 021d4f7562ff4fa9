package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/callboard/internal/backup"
	"github.com/julianstephens/callboard/internal/calendar"
	"github.com/julianstephens/callboard/internal/config"
	"github.com/julianstephens/callboard/internal/constants"
	"github.com/julianstephens/callboard/internal/export"
	"github.com/julianstephens/callboard/internal/logger"
	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/scheduler"
	"github.com/julianstephens/callboard/internal/storage"
	"github.com/julianstephens/callboard/internal/storage/sqlite"
	"github.com/julianstephens/callboard/internal/utils"
)

type Context struct {
	Store      storage.Provider
	Config     *config.Config
	ConfigPath string
	Logger     *log.Logger
	// Stdout receives command output; nil means os.Stdout
	Stdout io.Writer
	// Stdin answers confirmation prompts; nil means os.Stdin
	Stdin io.Reader
}

func (c *Context) Out() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

func (c *Context) In() io.Reader {
	if c.Stdin == nil {
		return os.Stdin
	}
	return c.Stdin
}

func (c *Context) Log() *log.Logger {
	if c.Logger == nil {
		return logger.Default()
	}
	return c.Logger
}

func (c *Context) Cfg() *config.Config {
	if c.Config == nil {
		c.Config = config.DefaultConfig()
	}
	return c.Config
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors.
// Only SQLite files are backed up.
func (c *Context) PerformAutomaticBackup() {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		c.Log().Warn("Automatic backup failed", "error", err)
	}
}

// Location resolves the configured timezone, falling back to the system zone
func (c *Context) Location() *time.Location {
	loc, err := c.Cfg().Location()
	if err != nil {
		c.Log().Warn("Invalid timezone, using local time", "timezone", c.Cfg().Timezone, "error", err)
		return time.Local
	}
	return loc
}

func (c *Context) Generator() *scheduler.Generator {
	return scheduler.NewGenerator(c.Location(), c.Log(), c.Cfg().HorizonDays)
}

func (c *Context) Builder() *calendar.Builder {
	return calendar.NewBuilder(c.Store, c.Generator(), c.Log())
}

func (c *Context) PDFRenderer() *export.PDFRenderer {
	p := c.Cfg().PDF
	return export.NewPDFRenderer(export.PDFOptions{
		Branding:         p.Branding,
		WatermarkMode:    p.WatermarkMode,
		WatermarkText:    p.WatermarkText,
		WatermarkLogo:    p.WatermarkLogoURL,
		WatermarkOpacity: p.WatermarkOpacity,
	}, nil, c.Log())
}

// ParseDateTime combines a YYYY-MM-DD date and an HH:MM clock in the
// configured timezone.
func (c *Context) ParseDateTime(date, clock string) (time.Time, error) {
	return utils.CombineDateAndTime(date, clock, c.Location())
}

// ValidateDate checks a YYYY-MM-DD value
func ValidateDate(s string) error {
	if _, err := time.Parse(constants.DateFormat, strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return nil
}

// ValidateDates checks a comma-separated list of YYYY-MM-DD values and
// returns it normalized.
func ValidateDates(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if err := ValidateDate(part); err != nil {
			return "", err
		}
		out = append(out, part)
	}
	return strings.Join(out, ","), nil
}

// FormatEventTime renders an event's clock range, or "all day"
func FormatEventTime(e models.Event) string {
	if e.AllDay() {
		return "all day"
	}
	start := e.StartTime.Format(constants.TimeFormat)
	if e.EndTime == nil {
		return start
	}
	return start + "-" + e.EndTime.Format(constants.TimeFormat)
}

// FormatSlotRange renders a slot window in loc
func FormatSlotRange(s models.Slot, loc *time.Location) string {
	start := s.StartTime.In(loc)
	return fmt.Sprintf("%s %s-%s",
		start.Format(constants.DateFormat),
		start.Format(constants.TimeFormat),
		s.EndTime.In(loc).Format(constants.TimeFormat))
}
