package export

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/julianstephens/callboard/internal/constants"
	"github.com/julianstephens/callboard/internal/models"
)

// ErrNoEvents aborts an export that would produce an empty calendar
var ErrNoEvents = errors.New("no events to export")

// ICSOptions tunes ToICS. The zero value is ready to use.
type ICSOptions struct {
	// Now stamps DTSTAMP; defaults to time.Now
	Now func() time.Time
	// NewUID generates a UID per VEVENT; defaults to a random UUID
	NewUID func() string
	// DefaultDuration closes timed events that have no end
	DefaultDuration time.Duration
}

func (o ICSOptions) withDefaults() ICSOptions {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewUID == nil {
		o.NewUID = uuid.NewString
	}
	if o.DefaultDuration <= 0 {
		o.DefaultDuration = constants.DefaultTimedLength
	}
	return o
}

// ToICS renders events as an RFC 5545 calendar. UIDs are fresh on every
// export, so re-importing a calendar duplicates rather than updates events.
func ToICS(events []models.Event, calendarName string, opts ICSOptions) (string, error) {
	if len(events) == 0 {
		return "", ErrNoEvents
	}
	opts = opts.withDefaults()
	if strings.TrimSpace(calendarName) == "" {
		calendarName = constants.DefaultCalendarName
	}

	cal := ical.NewCalendar()
	cal.SetProductId(constants.ICSProductID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(calendarName)

	stamp := opts.Now()
	for _, e := range events {
		ev := cal.AddEvent(opts.NewUID())
		ev.SetDtStampTime(stamp)

		if e.AllDay() {
			// DTEND is exclusive for all-day events
			ev.SetAllDayStartAt(e.Date)
			ev.SetAllDayEndAt(e.Date.AddDate(0, 0, 1))
		} else {
			ev.SetStartAt(*e.StartTime)
			ev.SetEndAt(e.End(opts.DefaultDuration))
		}

		ev.SetSummary(e.Title)
		if desc := describe(e); desc != "" {
			ev.SetDescription(desc)
		}
		if e.Location != "" {
			ev.SetLocation(e.Location)
		}
		ev.SetStatus(ical.ObjectStatusConfirmed)
		ev.SetSequence(0)
	}

	// RFC 5545 lines end in CRLF regardless of platform
	return cal.Serialize(ical.WithNewLineWindows), nil
}

// WriteICS is ToICS straight to a writer
func WriteICS(w io.Writer, events []models.Event, calendarName string, opts ICSOptions) error {
	body, err := ToICS(events, calendarName, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, body)
	return err
}

// describe folds the show and agenda into the event description
func describe(e models.Event) string {
	var parts []string
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	if e.Show != nil && e.Show.Title != "" && !strings.Contains(e.Title, e.Show.Title) {
		show := e.Show.Title
		if e.Show.Author != "" {
			show += " by " + e.Show.Author
		}
		parts = append(parts, show)
	}
	if len(e.Agenda) > 0 {
		lines := []string{"Agenda:"}
		for _, item := range e.Agenda {
			lines = append(lines, fmt.Sprintf("%s-%s %s", item.StartTime, item.EndTime, item.Title))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]+`)

// Filename turns a calendar title into "<title>_calendar.ics"
func Filename(title string) string {
	return sanitize(title) + constants.ICSFileSuffix
}

// PDFFilename turns a title into "<title>_calendar.pdf"
func PDFFilename(title string) string {
	return sanitize(title) + constants.PDFFileSuffix
}

// ResumeFilename turns a performer's name into "<name>_resume.pdf"
func ResumeFilename(name string) string {
	return sanitize(name) + constants.ResumeFileSuffix
}

func sanitize(title string) string {
	s := unsafeFilename.ReplaceAllString(strings.ToLower(title), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return constants.AppName
	}
	return s
}
