package calendars

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/callboard/internal/cli"
	"github.com/julianstephens/callboard/internal/config"
	"github.com/julianstephens/callboard/internal/export"
	"github.com/julianstephens/callboard/internal/logger"
	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "callboard.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	bg := context.Background()
	a, err := store.AddAudition(bg, models.Audition{
		OwnerID:          "director",
		Show:             &models.Show{Title: "Hamlet", Author: "Shakespeare"},
		Location:         "Globe Theatre, Springfield, IL 62701",
		AuditionDate:     "2030-05-01",
		PerformanceDates: "2030-07-01",
	})
	if err != nil {
		t.Fatalf("failed to add audition: %v", err)
	}
	if err := store.AddCastMember(bg, models.CastMembership{UserID: "performer", AuditionID: a.ID, RoleName: "Ophelia"}); err != nil {
		t.Fatalf("failed to add cast member: %v", err)
	}
	if _, err := store.AddRehearsalEvent(bg, models.RehearsalEvent{
		AuditionID: a.ID,
		Title:      "Blocking",
		Date:       "2030-06-03",
		StartTime:  "19:00",
		EndTime:    "22:00",
	}); err != nil {
		t.Fatalf("failed to add rehearsal: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	out := &bytes.Buffer{}
	return &cli.Context{Store: store, Config: cfg, Logger: logger.Discard(), Stdout: out}, out
}

func TestCalendarShowCmd(t *testing.T) {
	ctx, out := setupTestDB(t)

	if err := (&CalendarShowCmd{User: "performer", From: "2030-06-01", Days: 60}).Run(ctx); err != nil {
		t.Fatalf("calendar show failed: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Cast: Ophelia in Hamlet") {
		t.Errorf("expected the cast event, got:\n%s", got)
	}
	if !strings.Contains(got, "19:00-22:00  Blocking") {
		t.Errorf("expected the rehearsal, got:\n%s", got)
	}
	if strings.Contains(got, "2030-05-01") || strings.Contains(got, "May 1, 2030") {
		t.Errorf("expected the audition day outside the window, got:\n%s", got)
	}
}

func TestCalendarShowCmd_Empty(t *testing.T) {
	ctx, out := setupTestDB(t)

	if err := (&CalendarShowCmd{User: "nobody"}).Run(ctx); err != nil {
		t.Fatalf("calendar show failed: %v", err)
	}
	if !strings.Contains(out.String(), "Nothing scheduled.") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestCalendarExportCmd(t *testing.T) {
	ctx, _ := setupTestDB(t)
	dir := t.TempDir()

	t.Run("ics", func(t *testing.T) {
		path := filepath.Join(dir, "performer.ics")
		if err := (&CalendarExportCmd{User: "performer", Format: "ics", Output: path, Name: "Ophelia"}).Run(ctx); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		body := string(data)
		if !strings.HasPrefix(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "X-WR-CALNAME:Ophelia") {
			t.Errorf("unexpected ics body:\n%s", body)
		}
	})

	t.Run("pdf", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "performer.pdf")
		if err := (&CalendarExportCmd{User: "performer", Format: "pdf", Output: path}).Run(ctx); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		if !bytes.HasPrefix(data, []byte("%PDF-")) {
			t.Errorf("expected a PDF header")
		}
	})

	t.Run("no events", func(t *testing.T) {
		path := filepath.Join(dir, "nobody.ics")
		err := (&CalendarExportCmd{User: "nobody", Format: "ics", Output: path}).Run(ctx)
		if !errors.Is(err, export.ErrNoEvents) {
			t.Errorf("expected ErrNoEvents, got %v", err)
		}
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			t.Errorf("expected no file for an empty calendar")
		}
	})
}

func TestCalendarConflictsCmd(t *testing.T) {
	ctx, out := setupTestDB(t)

	if err := (&CalendarConflictsCmd{User: "director"}).Run(ctx); err != nil {
		t.Fatalf("conflicts failed: %v", err)
	}
	if !strings.Contains(out.String(), "No conflicts detected.") {
		t.Errorf("unexpected output: %q", out.String())
	}

	if err := (&PersonalAddCmd{User: "director", Title: "Dentist", Date: "2030-06-03", Start: "20:00", End: "21:00"}).Run(ctx); err != nil {
		t.Fatalf("personal add failed: %v", err)
	}

	out.Reset()
	if err := (&CalendarConflictsCmd{User: "director"}).Run(ctx); err != nil {
		t.Fatalf("conflicts failed: %v", err)
	}
	if !strings.Contains(out.String(), "Conflicts detected:") {
		t.Errorf("expected a conflict report, got %q", out.String())
	}
}

func TestPersonalAddCmd_Validation(t *testing.T) {
	ctx, _ := setupTestDB(t)

	if err := (&PersonalAddCmd{User: "performer", Title: "Day job", Date: "2030-06-04"}).Run(ctx); err == nil {
		t.Error("expected an error without times")
	}
	if err := (&PersonalAddCmd{User: "performer", Title: "Vacation", Date: "2030-06-04", AllDay: true}).Run(ctx); err != nil {
		t.Errorf("all-day event failed: %v", err)
	}

	events, err := ctx.Store.PersonalEvents(context.Background(), "performer")
	if err != nil {
		t.Fatalf("failed to list personal events: %v", err)
	}
	if len(events) != 1 || !events[0].AllDay {
		t.Errorf("expected one all-day event, got %+v", events)
	}
}

const importICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:shift-1@example.com\r\n" +
	"DTSTAMP:20300101T000000Z\r\n" +
	"DTSTART:20300605T170000Z\r\n" +
	"DTEND:20300605T210000Z\r\n" +
	"SUMMARY:Shift\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:trip-1@example.com\r\n" +
	"DTSTAMP:20300101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20300610\r\n" +
	"DTEND;VALUE=DATE:20300612\r\n" +
	"SUMMARY:Trip\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestPersonalImportCmd(t *testing.T) {
	ctx, out := setupTestDB(t)

	path := filepath.Join(t.TempDir(), "work.ics")
	if err := os.WriteFile(path, []byte(importICS), 0o600); err != nil {
		t.Fatalf("failed to write ics: %v", err)
	}

	cmd := &PersonalImportCmd{File: path, User: "performer"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out.String(), "✓ Imported 2 event(s)") {
		t.Errorf("unexpected output: %q", out.String())
	}

	out.Reset()
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("re-import failed: %v", err)
	}
	if !strings.Contains(out.String(), "Imported 0 event(s), skipped 2 already imported") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestProfileAndResume(t *testing.T) {
	ctx, out := setupTestDB(t)

	set := &ProfileSetCmd{
		User:   "performer",
		Name:   "Ada Lovelace",
		Email:  "ada@example.com",
		Skills: "singing, stage combat",
		Credit: []string{"Our Town|Emily|Community Players|2028"},
	}
	if err := set.Run(ctx); err != nil {
		t.Fatalf("profile set failed: %v", err)
	}

	// A second set keeps fields that were not passed
	if err := (&ProfileSetCmd{User: "performer", Bio: "Bay Area actor."}).Run(ctx); err != nil {
		t.Fatalf("profile update failed: %v", err)
	}

	out.Reset()
	if err := (&ProfileShowCmd{User: "performer"}).Run(ctx); err != nil {
		t.Fatalf("profile show failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Ada Lovelace", "ada@example.com", "Bay Area actor.", "singing, stage combat", "Hamlet - Ophelia (2030) ✓", "Our Town - Emily (2028)"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in:\n%s", want, got)
		}
	}

	path := filepath.Join(t.TempDir(), "resume.pdf")
	if err := (&ResumeExportCmd{User: "performer", Output: path}).Run(ctx); err != nil {
		t.Fatalf("resume export failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read resume: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("expected a PDF header")
	}
}

func TestParseCredit(t *testing.T) {
	tests := []struct {
		raw     string
		want    models.Credit
		wantErr bool
	}{
		{raw: "Our Town|Emily", want: models.Credit{Show: "Our Town", Role: "Emily"}},
		{raw: " Cats | Grizabella | Tour | 2029 ", want: models.Credit{Show: "Cats", Role: "Grizabella", Company: "Tour", Year: "2029"}},
		{raw: "Just a show", wantErr: true},
		{raw: "|Emily", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseCredit(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCredit(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseCredit(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLocationParseCmd(t *testing.T) {
	ctx, out := setupTestDB(t)

	if err := (&LocationParseCmd{Addresses: []string{"Playhouse, Portland, OR", "somewhere"}}).Run(ctx); err != nil {
		t.Fatalf("location parse failed: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "city=Portland state=OR country=US") || !strings.Contains(got, "unrecognized") {
		t.Errorf("unexpected output:\n%s", got)
	}

	out.Reset()
	if err := (&LocationParseCmd{}).Run(ctx); err != nil {
		t.Fatalf("location parse failed: %v", err)
	}
	if !strings.Contains(out.String(), "States: IL") || !strings.Contains(out.String(), "Cities: Springfield") {
		t.Errorf("expected facets from stored auditions, got:\n%s", out.String())
	}
}
