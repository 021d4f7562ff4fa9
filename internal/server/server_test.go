package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/callboard/internal/calendar"
	"github.com/julianstephens/callboard/internal/config"
	"github.com/julianstephens/callboard/internal/export"
	"github.com/julianstephens/callboard/internal/logger"
	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/scheduler"
	"github.com/julianstephens/callboard/internal/storage/sqlite"
)

type fixture struct {
	server   *Server
	store    *sqlite.Store
	audition models.Audition
	slots    []models.Slot
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	ctx := context.Background()

	store := sqlite.NewStore(filepath.Join(t.TempDir(), "callboard.db"))
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })

	a, err := store.AddAudition(ctx, models.Audition{
		OwnerID:          "director",
		Show:             &models.Show{Title: "Hamlet", Author: "Shakespeare"},
		Location:         "Globe Theatre, Springfield, IL 62701",
		AuditionDate:     "2030-05-01",
		RehearsalDates:   "2030-06-01,2030-06-02",
		PerformanceDates: "2030-07-01",
	})
	require.NoError(t, err)
	_, err = store.AddAudition(ctx, models.Audition{
		OwnerID:  "someone-else",
		Title:    "Showcase",
		Location: "Playhouse, Portland, OR",
	})
	require.NoError(t, err)

	start := time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)
	var slots []models.Slot
	for i := 0; i < 2; i++ {
		slot, err := store.AddSlot(ctx, models.Slot{
			AuditionID: a.ID,
			StartTime:  start.Add(time.Duration(i) * 30 * time.Minute),
			EndTime:    start.Add(time.Duration(i+1) * 30 * time.Minute),
		})
		require.NoError(t, err)
		slots = append(slots, slot)
	}
	_, err = store.SignUp(ctx, slots[0].ID, "performer")
	require.NoError(t, err)

	require.NoError(t, store.SaveProfile(ctx, models.Profile{UserID: "performer", Name: "Ada Lovelace"}))

	if cfg == nil {
		cfg = config.DefaultConfig()
		cfg.Timezone = "UTC"
	}
	l := logger.Discard()
	builder := calendar.NewBuilder(store, scheduler.NewGenerator(time.UTC, l, 0), l)
	pdf := export.NewPDFRenderer(export.PDFOptions{Branding: "test"}, nil, l)

	srv := New(cfg, store, builder, pdf, l)
	srv.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	return &fixture{server: srv, store: store, audition: a, slots: slots}
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.get(t, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestCalendarJSON(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.get(t, "/users/director/calendar")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		UserID string         `json:"user_id"`
		Events []models.Event `json:"events"`
		Days   []struct {
			Events []models.Event `json:"events"`
		} `json:"days"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "director", body.UserID)

	counts := map[models.EventType]int{}
	for _, e := range body.Events {
		counts[e.Type]++
		assert.Equal(t, models.RoleOwner, e.UserRole)
	}
	assert.Equal(t, 2, counts[models.EventTypeRehearsal])
	assert.Equal(t, 1, counts[models.EventTypePerformance])
	assert.Equal(t, 2, counts[models.EventTypeAuditionSlot])
	// slots share one day, rehearsals two, the performance one
	assert.Len(t, body.Days, 4)
}

func TestCalendarWindow(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get(t, "/users/director/calendar?from=2030-06-01&to=2030-06-02")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Events []models.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Events, 1)
	assert.Equal(t, models.EventTypeRehearsal, body.Events[0].Type)

	rec = f.get(t, "/users/director/calendar?from=June")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalendarICS(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get(t, "/users/director/calendar.ics?name=Hamlet")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "hamlet_calendar.ics")
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, rec.Body.String(), "X-WR-CALNAME:Hamlet")
	assert.Contains(t, rec.Body.String(), "DTEND;VALUE=DATE:20300602")

	rec = f.get(t, "/users/nobody/calendar.ics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalendarPDF(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.get(t, "/users/director/calendar.pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestCalendarPDFEmpty(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.get(t, "/users/nobody/calendar.pdf")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "no events to export")
}

func TestResumePDFBlankName(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.store.SaveProfile(context.Background(), models.Profile{UserID: "blank", Name: "   "}))

	rec := f.get(t, "/users/blank/resume.pdf")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "profile name cannot be empty")
}

func TestResumePDF(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get(t, "/users/performer/resume.pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "ada_lovelace_resume.pdf")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	rec = f.get(t, "/users/nobody/resume.pdf")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNextSlot(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get(t, "/auditions/"+f.audition.ID+"/slots/next")
	require.Equal(t, http.StatusOK, rec.Code)

	var body nextSlotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	// the first slot is taken
	assert.Equal(t, f.slots[1].ID, body.Slot.ID)
	assert.Equal(t, 1, body.Available)
	assert.Equal(t, 1, body.Remaining)

	rec = f.get(t, "/auditions/missing/slots/next")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNextSlotNoneLeft(t *testing.T) {
	f := newFixture(t, nil)
	f.server.now = func() time.Time { return time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC) }

	rec := f.get(t, "/auditions/"+f.audition.ID+"/slots/next")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFacets(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get(t, "/locations/facets")
	require.Equal(t, http.StatusOK, rec.Code)
	var body facetsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"IL", "OR"}, body.States)
	assert.Equal(t, []string{"Portland", "Springfield"}, body.Cities)
	assert.Empty(t, body.Auditions)

	rec = f.get(t, "/locations/facets?state=IL")
	require.Equal(t, http.StatusOK, rec.Code)
	body = facetsResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Auditions, 1)
	assert.Equal(t, f.audition.ID, body.Auditions[0].ID)
}

func TestRateLimit(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.RateLimit = 0.001
	f := newFixture(t, cfg)

	var limited bool
	for i := 0; i < 50; i++ {
		if f.get(t, "/locations/facets").Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "expected the limiter to reject a burst")

	// health is never limited
	assert.Equal(t, http.StatusOK, f.get(t, "/health").Code)
}
