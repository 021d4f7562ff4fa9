package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/callboard/internal/constants"
	"github.com/julianstephens/callboard/internal/logger"
	"github.com/julianstephens/callboard/internal/models"
)

func testProfile() models.Profile {
	p := models.Profile{
		Name:    "Jordan Avery",
		Email:   "jordan@example.com",
		Phone:   "555-0100",
		Website: "jordanavery.example",
		Bio:     "Chicago-based actor and singer.",
		Skills:  []string{"Tenor", "Stage combat", "Dialects"},
	}
	for i := 0; i < 60; i++ {
		p.Credits = append(p.Credits, models.Credit{Show: "Hamlet", Role: "Horatio", Company: "Globe Players", Year: "2023"})
	}
	p.CastingHistory = []models.Credit{{Show: "Cats", Role: "Rum Tum Tugger", Verified: true}}
	return p
}

func pngLogo(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func pageCount(pdf []byte) int {
	return bytes.Count(pdf, []byte("/Type /Page\n"))
}

func TestResume(t *testing.T) {
	r := NewPDFRenderer(PDFOptions{
		WatermarkMode: constants.WatermarkText,
		WatermarkText: "DRAFT",
		Branding:      "Made with callboard",
		Uncompressed:  true,
	}, nil, logger.Discard())

	var buf bytes.Buffer
	if err := r.Resume(context.Background(), &buf, testProfile()); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}

	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatal("output is not a PDF")
	}
	if pageCount(out) < 2 {
		t.Errorf("expected long credit list to paginate, got %d page(s)", pageCount(out))
	}
	for _, want := range []string{"Jordan Avery", "Casting History", "Made with callboard", "DRAFT"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("expected %q in PDF content", want)
		}
	}
}

func TestResume_RequiresName(t *testing.T) {
	r := NewPDFRenderer(PDFOptions{}, nil, logger.Discard())
	if err := r.Resume(context.Background(), &bytes.Buffer{}, models.Profile{}); !errors.Is(err, ErrIncompleteProfile) {
		t.Errorf("Resume() error = %v, want ErrIncompleteProfile", err)
	}
}

func TestResume_LogoWatermark(t *testing.T) {
	logo := pngLogo(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(logo)
	}))
	defer srv.Close()

	r := NewPDFRenderer(PDFOptions{
		WatermarkMode:    constants.WatermarkLogo,
		WatermarkLogo:    srv.URL + "/logo.png",
		WatermarkOpacity: 0.2,
		Uncompressed:     true,
	}, srv.Client(), logger.Discard())

	var buf bytes.Buffer
	if err := r.Resume(context.Background(), &buf, models.Profile{Name: "Jordan Avery"}); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("/Subtype /Image")) {
		t.Error("expected the logo to be embedded")
	}
}

func TestResume_LogoFailureIsSwallowed(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
		},
		{
			name: "not an image",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>nope</html>"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			r := NewPDFRenderer(PDFOptions{
				WatermarkMode: constants.WatermarkLogo,
				WatermarkLogo: srv.URL,
				Uncompressed:  true,
			}, srv.Client(), logger.Discard())

			var buf bytes.Buffer
			if err := r.Resume(context.Background(), &buf, models.Profile{Name: "Jordan Avery"}); err != nil {
				t.Fatalf("Resume() error = %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
				t.Error("expected a PDF without the logo")
			}
			if bytes.Contains(buf.Bytes(), []byte("/Subtype /Image")) {
				t.Error("did not expect an image")
			}
		})
	}
}

func TestCalendarPDF(t *testing.T) {
	r := NewPDFRenderer(PDFOptions{Uncompressed: true}, nil, logger.Discard())
	start := time.Date(2024, 6, 1, 19, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)

	events := []models.Event{
		{Title: "Hamlet Rehearsal", Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{
			Title:     "Blocking",
			Date:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			StartTime: &start,
			EndTime:   &end,
			Location:  "Globe Theatre",
			Agenda:    []models.AgendaItem{{Title: "Warmup", StartTime: "19:00", EndTime: "19:30"}},
		},
	}

	var buf bytes.Buffer
	if err := r.CalendarPDF(context.Background(), &buf, "Hamlet", events); err != nil {
		t.Fatalf("CalendarPDF() error = %v", err)
	}
	content := buf.String()
	for _, want := range []string{"Saturday, June 1, 2024", "19:00-22:00  Blocking", "Warmup", constants.DefaultBranding} {
		if !strings.Contains(content, want) {
			t.Errorf("expected %q in PDF content", want)
		}
	}

	if err := r.CalendarPDF(context.Background(), &bytes.Buffer{}, "Empty", nil); !errors.Is(err, ErrNoEvents) {
		t.Errorf("CalendarPDF(nil) error = %v, want ErrNoEvents", err)
	}
}
