// Package server exposes calendars, slot lookups and location facets over
// HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/julianstephens/callboard/internal/calendar"
	"github.com/julianstephens/callboard/internal/config"
	"github.com/julianstephens/callboard/internal/constants"
	"github.com/julianstephens/callboard/internal/export"
	"github.com/julianstephens/callboard/internal/location"
	"github.com/julianstephens/callboard/internal/logger"
	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/slots"
	"github.com/julianstephens/callboard/internal/storage"
	"github.com/julianstephens/callboard/internal/utils"
)

// Store is the read side the server needs
type Store interface {
	calendar.Sources
	ListAuditions(ctx context.Context) ([]models.Audition, error)
	GetAudition(ctx context.Context, id string) (models.Audition, error)
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
}

// Server provides the HTTP export surface.
type Server struct {
	cfg     *config.Config
	store   Store
	builder *calendar.Builder
	pdf     *export.PDFRenderer
	logger  *log.Logger
	limiter *rate.Limiter
	router  chi.Router
	now     func() time.Time
}

func New(cfg *config.Config, store Store, builder *calendar.Builder, pdf *export.PDFRenderer, l *log.Logger) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if l == nil {
		l = logger.Default()
	}
	s := &Server{
		cfg:     cfg,
		store:   store,
		builder: builder,
		pdf:     pdf,
		logger:  l,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), constants.DefaultRateBurst),
		now:     time.Now,
	}
	s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/calendar", s.handleCalendar)
			r.Get("/calendar.ics", s.handleCalendarICS)
			r.Get("/calendar.pdf", s.handleCalendarPDF)
			r.Get("/resume.pdf", s.handleResumePDF)
		})
		r.Get("/auditions/{auditionID}/slots/next", s.handleNextSlot)
		r.Get("/locations/facets", s.handleFacets)
	})

	s.router = r
}

// Run serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  constants.ServerReadTimeout,
		WriteTimeout: constants.ServerWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"took", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

var maxTime = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

type calendarResponse struct {
	*calendar.Calendar
	Days []calendar.Day `json:"days"`
}

// handleCalendar returns the merged calendar. Optional from/to query
// parameters (YYYY-MM-DD, to exclusive) narrow the window.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	cal, ok := s.build(w, r)
	if !ok {
		return
	}

	from, to, err := s.window(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !from.IsZero() || !to.IsZero() {
		if to.IsZero() {
			to = maxTime
		}
		cal.Events = calendar.Between(cal.Events, from, to)
	}

	writeJSON(w, http.StatusOK, calendarResponse{
		Calendar: cal,
		Days:     calendar.GroupByDay(cal.Events),
	})
}

func (s *Server) handleCalendarICS(w http.ResponseWriter, r *http.Request) {
	cal, ok := s.build(w, r)
	if !ok {
		return
	}

	name := s.calendarName(r)
	body, err := export.ToICS(cal.Events, name, export.ICSOptions{})
	if err != nil {
		if errors.Is(err, export.ErrNoEvents) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("ICS export failed", "user", cal.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export calendar")
		return
	}

	w.Header().Set("Content-Type", constants.ICSMimeType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(export.Filename(name)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleCalendarPDF(w http.ResponseWriter, r *http.Request) {
	cal, ok := s.build(w, r)
	if !ok {
		return
	}

	name := s.calendarName(r)
	var buf bytes.Buffer
	if err := s.pdf.CalendarPDF(r.Context(), &buf, name, cal.Events); err != nil {
		s.exportError(w, "calendar", cal.UserID, err)
		return
	}
	writePDF(w, export.PDFFilename(name), buf.Bytes())
}

func (s *Server) handleResumePDF(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	profile, err := s.store.GetProfile(r.Context(), userID)
	if err != nil {
		s.storeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := s.pdf.Resume(r.Context(), &buf, profile); err != nil {
		s.exportError(w, "resume", userID, err)
		return
	}
	writePDF(w, export.ResumeFilename(profile.Name), buf.Bytes())
}

// exportError maps renderer failures onto a JSON error response
func (s *Server) exportError(w http.ResponseWriter, kind, userID string, err error) {
	switch {
	case errors.Is(err, export.ErrNoEvents):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, export.ErrIncompleteProfile):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("PDF export failed", "kind", kind, "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export "+kind)
	}
}

func writePDF(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", constants.PDFMimeType)
	w.Header().Set("Content-Disposition", attachment(filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type nextSlotResponse struct {
	Slot      models.Slot  `json:"slot"`
	Status    slots.Status `json:"status"`
	Remaining int          `json:"remaining"`
	Available int          `json:"available"`
}

func (s *Server) handleNextSlot(w http.ResponseWriter, r *http.Request) {
	auditionID := chi.URLParam(r, "auditionID")
	if _, err := s.store.GetAudition(r.Context(), auditionID); err != nil {
		s.storeError(w, err)
		return
	}

	list, err := s.store.SlotsForAudition(r.Context(), auditionID)
	if err != nil {
		s.storeError(w, err)
		return
	}

	now := s.now()
	slot, ok := slots.SelectNextAvailable(list, now)
	if !ok {
		writeError(w, http.StatusNotFound, "no available slots")
		return
	}
	writeJSON(w, http.StatusOK, nextSlotResponse{
		Slot:      slot,
		Status:    slots.StatusOf(slot),
		Remaining: slots.Remaining(slot),
		Available: slots.CountAvailable(list, now),
	})
}

type facetsResponse struct {
	location.Facets
	Auditions []models.Audition `json:"auditions,omitempty"`
}

// handleFacets lists the states and cities auditions are held in. With
// ?state=XX it also returns the auditions in that state.
func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	auditions, err := s.store.ListAuditions(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}

	addrs := make([]string, 0, len(auditions))
	for _, a := range auditions {
		addrs = append(addrs, a.Location)
	}
	resp := facetsResponse{Facets: location.CollectFacets(addrs)}

	if state := strings.TrimSpace(r.URL.Query().Get("state")); state != "" {
		for _, a := range auditions {
			if location.MatchesState(a.Location, state) {
				resp.Auditions = append(resp.Auditions, a)
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) build(w http.ResponseWriter, r *http.Request) (*calendar.Calendar, bool) {
	userID := chi.URLParam(r, "userID")
	cal, err := s.builder.Build(r.Context(), userID)
	if err != nil {
		s.logger.Error("calendar build failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build calendar")
		return nil, false
	}
	return cal, true
}

func (s *Server) window(r *http.Request) (time.Time, time.Time, error) {
	loc, err := s.cfg.Location()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = utils.ParseDateInLocation(v, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q", v)
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = utils.ParseDateInLocation(v, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q", v)
		}
	}
	return from, to, nil
}

func (s *Server) calendarName(r *http.Request) string {
	if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
		return name
	}
	return s.cfg.CalendarName
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error("storage error", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func attachment(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
