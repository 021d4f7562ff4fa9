package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/callboard/internal/logger"
	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/scheduler"
	"github.com/julianstephens/callboard/internal/validation"
)

// Sources is what the builder needs from persistence
type Sources interface {
	SlotsForAudition(ctx context.Context, auditionID string) ([]models.Slot, error)
	RehearsalEventsForUser(ctx context.Context, userID string, role models.UserRole) ([]models.RehearsalEvent, error)
	OwnedAuditions(ctx context.Context, userID string) ([]models.Audition, error)
	ProductionTeamAuditions(ctx context.Context, userID string) ([]models.Audition, error)
	CastShows(ctx context.Context, userID string) ([]models.CastMembership, error)
	AssignedProductionEvents(ctx context.Context, userID string) ([]models.ProductionEvent, error)
	PersonalEvents(ctx context.Context, userID string) ([]models.PersonalEvent, error)
}

// Calendar is a user's assembled, deduplicated and sorted calendar
type Calendar struct {
	UserID      string                `json:"user_id"`
	GeneratedAt time.Time             `json:"generated_at"`
	Events      []models.Event        `json:"events"`
	Conflicts   []validation.Conflict `json:"conflicts"`
}

const defaultFetchLimit = 8

type Builder struct {
	sources   Sources
	generator *scheduler.Generator
	validator *validation.Validator
	logger    *log.Logger
	limit     int
	now       func() time.Time
}

func NewBuilder(sources Sources, generator *scheduler.Generator, l *log.Logger) *Builder {
	if generator == nil {
		generator = scheduler.NewGenerator(nil, l, 0)
	}
	if l == nil {
		l = logger.Default()
	}
	return &Builder{
		sources:   sources,
		generator: generator,
		validator: validation.New(),
		logger:    l,
		limit:     defaultFetchLimit,
		now:       time.Now,
	}
}

// fetched holds the raw records for one user
type fetched struct {
	owned      []models.Audition
	team       []models.Audition
	casts      []models.CastMembership
	assigned   []models.ProductionEvent
	personal   []models.PersonalEvent
	rehearsals map[models.UserRole][]models.RehearsalEvent
	slots      map[string][]models.Slot
}

// Build fetches every source for the user concurrently and assembles the
// calendar. Any fetch error cancels the others and fails the build.
func (b *Builder) Build(ctx context.Context, userID string) (*Calendar, error) {
	start := b.now()

	f, err := b.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}

	var events []models.Event
	events = append(events, b.generator.Generate(scheduler.Records{
		Auditions:  f.owned,
		Slots:      f.slots,
		Rehearsals: f.rehearsals[models.RoleOwner],
	}, models.RoleOwner)...)
	events = append(events, b.generator.Generate(scheduler.Records{
		Auditions:  f.team,
		Slots:      f.slots,
		Rehearsals: f.rehearsals[models.RoleProductionTeam],
	}, models.RoleProductionTeam)...)
	events = append(events, b.generator.Generate(scheduler.Records{
		Casts:            f.casts,
		Rehearsals:       f.rehearsals[models.RoleCast],
		ProductionEvents: f.assigned,
	}, models.RoleCast)...)
	events = append(events, b.generator.Generate(scheduler.Records{
		Personal: f.personal,
	}, models.RoleOwner)...)

	total := len(events)
	events = Deduplicate(events)
	SortEvents(events)

	result := b.validator.ValidateCalendar(events)

	b.logger.Debug("built calendar",
		"user", userID,
		"generated", total,
		"events", len(events),
		"conflicts", len(result.Conflicts),
		"took", time.Since(start),
	)

	return &Calendar{
		UserID:      userID,
		GeneratedAt: start,
		Events:      events,
		Conflicts:   result.Conflicts,
	}, nil
}

func (b *Builder) fetch(ctx context.Context, userID string) (*fetched, error) {
	f := &fetched{rehearsals: make(map[models.UserRole][]models.RehearsalEvent)}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.limit)

	g.Go(func() (err error) {
		f.owned, err = b.sources.OwnedAuditions(gctx, userID)
		return wrap("owned auditions", err)
	})
	g.Go(func() (err error) {
		f.team, err = b.sources.ProductionTeamAuditions(gctx, userID)
		return wrap("production team auditions", err)
	})
	g.Go(func() (err error) {
		f.casts, err = b.sources.CastShows(gctx, userID)
		return wrap("cast shows", err)
	})
	g.Go(func() (err error) {
		f.assigned, err = b.sources.AssignedProductionEvents(gctx, userID)
		return wrap("assigned production events", err)
	})
	g.Go(func() (err error) {
		f.personal, err = b.sources.PersonalEvents(gctx, userID)
		return wrap("personal events", err)
	})
	for _, role := range []models.UserRole{models.RoleOwner, models.RoleProductionTeam, models.RoleCast} {
		g.Go(func() error {
			events, err := b.sources.RehearsalEventsForUser(gctx, userID, role)
			if err != nil {
				return wrap(fmt.Sprintf("%s rehearsal events", role), err)
			}
			mu.Lock()
			f.rehearsals[role] = events
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Slots depend on which auditions came back
	ids := uniqueAuditionIDs(f.owned, f.team)
	results := make([][]models.Slot, len(ids))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(b.limit)
	for i, id := range ids {
		g.Go(func() (err error) {
			results[i], err = b.sources.SlotsForAudition(gctx, id)
			return wrap("slots for audition "+id, err)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	f.slots = make(map[string][]models.Slot, len(ids))
	for i, id := range ids {
		f.slots[id] = results[i]
	}
	return f, nil
}

func uniqueAuditionIDs(lists ...[]models.Audition) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, list := range lists {
		for _, a := range list {
			if _, ok := seen[a.ID]; ok {
				continue
			}
			seen[a.ID] = struct{}{}
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to fetch %s: %w", what, err)
}
