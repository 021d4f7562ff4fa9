package calendar

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/callboard/internal/logger"
	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/scheduler"
)

type fakeSources struct {
	owned      []models.Audition
	team       []models.Audition
	casts      []models.CastMembership
	assigned   []models.ProductionEvent
	personal   []models.PersonalEvent
	rehearsals map[models.UserRole][]models.RehearsalEvent
	slots      map[string][]models.Slot

	slotErr   error
	slotCalls atomic.Int32
}

func (f *fakeSources) SlotsForAudition(_ context.Context, auditionID string) ([]models.Slot, error) {
	f.slotCalls.Add(1)
	if f.slotErr != nil {
		return nil, f.slotErr
	}
	return f.slots[auditionID], nil
}

func (f *fakeSources) RehearsalEventsForUser(_ context.Context, _ string, role models.UserRole) ([]models.RehearsalEvent, error) {
	return f.rehearsals[role], nil
}

func (f *fakeSources) OwnedAuditions(context.Context, string) ([]models.Audition, error) {
	return f.owned, nil
}

func (f *fakeSources) ProductionTeamAuditions(context.Context, string) ([]models.Audition, error) {
	return f.team, nil
}

func (f *fakeSources) CastShows(context.Context, string) ([]models.CastMembership, error) {
	return f.casts, nil
}

func (f *fakeSources) AssignedProductionEvents(context.Context, string) ([]models.ProductionEvent, error) {
	return f.assigned, nil
}

func (f *fakeSources) PersonalEvents(context.Context, string) ([]models.PersonalEvent, error) {
	return f.personal, nil
}

func newTestBuilder(src Sources) *Builder {
	gen := scheduler.NewGenerator(time.UTC, logger.Discard(), 30)
	return NewBuilder(src, gen, logger.Discard())
}

func TestBuild_DeduplicatesAcrossRoles(t *testing.T) {
	show := &models.Show{ID: "show1", Title: "Hamlet"}
	audition := models.Audition{
		ID:               "aud1",
		OwnerID:          "u1",
		Show:             show,
		RehearsalDates:   "2024-06-01,2024-06-02",
		PerformanceDates: "2024-07-01",
	}
	slotStart := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	blocking := models.RehearsalEvent{ID: "E1", AuditionID: "aud1", Title: "Blocking", Date: "2024-06-03", StartTime: "19:00", EndTime: "22:00"}

	src := &fakeSources{
		owned: []models.Audition{audition},
		// The owner also sits on the production team and in the cast
		team:  []models.Audition{audition},
		casts: []models.CastMembership{{UserID: "u1", AuditionID: "aud1", Audition: &audition, RoleName: "Horatio"}},
		rehearsals: map[models.UserRole][]models.RehearsalEvent{
			models.RoleOwner:          {blocking},
			models.RoleProductionTeam: {blocking},
			models.RoleCast:           {blocking},
		},
		slots: map[string][]models.Slot{
			"aud1": {{ID: "S1", AuditionID: "aud1", StartTime: slotStart, EndTime: slotStart.Add(15 * time.Minute)}},
		},
		assigned: []models.ProductionEvent{{ID: "P1", AuditionID: "aud1", Title: "Photo call", Date: "2024-06-20", StartTime: "18:00"}},
		personal: []models.PersonalEvent{{ID: "pers1", UserID: "u1", Title: "Day job", Start: time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC), End: time.Date(2024, 6, 3, 20, 0, 0, 0, time.UTC)}},
	}

	cal, err := newTestBuilder(src).Build(context.Background(), "u1")
	require.NoError(t, err)

	counts := map[models.EventType]int{}
	for _, e := range cal.Events {
		counts[e.Type]++
	}
	assert.Equal(t, 2, counts[models.EventTypeRehearsal])
	assert.Equal(t, 1, counts[models.EventTypePerformance])
	assert.Equal(t, 1, counts[models.EventTypeAuditionSlot])
	assert.Equal(t, 1, counts[models.EventTypeRehearsalEvent])
	assert.Equal(t, 1, counts[models.EventTypeProductionEvent])
	assert.Equal(t, 1, counts[models.EventTypeCast])
	assert.Equal(t, 1, counts[models.EventTypePersonal])

	// Owner events come first, so the surviving copy carries the owner role
	for _, e := range cal.Events {
		if e.EventID == "E1" {
			assert.Equal(t, models.RoleOwner, e.UserRole)
		}
	}

	// Slots are fetched once per distinct audition
	assert.Equal(t, int32(1), src.slotCalls.Load())

	for i := 1; i < len(cal.Events); i++ {
		assert.False(t, cal.Events[i].Start().Before(cal.Events[i-1].Start()), "events not sorted at %d", i)
	}

	require.Len(t, cal.Conflicts, 1)
	assert.ElementsMatch(t, []string{"Day job", "Blocking"}, cal.Conflicts[0].Items)
}

func TestBuild_FetchErrorFailsBuild(t *testing.T) {
	boom := errors.New("connection reset")
	src := &fakeSources{
		owned:   []models.Audition{{ID: "aud1", Title: "Cats"}},
		slotErr: boom,
	}

	cal, err := newTestBuilder(src).Build(context.Background(), "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "slots for audition aud1")
	assert.Nil(t, cal)
}

func TestBuild_EmptyUser(t *testing.T) {
	cal, err := newTestBuilder(&fakeSources{}).Build(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, cal.Events)
	assert.Empty(t, cal.Conflicts)
	assert.Equal(t, "nobody", cal.UserID)
}
