package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/storage"
)

// TestStore_Integration runs against POSTGRES_TEST_URL, e.g.
// postgres://callboard_user@localhost:5432/callboard_test?sslmode=disable
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	store := New(connStr)
	if err := store.Init(); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	owner := "owner-" + uuid.NewString()

	a, err := store.AddAudition(ctx, models.Audition{
		OwnerID:          owner,
		Show:             &models.Show{Title: "Hamlet", Author: "Shakespeare"},
		PerformanceDates: "2024-07-01",
	})
	if err != nil {
		t.Fatalf("AddAudition() error = %v", err)
	}

	t.Run("Auditions", func(t *testing.T) {
		owned, err := store.OwnedAuditions(ctx, owner)
		if err != nil {
			t.Fatalf("OwnedAuditions() error = %v", err)
		}
		if len(owned) != 1 || owned[0].Show == nil || owned[0].Show.Title != "Hamlet" {
			t.Errorf("unexpected auditions: %+v", owned)
		}
	})

	t.Run("SignUp", func(t *testing.T) {
		start := time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC)
		slot, err := store.AddSlot(ctx, models.Slot{AuditionID: a.ID, StartTime: start, EndTime: start.Add(15 * time.Minute)})
		if err != nil {
			t.Fatalf("AddSlot() error = %v", err)
		}
		if _, err := store.SignUp(ctx, slot.ID, "performer-1"); err != nil {
			t.Fatalf("SignUp() error = %v", err)
		}
		if _, err := store.SignUp(ctx, slot.ID, "performer-2"); !errors.Is(err, storage.ErrSlotFull) {
			t.Errorf("second SignUp() error = %v, want ErrSlotFull", err)
		}
	})

	t.Run("Rehearsals", func(t *testing.T) {
		_, err := store.AddRehearsalEvent(ctx, models.RehearsalEvent{
			AuditionID: a.ID,
			Title:      "Blocking",
			Date:       "2024-06-01",
			StartTime:  "19:00",
			EndTime:    "22:00",
			AgendaItems: []models.AgendaItem{
				{Title: "Warmup", StartTime: "19:00", EndTime: "19:30"},
			},
		})
		if err != nil {
			t.Fatalf("AddRehearsalEvent() error = %v", err)
		}

		events, err := store.RehearsalEventsForUser(ctx, owner, models.RoleOwner)
		if err != nil {
			t.Fatalf("RehearsalEventsForUser() error = %v", err)
		}
		if len(events) != 1 || len(events[0].AgendaItems) != 1 {
			t.Errorf("unexpected rehearsals: %+v", events)
		}
	})
}
