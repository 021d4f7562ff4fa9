package storage

import (
	"context"
	"errors"

	"github.com/julianstephens/callboard/internal/calendar"
	"github.com/julianstephens/callboard/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrSlotFull is returned when a sign-up would exceed a slot's capacity
	ErrSlotFull = errors.New("slot is full")
	// ErrAlreadySignedUp is returned when a user signs up for the same slot twice
	ErrAlreadySignedUp = errors.New("already signed up for this slot")
	// ErrDuplicate is returned when a membership or assignment already exists
	ErrDuplicate = errors.New("record already exists")
)

// Provider is the persistence layer. Besides its own CRUD surface it serves
// the calendar builder's fetches.
type Provider interface {
	calendar.Sources

	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Auditions
	AddShow(ctx context.Context, show models.Show) (models.Show, error)
	AddAudition(ctx context.Context, a models.Audition) (models.Audition, error)
	GetAudition(ctx context.Context, id string) (models.Audition, error)
	ListAuditions(ctx context.Context) ([]models.Audition, error)
	SetWorkflowStatus(ctx context.Context, auditionID string, status models.WorkflowStatus) error

	// Slots
	AddSlot(ctx context.Context, slot models.Slot) (models.Slot, error)
	GetSlot(ctx context.Context, id string) (models.Slot, error)
	// SignUp takes one place in a slot. The capacity check and the increment
	// happen in a single conditional update, so concurrent sign-ups for the
	// last place cannot both succeed.
	SignUp(ctx context.Context, slotID, userID string) (models.Slot, error)

	// Rehearsals and production events
	AddRehearsalEvent(ctx context.Context, r models.RehearsalEvent) (models.RehearsalEvent, error)
	GetRehearsalEvent(ctx context.Context, id string) (models.RehearsalEvent, error)
	AddAgendaItem(ctx context.Context, item models.AgendaItem) (models.AgendaItem, error)
	AddProductionEvent(ctx context.Context, pe models.ProductionEvent) (models.ProductionEvent, error)
	AssignProductionEvent(ctx context.Context, productionEventID, userID string) error

	// Memberships
	AddCastMember(ctx context.Context, c models.CastMembership) error
	AddTeamMember(ctx context.Context, m models.TeamMembership) error

	// Personal calendar and profile
	AddPersonalEvent(ctx context.Context, p models.PersonalEvent) (models.PersonalEvent, error)
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	SaveProfile(ctx context.Context, p models.Profile) error

	// Utils
	GetConfigPath() string
}
