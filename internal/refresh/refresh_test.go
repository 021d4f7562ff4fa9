package refresh

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/callboard/internal/calendar"
	"github.com/julianstephens/callboard/internal/config"
	"github.com/julianstephens/callboard/internal/logger"
	"github.com/julianstephens/callboard/internal/models"
)

type fakeBuilder struct {
	calls  atomic.Int32
	events map[string][]models.Event
	fail   map[string]error
}

func (f *fakeBuilder) Build(_ context.Context, userID string) (*calendar.Calendar, error) {
	f.calls.Add(1)
	if err := f.fail[userID]; err != nil {
		return nil, err
	}
	return &calendar.Calendar{UserID: userID, Events: f.events[userID]}, nil
}

func rehearsal(day int) models.Event {
	return models.Event{
		Type:     models.EventTypeRehearsal,
		Title:    "Hamlet Rehearsal",
		Date:     time.Date(2030, 6, day, 0, 0, 0, 0, time.UTC),
		UserRole: models.RoleCast,
	}
}

func testConfig(t *testing.T, users ...string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.ExportDir = filepath.Join(t.TempDir(), "exports")
	cfg.ExportUsers = users
	return cfg
}

func TestNewValidates(t *testing.T) {
	_, err := New(testConfig(t), &fakeBuilder{}, logger.Discard())
	assert.Error(t, err, "no users")

	cfg := testConfig(t, "alice")
	cfg.RefreshCron = "every tuesday"
	_, err = New(cfg, &fakeBuilder{}, logger.Discard())
	assert.Error(t, err, "bad schedule")
}

func TestRunOnce(t *testing.T) {
	builder := &fakeBuilder{
		events: map[string][]models.Event{
			"alice": {rehearsal(1), rehearsal(2)},
		},
		fail: map[string]error{
			"carol": errors.New("database is locked"),
		},
	}
	cfg := testConfig(t, "alice", "bob", "carol")
	exp, err := New(cfg, builder, logger.Discard())
	require.NoError(t, err)

	err = exp.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carol")

	data, err := os.ReadFile(exp.Path("alice"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "BEGIN:VEVENT"))

	// bob has nothing scheduled, so no file is written
	_, err = os.Stat(exp.Path("bob"))
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(cfg.ExportDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunOnceRemovesStaleCalendar(t *testing.T) {
	builder := &fakeBuilder{events: map[string][]models.Event{"alice": {rehearsal(1)}}}
	exp, err := New(testConfig(t, "alice"), builder, logger.Discard())
	require.NoError(t, err)

	require.NoError(t, exp.RunOnce(context.Background()))
	_, err = os.Stat(exp.Path("alice"))
	require.NoError(t, err)

	// the only rehearsal was cancelled
	builder.events["alice"] = nil
	require.NoError(t, exp.RunOnce(context.Background()))
	_, err = os.Stat(exp.Path("alice"))
	assert.True(t, os.IsNotExist(err))
}

func TestStartExportsUntilCancelled(t *testing.T) {
	builder := &fakeBuilder{events: map[string][]models.Event{"alice": {rehearsal(1)}}}
	cfg := testConfig(t, "alice")
	cfg.RefreshCron = "@every 1s"
	exp, err := New(cfg, builder, logger.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- exp.Start(ctx) }()

	require.Eventually(t, func() bool {
		return builder.calls.Load() >= 2
	}, 5*time.Second, 50*time.Millisecond, "expected the initial run plus one scheduled run")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}

	_, err = os.Stat(exp.Path("alice"))
	assert.NoError(t, err)
}
