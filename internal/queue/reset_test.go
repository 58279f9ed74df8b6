package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-queue-backend/internal/models"
)

// archivingPersister records what ArchiveDay received.
type archivingPersister struct {
	NopPersister
	mu       sync.Mutex
	archived map[string][]models.QueueEntry // day -> entries
	calls    int
}

func (p *archivingPersister) ArchiveDay(_ context.Context, _ models.Department, day string, entries []models.QueueEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.archived == nil {
		p.archived = make(map[string][]models.QueueEntry)
	}
	p.archived[day] = append(p.archived[day], entries...)
	p.calls++
	return nil
}

func TestStore_ResetDay(t *testing.T) {
	dir := NewDirectory()
	require.Nil(t, dir.CreateService(models.Service{
		ID: "transcript", Department: models.DepartmentRegistrar, Name: "Transcript Request", IsActive: true,
	}))
	require.Nil(t, dir.CreateWindow(models.Window{
		ID: "W1", Name: "Window 1", Department: models.DepartmentRegistrar,
		ServiceIDs: []string{"transcript"}, IsOpen: true,
	}))

	persister := &archivingPersister{}
	s := NewStore(NewMemoryNumberSource(), persister, dir)
	ctx := context.Background()

	// Build a day: one completed, one still waiting.
	served, err := s.Issue(ctx, models.DepartmentRegistrar, "transcript", PersonDetails{FullName: "A"})
	require.NoError(t, err)
	_, err = s.Issue(ctx, models.DepartmentRegistrar, "transcript", PersonDetails{FullName: "B"})
	require.NoError(t, err)
	_, rej := s.Transition(ctx, models.DepartmentRegistrar, served.ID,
		models.StatusWaiting, models.StatusServing, "W1", "call")
	require.Nil(t, rej)
	_, rej = s.Transition(ctx, models.DepartmentRegistrar, served.ID,
		models.StatusServing, models.StatusCompleted, "", "finish")
	require.Nil(t, rej)

	day := s.today()
	require.NoError(t, s.ResetDay(ctx, models.DepartmentRegistrar, day))

	// The whole day was archived and the live state cleared.
	assert.Len(t, persister.archived[day], 2)
	snap := s.Snapshot(models.DepartmentRegistrar)
	assert.Empty(t, snap.Queue)
	assert.Empty(t, snap.Serving)
	assert.Equal(t, int64(0), snap.CurrentNumber)

	// Numbering restarts from 1.
	fresh, err := s.Issue(ctx, models.DepartmentRegistrar, "transcript", PersonDetails{FullName: "C"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh.QueueNumber)
}

func TestStore_ResetDay_Idempotent(t *testing.T) {
	persister := &archivingPersister{}
	s := NewStore(NewMemoryNumberSource(), persister, NewDirectory())
	ctx := context.Background()

	_, err := s.Issue(ctx, models.DepartmentRegistrar, "transcript", PersonDetails{FullName: "A"})
	require.NoError(t, err)

	day := s.today()
	require.NoError(t, s.ResetDay(ctx, models.DepartmentRegistrar, day))
	require.NoError(t, s.ResetDay(ctx, models.DepartmentRegistrar, day))
	require.NoError(t, s.ResetDay(ctx, models.DepartmentRegistrar, day))

	assert.Equal(t, 1, persister.calls, "a repeated reset for the same day is a no-op")
}

func TestStore_ResetDay_EmptyDaySkipsArchive(t *testing.T) {
	persister := &archivingPersister{}
	s := NewStore(NewMemoryNumberSource(), persister, NewDirectory())

	require.NoError(t, s.ResetDay(context.Background(), models.DepartmentRegistrar, s.today()))
	assert.Equal(t, 0, persister.calls)
}

// faultyArchiver fails ArchiveDay until told otherwise.
type faultyArchiver struct {
	NopPersister
	mu       sync.Mutex
	fail     bool
	archived []models.QueueEntry
}

func (p *faultyArchiver) ArchiveDay(_ context.Context, _ models.Department, _ string, entries []models.QueueEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("archive db down")
	}
	p.archived = append(p.archived, entries...)
	return nil
}

func (p *faultyArchiver) recover() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = false
}

func TestStore_ResetDay_RetryAfterFailedArchive(t *testing.T) {
	persister := &faultyArchiver{fail: true}
	s := NewStore(NewMemoryNumberSource(), persister, NewDirectory())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := s.Issue(ctx, models.DepartmentRegistrar, "transcript", PersonDetails{FullName: "A"})
		require.NoError(t, err)
	}

	day := s.today()
	err := s.ResetDay(ctx, models.DepartmentRegistrar, day)
	require.Error(t, err)
	var unavail *UnavailableError
	assert.ErrorAs(t, err, &unavail)

	// The failed archive left the live day intact and the day marker
	// unset, so nothing was lost.
	assert.Len(t, s.Snapshot(models.DepartmentRegistrar).Queue, 2)

	// The database recovers; the retry archives the full day and only
	// then clears the state.
	persister.recover()
	require.NoError(t, s.ResetDay(ctx, models.DepartmentRegistrar, day))
	assert.Len(t, persister.archived, 2)
	assert.Empty(t, s.Snapshot(models.DepartmentRegistrar).Queue)
}

func TestNextRollover(t *testing.T) {
	now := time.Date(2026, 3, 9, 13, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		boundary string
		wantFire time.Time
		wantDay  string
	}{
		{
			// A midnight boundary firing on the 10th closes the 9th.
			name:     "midnight boundary closes the previous date",
			boundary: "00:00",
			wantFire: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			wantDay:  "2026-03-09",
		},
		{
			name:     "evening boundary closes the same date",
			boundary: "23:30",
			wantFire: time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC),
			wantDay:  "2026-03-09",
		},
		{
			name:     "boundary already passed fires tomorrow",
			boundary: "08:00",
			wantFire: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
			wantDay:  "2026-03-10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bt, err := time.Parse("15:04", tt.boundary)
			require.NoError(t, err)

			fire, day := nextRollover(now, bt)
			assert.Equal(t, tt.wantFire, fire)
			assert.Equal(t, tt.wantDay, day)
		})
	}
}

func TestStore_ResetAll(t *testing.T) {
	persister := &archivingPersister{}
	s := NewStore(NewMemoryNumberSource(), persister, NewDirectory())
	ctx := context.Background()

	_, err := s.Issue(ctx, models.DepartmentRegistrar, "transcript", PersonDetails{FullName: "A"})
	require.NoError(t, err)
	_, err = s.Issue(ctx, models.DepartmentAdmissions, "application", PersonDetails{FullName: "B"})
	require.NoError(t, err)

	s.ResetAll(ctx, s.today())

	for _, department := range models.Departments {
		snap := s.Snapshot(department)
		assert.Empty(t, snap.Queue, "department %s should be cleared", department)
	}
}
