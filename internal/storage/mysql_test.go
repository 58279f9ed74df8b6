package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-queue-backend/internal/models"
)

func newMockPersister(t *testing.T) (*MySQLPersister, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLPersister(db), mock
}

func sampleEntry() models.QueueEntry {
	return models.QueueEntry{
		ID:          "REG-20260309-0001",
		QueueNumber: 1,
		Department:  models.DepartmentRegistrar,
		Service:     "transcript",
		FullName:    "Jordan Blake",
		Purpose:     "Transcript pickup",
		Contact:     "jordan@example.edu",
		Status:      models.StatusWaiting,
		Timestamp:   time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC),
	}
}

func TestRecordIssue(t *testing.T) {
	p, mock := newMockPersister(t)
	entry := sampleEntry()

	mock.ExpectExec("INSERT INTO queue_entries").
		WithArgs(entry.ID, entry.QueueNumber, "registrar", entry.Service,
			entry.FullName, entry.Purpose, entry.Contact, false, "waiting", entry.Timestamp).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, p.RecordIssue(context.Background(), &entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordIssue_DBError(t *testing.T) {
	p, mock := newMockPersister(t)
	entry := sampleEntry()

	mock.ExpectExec("INSERT INTO queue_entries").
		WillReturnError(errors.New("connection refused"))

	err := p.RecordIssue(context.Background(), &entry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert queue entry")
}

func TestRecordTransition(t *testing.T) {
	p, mock := newMockPersister(t)
	actor := int64(7)
	created := time.Date(2026, 3, 9, 8, 5, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO queue_transitions").
		WithArgs("REG-20260309-0001", "call_next", "waiting", "serving", "W1", actor, created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := p.RecordTransition(context.Background(), models.TransitionRecord{
		EntryID:    "REG-20260309-0001",
		Event:      "call_next",
		FromStatus: models.StatusWaiting,
		ToStatus:   models.StatusServing,
		WindowID:   "W1",
		ActorID:    &actor,
		CreatedAt:  created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordTransition_NilActor(t *testing.T) {
	p, mock := newMockPersister(t)
	created := time.Date(2026, 3, 9, 8, 5, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO queue_transitions").
		WithArgs("REG-20260309-0001", "recall", "serving", "serving", "W1", nil, created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := p.RecordTransition(context.Background(), models.TransitionRecord{
		EntryID:    "REG-20260309-0001",
		Event:      "recall",
		FromStatus: models.StatusServing,
		ToStatus:   models.StatusServing,
		WindowID:   "W1",
		CreatedAt:  created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveDay(t *testing.T) {
	p, mock := newMockPersister(t)

	first := sampleEntry()
	first.Status = models.StatusCompleted
	second := sampleEntry()
	second.ID = "REG-20260309-0002"
	second.QueueNumber = 2

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO queue_archive").
		WithArgs(first.ID, first.QueueNumber, "registrar", first.Service, first.FullName,
			false, "completed", "", "2026-03-09", first.Timestamp, nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO queue_archive").
		WithArgs(second.ID, second.QueueNumber, "registrar", second.Service, second.FullName,
			false, "waiting", "", "2026-03-09", second.Timestamp, nil, nil).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := p.ArchiveDay(context.Background(), models.DepartmentRegistrar, "2026-03-09",
		[]models.QueueEntry{first, second})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveDay_RollsBackOnFailure(t *testing.T) {
	p, mock := newMockPersister(t)
	entry := sampleEntry()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO queue_archive").
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := p.ArchiveDay(context.Background(), models.DepartmentRegistrar, "2026-03-09",
		[]models.QueueEntry{entry})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive entry")
	assert.NoError(t, mock.ExpectationsWereMet())
}
