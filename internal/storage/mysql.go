package storage

import (
	"context"
	"database/sql"
	"fmt"

	"campus-queue-backend/internal/models"
)

// MySQLPersister journals issued entries and committed transitions and
// receives the end-of-day archive. The live day lives in memory; these
// tables are the durable history behind it.
type MySQLPersister struct {
	db *sql.DB
}

func NewMySQLPersister(db *sql.DB) *MySQLPersister {
	return &MySQLPersister{db: db}
}

func (p *MySQLPersister) RecordIssue(ctx context.Context, entry *models.QueueEntry) error {
	query := `
		INSERT INTO queue_entries
		(id, queue_number, department, service, full_name, purpose, contact, priority, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := p.db.ExecContext(ctx, query,
		entry.ID,
		entry.QueueNumber,
		string(entry.Department),
		entry.Service,
		entry.FullName,
		entry.Purpose,
		entry.Contact,
		entry.Priority,
		string(entry.Status),
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert queue entry: %w", err)
	}
	return nil
}

func (p *MySQLPersister) RecordTransition(ctx context.Context, rec models.TransitionRecord) error {
	query := `
		INSERT INTO queue_transitions
		(entry_id, event, from_status, to_status, window_id, actor_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	var actor interface{}
	if rec.ActorID != nil {
		actor = *rec.ActorID
	}
	_, err := p.db.ExecContext(ctx, query,
		rec.EntryID,
		rec.Event,
		string(rec.FromStatus),
		string(rec.ToStatus),
		rec.WindowID,
		actor,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert queue transition: %w", err)
	}
	return nil
}

// ArchiveDay moves the day's final entry states into the archive table
// inside one transaction, so a failed rollover never leaves half a day
// archived.
func (p *MySQLPersister) ArchiveDay(ctx context.Context, department models.Department, day string, entries []models.QueueEntry) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO queue_archive
		(entry_id, queue_number, department, service, full_name, priority, final_status, window_id, served_day, issued_at, called_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, entry := range entries {
		_, err := tx.ExecContext(ctx, query,
			entry.ID,
			entry.QueueNumber,
			string(department),
			entry.Service,
			entry.FullName,
			entry.Priority,
			string(entry.Status),
			entry.WindowID,
			day,
			entry.Timestamp,
			entry.CalledAt,
			entry.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("archive entry %s: %w", entry.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}
	return nil
}
