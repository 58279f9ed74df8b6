package queue

import (
	"context"
	"log"
	"time"

	"campus-queue-backend/internal/models"
)

// ResetDay is the explicit daily rollover: it archives the whole day
// through the persister, clears the live queue, zeroes the counter and
// drops the spent allocation key. Idempotent per day; a repeated call
// for the same day is a no-op, so a restarted scheduler cannot wipe a
// day twice.
func (s *Store) ResetDay(ctx context.Context, department models.Department, day string) error {
	st := s.state(department)
	if st == nil {
		return nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.lastReset == day {
		return nil
	}

	archived := make([]models.QueueEntry, 0, len(st.entries))
	for _, entry := range st.entries {
		archived = append(archived, *entry)
	}

	// Archive before touching live state: a failed archive leaves the
	// day intact and the marker unset, so a retry runs it again.
	if len(archived) > 0 {
		if err := s.persister.ArchiveDay(ctx, department, day, archived); err != nil {
			return unavailable("day archive", err)
		}
	}

	st.entries = make(map[string]*models.QueueEntry)
	st.serving = make(map[string]string)
	st.currentNumber = 0
	st.lastReset = day

	if err := s.numbers.Reset(ctx, department, day); err != nil {
		return err
	}

	log.Printf("[reset] %s rolled over for %s, archived %d entries", department, day, len(archived))
	return nil
}

// ResetAll rolls every department over for the day.
func (s *Store) ResetAll(ctx context.Context, day string) {
	for _, department := range models.Departments {
		if err := s.ResetDay(ctx, department, day); err != nil {
			log.Printf("[reset] %s failed: %v", department, err)
		}
	}
}

// nextRollover returns when the boundary next fires and the serving day
// that firing closes: the day ending at that instant. A midnight
// boundary firing on the 10th closes the 9th, and both the archive rows
// and the spent counter key are labeled with the 9th.
func nextRollover(now time.Time, bt time.Time) (time.Time, string) {
	next := time.Date(now.Year(), now.Month(), now.Day(), bt.Hour(), bt.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next, next.Add(-time.Second).Format(dayLayout)
}

// StartDailyReset runs the rollover once per day at the configured
// boundary ("HH:MM"), closing the serving day that ends at the boundary.
func (s *Store) StartDailyReset(ctx context.Context, boundary string) {
	bt, err := time.Parse("15:04", boundary)
	if err != nil {
		log.Printf("[reset] invalid boundary %q, daily reset disabled: %v", boundary, err)
		return
	}

	go func() {
		for {
			now := s.now()
			next, servingDay := nextRollover(now, bt)

			select {
			case <-ctx.Done():
				return
			case <-time.After(next.Sub(now)):
				s.ResetAll(ctx, servingDay)
			}
		}
	}()
}
