package queue

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"campus-queue-backend/internal/models"
)

const dayLayout = "2006-01-02"

// Persister is the durable side of the store: an append-only journal of
// issued entries and committed transitions, plus the end-of-day archive.
// The in-memory state stays authoritative for "today"; the journal is
// for audit and recovery.
type Persister interface {
	RecordIssue(ctx context.Context, entry *models.QueueEntry) error
	RecordTransition(ctx context.Context, rec models.TransitionRecord) error
	ArchiveDay(ctx context.Context, department models.Department, day string, entries []models.QueueEntry) error
}

// NopPersister discards everything. Used by tests and by deployments
// that run purely in memory.
type NopPersister struct{}

func (NopPersister) RecordIssue(context.Context, *models.QueueEntry) error { return nil }
func (NopPersister) RecordTransition(context.Context, models.TransitionRecord) error {
	return nil
}
func (NopPersister) ArchiveDay(context.Context, models.Department, string, []models.QueueEntry) error {
	return nil
}

// PersonDetails carries the kiosk form fields captured at issue time.
type PersonDetails struct {
	FullName string
	Purpose  string
	Contact  string
	Priority bool
}

// DepartmentSnapshot is the consistent read shape pushed to department
// rooms and served by the pull fallback.
type DepartmentSnapshot struct {
	Department    models.Department  `json:"department"`
	Queue         []models.QueueEntry `json:"queue"`
	CurrentNumber int64              `json:"current_number"`
	Serving       []models.QueueEntry `json:"serving"`
}

// WindowSnapshot scopes the snapshot to one window's partition.
type WindowSnapshot struct {
	Department  models.Department  `json:"department"`
	Window      string             `json:"window"`
	WindowQueue []models.QueueEntry `json:"window_queue"`
	Serving     *models.QueueEntry `json:"serving,omitempty"`
}

// departmentState is one department's live day. Departments lock
// independently, so contention in registrar never blocks admissions.
type departmentState struct {
	mu            sync.Mutex
	entries       map[string]*models.QueueEntry
	serving       map[string]string // windowID -> entryID
	currentNumber int64
	lastReset     string
}

// Store owns all mutable queue state. Every transition is a
// compare-and-swap on the entry's status checked inside the department
// critical section, which serializes writers per entry and guards the
// one-serving-per-window invariant in the same atomic step.
type Store struct {
	numbers   NumberSource
	persister Persister
	dir       *Directory
	depts     map[models.Department]*departmentState
	now       func() time.Time
}

func NewStore(numbers NumberSource, persister Persister, dir *Directory) *Store {
	if persister == nil {
		persister = NopPersister{}
	}
	depts := make(map[models.Department]*departmentState, len(models.Departments))
	for _, d := range models.Departments {
		depts[d] = &departmentState{
			entries: make(map[string]*models.QueueEntry),
			serving: make(map[string]string),
		}
	}
	return &Store{
		numbers:   numbers,
		persister: persister,
		dir:       dir,
		depts:     depts,
		now:       time.Now,
	}
}

func (s *Store) state(department models.Department) *departmentState {
	return s.depts[department]
}

func (s *Store) today() string {
	return s.now().Format(dayLayout)
}

func deptCode(department models.Department) string {
	if len(department) >= 3 {
		return strings.ToUpper(string(department)[:3])
	}
	return strings.ToUpper(string(department))
}

/*
|--------------------------------------------------------------------------
| Issue
|--------------------------------------------------------------------------
*/

// Issue allocates the next queue number for the department and appends
// a waiting entry. The number comes from the NumberSource's atomic
// increment, so concurrent issues never alias. The entry is journaled
// before it becomes visible; if the journal write fails the number is
// simply skipped (gaps are allowed, duplicates are not).
func (s *Store) Issue(ctx context.Context, department models.Department, service string, person PersonDetails) (*models.QueueEntry, error) {
	st := s.state(department)
	if st == nil {
		return nil, fmt.Errorf("unknown department %q", department)
	}

	day := s.today()
	n, err := s.numbers.Next(ctx, department, day)
	if err != nil {
		return nil, err
	}

	entry := &models.QueueEntry{
		ID:          fmt.Sprintf("%s-%s-%04d", deptCode(department), strings.ReplaceAll(day, "-", ""), n),
		QueueNumber: n,
		Department:  department,
		Service:     service,
		FullName:    person.FullName,
		Purpose:     person.Purpose,
		Contact:     person.Contact,
		Priority:    person.Priority,
		Status:      models.StatusWaiting,
		Timestamp:   s.now(),
	}

	if err := s.persister.RecordIssue(ctx, entry); err != nil {
		return nil, unavailable("issue journal", err)
	}

	st.mu.Lock()
	st.entries[entry.ID] = entry
	if n > st.currentNumber {
		st.currentNumber = n
	}
	st.mu.Unlock()

	cp := *entry
	return &cp, nil
}

/*
|--------------------------------------------------------------------------
| Transition
|--------------------------------------------------------------------------
*/

// Transition is the CAS at the heart of the engine: it succeeds only if
// the entry's current status equals from, and, when claiming a window,
// only if no other entry is being served there. A mismatch is the
// normal outcome of a race between two admins and comes back as a
// StaleState rejection, not an error.
//
// The journal write happens after the in-memory commit and is
// best-effort: the live day is authoritative and the archive catches up
// at the daily reset.
func (s *Store) Transition(ctx context.Context, department models.Department, entryID string, from, to models.Status, windowID, event string) (*models.QueueEntry, *Rejection) {
	st := s.state(department)
	if st == nil {
		return nil, reject(ReasonStaleState, "unknown department %q", department)
	}

	st.mu.Lock()
	entry, ok := st.entries[entryID]
	if !ok {
		st.mu.Unlock()
		return nil, reject(ReasonStaleState, "entry %s not in today's queue", entryID)
	}
	if entry.Status != from {
		current := entry.Status
		st.mu.Unlock()
		return nil, reject(ReasonStaleState, "entry %s is %s, expected %s", entryID, current, from)
	}

	now := s.now()
	journalTo := to
	switch {
	case from == models.StatusWaiting && to == models.StatusServing:
		if holder, occupied := st.serving[windowID]; occupied && holder != entryID {
			st.mu.Unlock()
			return nil, reject(ReasonStaleState, "window %s already serving %s", windowID, holder)
		}
		entry.Status = models.StatusServing
		entry.WindowID = windowID
		entry.CalledAt = &now
		st.serving[windowID] = entryID

	case from == models.StatusServing && to == models.StatusCompleted:
		delete(st.serving, entry.WindowID)
		entry.Status = models.StatusCompleted
		entry.WindowID = ""
		entry.CompletedAt = &now

	case from == models.StatusServing && to == models.StatusWaiting:
		// Transfer path: back to the pool with the original queue
		// number, so FIFO order is undisturbed. The journal records the
		// hop as transferred; the live entry is waiting again.
		delete(st.serving, entry.WindowID)
		entry.Status = models.StatusWaiting
		entry.WindowID = ""
		journalTo = models.StatusTransferred

	default:
		st.mu.Unlock()
		return nil, reject(ReasonStaleState, "transition %s -> %s not allowed", from, to)
	}

	cp := *entry
	st.mu.Unlock()

	rec := models.TransitionRecord{
		EntryID:    cp.ID,
		Event:      event,
		FromStatus: from,
		ToStatus:   journalTo,
		WindowID:   windowID,
		CreatedAt:  now,
	}
	if err := s.persister.RecordTransition(ctx, rec); err != nil {
		log.Printf("[store] journal %s for %s failed: %v", event, cp.ID, err)
	}

	return &cp, nil
}

// RecordRecall journals a recall, which re-triggers the announcement
// without any state change.
func (s *Store) RecordRecall(ctx context.Context, entry *models.QueueEntry) {
	rec := models.TransitionRecord{
		EntryID:    entry.ID,
		Event:      "recall",
		FromStatus: models.StatusServing,
		ToStatus:   models.StatusServing,
		WindowID:   entry.WindowID,
		CreatedAt:  s.now(),
	}
	if err := s.persister.RecordTransition(ctx, rec); err != nil {
		log.Printf("[store] journal recall for %s failed: %v", entry.ID, err)
	}
}

/*
|--------------------------------------------------------------------------
| Reads
|--------------------------------------------------------------------------
*/

// Get returns a copy of the entry, or nil.
func (s *Store) Get(department models.Department, entryID string) *models.QueueEntry {
	st := s.state(department)
	if st == nil {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	entry, ok := st.entries[entryID]
	if !ok {
		return nil
	}
	cp := *entry
	return &cp
}

// Snapshot returns a consistent point-in-time view of the department:
// the waiting queue in ascending queue-number order, the last issued
// number, and everything currently being served. All values are copies.
func (s *Store) Snapshot(department models.Department) DepartmentSnapshot {
	snap := DepartmentSnapshot{
		Department: department,
		Queue:      []models.QueueEntry{},
		Serving:    []models.QueueEntry{},
	}
	st := s.state(department)
	if st == nil {
		return snap
	}

	st.mu.Lock()
	snap.CurrentNumber = st.currentNumber
	for _, entry := range st.entries {
		switch entry.Status {
		case models.StatusWaiting:
			snap.Queue = append(snap.Queue, *entry)
		case models.StatusServing:
			snap.Serving = append(snap.Serving, *entry)
		}
	}
	st.mu.Unlock()

	sort.Slice(snap.Queue, func(i, j int) bool {
		return snap.Queue[i].QueueNumber < snap.Queue[j].QueueNumber
	})
	sort.Slice(snap.Serving, func(i, j int) bool {
		return snap.Serving[i].QueueNumber < snap.Serving[j].QueueNumber
	})
	return snap
}

// WindowSnapshot narrows the department snapshot to one window's
// partition: the waiting entries that window could pull, ranked the
// same way HeadOfLine ranks them, plus whoever it is serving now.
func (s *Store) WindowSnapshot(department models.Department, windowID string) WindowSnapshot {
	snap := WindowSnapshot{
		Department:  department,
		Window:      windowID,
		WindowQueue: []models.QueueEntry{},
	}

	full := s.Snapshot(department)
	w := s.dir.WindowFor(windowID)
	if w == nil || w.Department != department {
		return snap
	}

	for _, entry := range full.Queue {
		if s.dir.Serves(windowID, department, entry.Service) {
			snap.WindowQueue = append(snap.WindowQueue, entry)
		}
	}
	if w.IsPriority {
		rankPriorityFirst(snap.WindowQueue)
	}
	for i := range full.Serving {
		if full.Serving[i].WindowID == windowID {
			cp := full.Serving[i]
			snap.Serving = &cp
			break
		}
	}
	return snap
}

// rankPriorityFirst orders PWD/senior entries ahead of the general
// line, keeping ascending queue numbers within each class.
func rankPriorityFirst(entries []models.QueueEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority
		}
		return entries[i].QueueNumber < entries[j].QueueNumber
	})
}
