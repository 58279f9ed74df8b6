package reconcile

import (
	"sort"
	"sync"

	"campus-queue-backend/internal/models"
	"campus-queue-backend/internal/queue"
)

// Mutation is the optimistic local image of a command the client just
// sent: the transition it expects the server to commit.
type Mutation struct {
	EntryID  string
	From     models.Status
	To       models.Status
	WindowID string
}

// Reconciler keeps one connection's read-only projection of the queue
// and merges its own optimistic mutations with the authoritative
// broadcasts that eventually arrive. Broadcast always wins; a rejected
// command rolls the projection back to the last confirmed value, so the
// UI never shows a state the server did not acknowledge.
type Reconciler struct {
	mu            sync.Mutex
	projection    map[string]models.QueueEntry
	authoritative map[string]models.QueueEntry
	pending       map[string]models.Status // entryID -> fromStatus of the in-flight command

	// OnRejected, when set, surfaces rollbacks to the UI layer.
	OnRejected func(entryID string, reason queue.Reason)
}

func New() *Reconciler {
	return &Reconciler{
		projection:    make(map[string]models.QueueEntry),
		authoritative: make(map[string]models.QueueEntry),
		pending:       make(map[string]models.Status),
	}
}

// ApplyOptimistic applies the local command's transition immediately so
// the UI feels instantaneous, and tags the entry pending until the
// authoritative broadcast or a rejection settles it.
func (r *Reconciler) ApplyOptimistic(m Mutation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.projection[m.EntryID]
	if !ok {
		return
	}

	entry.Status = m.To
	switch m.To {
	case models.StatusServing:
		entry.WindowID = m.WindowID
	case models.StatusWaiting, models.StatusCompleted:
		entry.WindowID = ""
	}
	r.projection[m.EntryID] = entry
	r.pending[m.EntryID] = m.From
}

// ApplyBroadcast reconciles against an authoritative broadcast,
// broadcast-wins: every carried entry overwrites the optimistic value
// unconditionally and its pending marker is cleared. Push events carry
// the full live set for the room, so projection entries absent from the
// broadcast are pruned the same way (they completed or were archived);
// their pending markers clear too, which is how an optimistic complete
// settles when the confirming snapshot no longer lists the entry.
func (r *Reconciler) ApplyBroadcast(entries []models.QueueEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	live := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		live[entry.ID] = struct{}{}
		r.authoritative[entry.ID] = entry
		r.projection[entry.ID] = entry
		delete(r.pending, entry.ID)
	}
	for id := range r.projection {
		if _, ok := live[id]; !ok {
			delete(r.projection, id)
			delete(r.authoritative, id)
			delete(r.pending, id)
		}
	}
}

// ApplySnapshot replaces the whole projection with a pulled snapshot;
// the recovery path after a missed push or an unknown command outcome.
func (r *Reconciler) ApplySnapshot(snap queue.DepartmentSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.projection = make(map[string]models.QueueEntry)
	r.authoritative = make(map[string]models.QueueEntry)
	r.pending = make(map[string]models.Status)
	for _, entry := range snap.Queue {
		r.projection[entry.ID] = entry
		r.authoritative[entry.ID] = entry
	}
	for _, entry := range snap.Serving {
		r.projection[entry.ID] = entry
		r.authoritative[entry.ID] = entry
	}
}

// Rollback undoes the optimistic mutation after the server rejected the
// command, restoring the last authoritative value.
func (r *Reconciler) Rollback(entryID string, reason queue.Reason) {
	r.mu.Lock()
	if _, inFlight := r.pending[entryID]; inFlight {
		if auth, ok := r.authoritative[entryID]; ok {
			r.projection[entryID] = auth
		} else {
			delete(r.projection, entryID)
		}
		delete(r.pending, entryID)
	}
	onRejected := r.OnRejected
	r.mu.Unlock()

	if onRejected != nil {
		onRejected(entryID, reason)
	}
}

// Pending reports whether the entry still has an unconfirmed mutation.
func (r *Reconciler) Pending(entryID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[entryID]
	return ok
}

// Get returns the projected entry, or nil.
func (r *Reconciler) Get(entryID string) *models.QueueEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.projection[entryID]
	if !ok {
		return nil
	}
	cp := entry
	return &cp
}

// Entries returns the projection in ascending queue-number order.
func (r *Reconciler) Entries() []models.QueueEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.QueueEntry, 0, len(r.projection))
	for _, entry := range r.projection {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QueueNumber < out[j].QueueNumber })
	return out
}
