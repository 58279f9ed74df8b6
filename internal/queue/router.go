package queue

import (
	"campus-queue-backend/internal/models"
)

// Router maps entries to the windows eligible to serve them. It holds
// no state of its own: eligibility is derived from the directory's
// current assignment and the store's live queue on every call.
type Router struct {
	store *Store
	dir   *Directory
}

func NewRouter(store *Store, dir *Directory) *Router {
	return &Router{store: store, dir: dir}
}

// EligibleWindows returns the open windows that could pull the entry:
// those assigned its service, plus every open priority window of the
// department.
func (r *Router) EligibleWindows(entry *models.QueueEntry) []string {
	var out []string
	for _, w := range r.dir.WindowsFor(entry.Department) {
		if !w.IsOpen {
			continue
		}
		if w.IsPriority {
			out = append(out, w.ID)
			continue
		}
		for _, serviceID := range w.ServiceIDs {
			if serviceID == entry.Service {
				out = append(out, w.ID)
				break
			}
		}
	}
	return out
}

// HeadOfLine returns the next waiting entry the window should call, or
// nil when its partition is empty. Ordering is ascending queue number;
// a priority window ranks PWD/senior entries first, queue number
// breaking ties within each class. Entries whose service is assigned to
// no open window are silently excluded here; the backlog they form is
// surfaced through UnassignedBacklog instead.
func (r *Router) HeadOfLine(department models.Department, windowID string) *models.QueueEntry {
	w := r.dir.WindowFor(windowID)
	if w == nil || w.Department != department || !w.IsOpen {
		return nil
	}

	snap := r.store.Snapshot(department)
	eligible := snap.Queue[:0:0]
	for _, entry := range snap.Queue {
		if r.dir.Serves(windowID, department, entry.Service) {
			eligible = append(eligible, entry)
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	if w.IsPriority {
		rankPriorityFirst(eligible)
	}
	head := eligible[0]
	return &head
}

// UnassignedBacklog counts waiting entries no open window can currently
// pull. A growing value is an operational misconfiguration signal; the
// monitor exports it as a gauge.
func (r *Router) UnassignedBacklog(department models.Department) int {
	snap := r.store.Snapshot(department)
	backlog := 0
	for i := range snap.Queue {
		if len(r.EligibleWindows(&snap.Queue[i])) == 0 {
			backlog++
		}
	}
	return backlog
}

// WaitingCount is the department's total waiting line length.
func (r *Router) WaitingCount(department models.Department) int {
	return len(r.store.Snapshot(department).Queue)
}
