package queue

import (
	"context"

	"campus-queue-backend/internal/announce"
	"campus-queue-backend/internal/models"
)

// Notifier receives the fan-out side effects of committed commands.
// Calls must not block the command path; the realtime broadcaster
// debounces and delivers asynchronously.
type Notifier interface {
	QueueUpdated(department models.Department)
	WindowQueueUpdated(department models.Department, windowID string)
	Announce(ann announce.Announcement)
}

// NopNotifier is the default when no broadcaster is wired (tests).
type NopNotifier struct{}

func (NopNotifier) QueueUpdated(models.Department)               {}
func (NopNotifier) WindowQueueUpdated(models.Department, string) {}
func (NopNotifier) Announce(announce.Announcement)               {}

// Processor validates and applies admin commands against the store.
// Every expected failure comes back as a *Rejection; errors are
// reserved for infrastructure being unavailable.
type Processor struct {
	store    *Store
	dir      *Directory
	router   *Router
	notifier Notifier
}

func NewProcessor(store *Store, dir *Directory, router *Router, notifier Notifier) *Processor {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Processor{store: store, dir: dir, router: router, notifier: notifier}
}

// Issue appends a new waiting entry for the kiosk. The service must be
// active in the department and the department's queueing enabled.
func (p *Processor) Issue(ctx context.Context, department models.Department, service string, person PersonDetails) (*models.QueueEntry, *Rejection, error) {
	if !department.Valid() {
		return nil, reject(ReasonInvalidAssignment, "unknown department %q", department), nil
	}
	if !p.dir.Enabled(department) {
		return nil, reject(ReasonInvalidAssignment, "queueing is disabled for %s", department), nil
	}
	if !p.dir.ActiveService(department, service) {
		return nil, reject(ReasonInvalidAssignment, "service %s is not active in %s", service, department), nil
	}

	entry, err := p.store.Issue(ctx, department, service, person)
	if err != nil {
		return nil, nil, err
	}

	p.notifier.QueueUpdated(department)
	return entry, nil, nil
}

// CallNext pulls the head of the window's partition into serving. A
// lost CAS (another admin claimed the head first) is retried exactly
// once against a freshly computed head; a second loss surfaces as Busy,
// which the admin UI treats as "try again momentarily".
func (p *Processor) CallNext(ctx context.Context, department models.Department, windowID string) (*models.QueueEntry, *Rejection, error) {
	w := p.dir.WindowFor(windowID)
	if w == nil || w.Department != department || !w.IsOpen {
		return nil, reject(ReasonInvalidAssignment, "window %s is not open in %s", windowID, department), nil
	}

	for attempt := 0; attempt < 2; attempt++ {
		head := p.router.HeadOfLine(department, windowID)
		if head == nil {
			return nil, reject(ReasonEmptyQueue, "no eligible waiting entry for window %s", windowID), nil
		}

		entry, rej := p.store.Transition(ctx, department, head.ID, models.StatusWaiting, models.StatusServing, windowID, "call")
		if rej == nil {
			p.notifier.QueueUpdated(department)
			p.notifier.WindowQueueUpdated(department, windowID)
			p.notifier.Announce(announce.Build(entry, w, false))
			return entry, nil, nil
		}
	}

	return nil, reject(ReasonBusy, "window %s lost the race twice", windowID), nil
}

// Complete finishes the entry currently being served. Replays against
// an already-completed entry are a NotServing no-op, which is what
// makes at-least-once delivery from flaky admin clients safe.
func (p *Processor) Complete(ctx context.Context, department models.Department, entryID string) (*models.QueueEntry, *Rejection, error) {
	prior := p.store.Get(department, entryID)
	if prior == nil || prior.Status != models.StatusServing {
		return nil, reject(ReasonNotServing, "entry %s is not being served", entryID), nil
	}
	windowID := prior.WindowID

	entry, rej := p.store.Transition(ctx, department, entryID, models.StatusServing, models.StatusCompleted, "", "finish")
	if rej != nil {
		// Raced with another command between the read and the CAS.
		return nil, reject(ReasonNotServing, "entry %s is not being served", entryID), nil
	}

	p.notifier.QueueUpdated(department)
	p.notifier.WindowQueueUpdated(department, windowID)
	return entry, nil, nil
}

// Recall re-triggers the announcement for the entry being served. Pure
// side effect: no state transition, always succeeds while serving.
func (p *Processor) Recall(ctx context.Context, department models.Department, entryID string) (*models.QueueEntry, *Rejection, error) {
	entry := p.store.Get(department, entryID)
	if entry == nil || entry.Status != models.StatusServing {
		return nil, reject(ReasonNotServing, "entry %s is not being served", entryID), nil
	}
	w := p.dir.WindowFor(entry.WindowID)
	if w == nil {
		return nil, reject(ReasonNotServing, "entry %s has no window", entryID), nil
	}

	p.store.RecordRecall(ctx, entry)
	p.notifier.Announce(announce.Build(entry, w, true))
	p.notifier.WindowQueueUpdated(department, w.ID)
	return entry, nil, nil
}

// Transfer hands the serving entry to another window's partition: back
// to waiting, window cleared, original queue number preserved so the
// receiving window picks it up in FIFO position on its next CallNext.
func (p *Processor) Transfer(ctx context.Context, department models.Department, entryID, newWindowID string) (*models.QueueEntry, *Rejection, error) {
	prior := p.store.Get(department, entryID)
	if prior == nil {
		return nil, reject(ReasonStaleState, "entry %s not in today's queue", entryID), nil
	}
	if prior.Status != models.StatusServing {
		return nil, reject(ReasonStaleState, "entry %s is %s, not serving", entryID, prior.Status), nil
	}

	target := p.dir.WindowFor(newWindowID)
	if target == nil || target.Department != department || !target.IsOpen {
		return nil, reject(ReasonInvalidAssignment, "window %s is not open in %s", newWindowID, department), nil
	}
	if !p.dir.Serves(newWindowID, department, prior.Service) {
		return nil, reject(ReasonInvalidAssignment, "window %s does not serve %s", newWindowID, prior.Service), nil
	}

	fromWindow := prior.WindowID
	entry, rej := p.store.Transition(ctx, department, entryID, models.StatusServing, models.StatusWaiting, "", "transfer")
	if rej != nil {
		return nil, rej, nil
	}

	p.notifier.QueueUpdated(department)
	p.notifier.WindowQueueUpdated(department, fromWindow)
	p.notifier.WindowQueueUpdated(department, newWindowID)
	return entry, nil, nil
}
