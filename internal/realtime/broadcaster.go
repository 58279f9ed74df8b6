package realtime

import (
	"sync"
	"time"

	"campus-queue-backend/internal/announce"
	"campus-queue-backend/internal/models"
	"campus-queue-backend/internal/queue"
)

// Event types on the wire.
const (
	EventQueueUpdate       = "queue_update"
	EventWindowQueueUpdate = "window_queue_update"
	EventAnnouncement      = "announcement"
)

// QueueUpdateEvent mirrors the department snapshot for push delivery.
// The pull fallback returns the identical shape, so a reconnecting
// client can recover from any missed push.
type QueueUpdateEvent struct {
	Type          string              `json:"type"`
	Department    models.Department   `json:"department"`
	Queue         []models.QueueEntry `json:"queue"`
	CurrentNumber int64               `json:"current_number"`
	Serving       []models.QueueEntry `json:"serving"`
	Timestamp     string              `json:"timestamp"`
}

type WindowQueueUpdateEvent struct {
	Type        string              `json:"type"`
	Department  models.Department   `json:"department"`
	Window      string              `json:"window"`
	WindowQueue []models.QueueEntry `json:"window_queue"`
	Serving     *models.QueueEntry  `json:"serving,omitempty"`
	Timestamp   string              `json:"timestamp"`
}

type AnnouncementEvent struct {
	Type string `json:"type"`
	announce.Announcement
}

// Broadcaster turns committed store changes into room publications. It
// debounces snapshot pushes so a burst of transitions collapses into
// one rebuild per room, the same trick the display path uses to avoid
// hammering the source of truth.
type Broadcaster struct {
	hub   *Hub
	store *queue.Store

	debounce time.Duration
	mu       sync.Mutex
	timers   map[string]*time.Timer
}

const defaultDebounce = 50 * time.Millisecond

func NewBroadcaster(hub *Hub, store *queue.Store) *Broadcaster {
	return &Broadcaster{
		hub:      hub,
		store:    store,
		debounce: defaultDebounce,
		timers:   make(map[string]*time.Timer),
	}
}

// SetDebounce adjusts the push coalescing window; tests set it to zero.
func (b *Broadcaster) SetDebounce(d time.Duration) {
	b.debounce = d
}

func (b *Broadcaster) QueueUpdated(department models.Department) {
	room := RoomDepartment(department)
	b.schedule(room, func() {
		b.PushDepartment(department)
	})
}

func (b *Broadcaster) WindowQueueUpdated(department models.Department, windowID string) {
	room := RoomWindow(department, windowID)
	b.schedule(room, func() {
		b.PushWindow(department, windowID)
	})
}

func (b *Broadcaster) Announce(ann announce.Announcement) {
	// Announcements are not debounced: each call/recall must be heard.
	event := AnnouncementEvent{Type: EventAnnouncement, Announcement: ann}
	b.hub.Publish(RoomDepartment(ann.Department), event)
	b.hub.Publish(RoomWindow(ann.Department, ann.WindowID), event)
}

// PushDepartment publishes a fresh department snapshot immediately.
// Used for the initial push on connect and by the debounce timer.
func (b *Broadcaster) PushDepartment(department models.Department) {
	snap := b.store.Snapshot(department)
	b.hub.Publish(RoomDepartment(department), QueueUpdateEvent{
		Type:          EventQueueUpdate,
		Department:    snap.Department,
		Queue:         snap.Queue,
		CurrentNumber: snap.CurrentNumber,
		Serving:       snap.Serving,
		Timestamp:     time.Now().Format(time.RFC3339),
	})
}

func (b *Broadcaster) PushWindow(department models.Department, windowID string) {
	snap := b.store.WindowSnapshot(department, windowID)
	b.hub.Publish(RoomWindow(department, windowID), WindowQueueUpdateEvent{
		Type:        EventWindowQueueUpdate,
		Department:  snap.Department,
		Window:      snap.Window,
		WindowQueue: snap.WindowQueue,
		Serving:     snap.Serving,
		Timestamp:   time.Now().Format(time.RFC3339),
	})
}

// SendDepartment builds the snapshot event for a single new client.
func (b *Broadcaster) SendDepartment(c *Client, department models.Department) {
	snap := b.store.Snapshot(department)
	sendJSON(c, QueueUpdateEvent{
		Type:          EventQueueUpdate,
		Department:    snap.Department,
		Queue:         snap.Queue,
		CurrentNumber: snap.CurrentNumber,
		Serving:       snap.Serving,
		Timestamp:     time.Now().Format(time.RFC3339),
	})
}

func (b *Broadcaster) SendWindow(c *Client, department models.Department, windowID string) {
	snap := b.store.WindowSnapshot(department, windowID)
	sendJSON(c, WindowQueueUpdateEvent{
		Type:        EventWindowQueueUpdate,
		Department:  snap.Department,
		Window:      snap.Window,
		WindowQueue: snap.WindowQueue,
		Serving:     snap.Serving,
		Timestamp:   time.Now().Format(time.RFC3339),
	})
}

// schedule coalesces repeated pushes for one room into a single rebuild
// after the debounce interval.
func (b *Broadcaster) schedule(room string, fire func()) {
	if b.debounce <= 0 {
		fire()
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.timers[room]; ok {
		t.Reset(b.debounce)
		return
	}
	b.timers[room] = time.AfterFunc(b.debounce, func() {
		b.mu.Lock()
		delete(b.timers, room)
		b.mu.Unlock()
		fire()
	})
}
