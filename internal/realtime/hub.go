package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"campus-queue-backend/internal/models"
)

// RoomDepartment is the room every display and overview console of a
// department joins.
func RoomDepartment(department models.Department) string {
	return string(department)
}

// RoomWindow is the room for one window's admin console.
func RoomWindow(department models.Department, windowID string) string {
	return fmt.Sprintf("%s:%s", department, windowID)
}

// Client is one subscribed connection. Outbound messages go through a
// bounded queue drained by a single writer goroutine, so events reach
// each client in publish order while the publisher never blocks. When
// the queue is full the message is dropped; delivery is best-effort and
// a client recovers by pulling a snapshot.
type Client struct {
	id     string
	write  func([]byte) error
	queue  chan []byte
	done   chan struct{}
	closed atomic.Bool
}

const clientQueueSize = 32

var clientCounter uint64 // atomic

// NewClient wraps a transport write function. The caller owns the
// underlying connection; Close stops the writer and is safe to call
// more than once.
func NewClient(write func([]byte) error) *Client {
	c := &Client{
		id:    fmt.Sprintf("client-%d", atomic.AddUint64(&clientCounter, 1)),
		write: write,
		queue: make(chan []byte, clientQueueSize),
		done:  make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

func (c *Client) ID() string { return c.id }

func (c *Client) writeLoop() {
	for {
		select {
		case msg := <-c.queue:
			if err := c.write(msg); err != nil {
				log.Printf("[hub] %s write error: %v", c.id, err)
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) enqueue(msg []byte) {
	if c.closed.Load() {
		return
	}
	select {
	case c.queue <- msg:
	default:
		// Full queue means a slow consumer. Drop; it can re-sync
		// from a snapshot pull.
		log.Printf("[hub] %s queue full, dropping message", c.id)
	}
}

func (c *Client) Close() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.done)
	}
}

// Closed reports whether the client's writer has stopped.
func (c *Client) Closed() bool { return c.closed.Load() }

// Hub is the room-scoped fan-out. A state change is published to both
// the department room and the affected window room, so overview
// dashboards and per-window consoles stay consistent without deriving
// each other's scope.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}

	// onCount, when set, observes room membership changes (metrics).
	onCount func(room string, n int)
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

// OnRoomCount registers a membership observer. Must be called before
// the hub is shared.
func (h *Hub) OnRoomCount(fn func(room string, n int)) {
	h.onCount = fn
}

func (h *Hub) Subscribe(c *Client, room string) {
	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	n := len(members)
	h.mu.Unlock()

	log.Printf("[hub] %s joined %s, members: %d", c.id, room, n)
	if h.onCount != nil {
		h.onCount(room, n)
	}
}

// Unsubscribe removes the client from every room and stops its writer.
func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	var touched []string
	counts := make(map[string]int)
	for room, members := range h.rooms {
		if _, ok := members[c]; ok {
			delete(members, c)
			touched = append(touched, room)
			counts[room] = len(members)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	h.mu.Unlock()

	c.Close()
	for _, room := range touched {
		log.Printf("[hub] %s left %s, members: %d", c.id, room, counts[room])
		if h.onCount != nil {
			h.onCount(room, counts[room])
		}
	}
}

// Publish marshals the event and queues it to every member of the room.
// Fire-and-forget from the caller's perspective: enqueueing never
// blocks on subscriber delivery.
func (h *Hub) Publish(room string, event interface{}) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("[hub] marshal for %s failed: %v", room, err)
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		c.enqueue(msg)
	}
}

// sendJSON queues one event to a single client, outside any room.
func sendJSON(c *Client, event interface{}) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("[hub] marshal for %s failed: %v", c.id, err)
		return
	}
	c.enqueue(msg)
}

// RoomSize reports current membership; used by monitoring.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
