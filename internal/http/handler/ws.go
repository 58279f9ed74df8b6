package handler

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"campus-queue-backend/internal/models"
	"campus-queue-backend/internal/monitoring"
	"campus-queue-backend/internal/realtime"
)

const (
	pongWait      = 60 * time.Second
	pingInterval  = 20 * time.Second
	writeDeadline = 3 * time.Second
)

// DepartmentWS - websocket endpoint for displays and overview consoles.
// Joins the department room, receives an initial snapshot, then every
// queue_update and announcement for the department.
func (h *Handler) DepartmentWS(c *websocket.Conn) {
	department := models.Department(c.Params("department"))
	if !department.Valid() {
		_ = c.WriteJSON(map[string]string{"type": "error", "message": "unknown department"})
		return
	}

	client := h.attach(c)
	room := realtime.RoomDepartment(department)
	h.Hub.Subscribe(client, room)
	defer h.Hub.Unsubscribe(client)

	h.Broadcaster.SendDepartment(client, department)
	h.readLoop(c, client)
}

// WindowWS - websocket endpoint for one window's admin console. Joins
// the window room; window_queue_update events are scoped to the
// entries this window can pull.
func (h *Handler) WindowWS(c *websocket.Conn) {
	department := models.Department(c.Params("department"))
	windowID := c.Params("windowId")
	if !department.Valid() || h.Directory.WindowFor(windowID) == nil {
		_ = c.WriteJSON(map[string]string{"type": "error", "message": "unknown department or window"})
		return
	}

	client := h.attach(c)
	room := realtime.RoomWindow(department, windowID)
	h.Hub.Subscribe(client, room)
	defer h.Hub.Unsubscribe(client)

	h.Broadcaster.SendWindow(client, department, windowID)
	h.readLoop(c, client)
}

// attach wraps the websocket connection as a hub client with a guarded
// writer, and wires metrics for room membership.
func (h *Handler) attach(c *websocket.Conn) *realtime.Client {
	var writeMux sync.Mutex
	client := realtime.NewClient(func(msg []byte) error {
		writeMux.Lock()
		defer writeMux.Unlock()
		c.SetWriteDeadline(time.Now().Add(writeDeadline))
		return c.WriteMessage(websocket.TextMessage, msg)
	})

	c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Ping ticker keeps the connection alive and detects dead peers.
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for range ticker.C {
			if client.Closed() {
				return
			}
			writeMux.Lock()
			c.SetWriteDeadline(time.Now().Add(writeDeadline))
			err := c.WriteMessage(websocket.PingMessage, nil)
			writeMux.Unlock()
			if err != nil {
				log.Printf("[ws] %s ping error: %v", client.ID(), err)
				client.Close()
				return
			}
		}
	}()

	log.Printf("[ws] %s connected from %s", client.ID(), c.RemoteAddr())
	return client
}

func (h *Handler) readLoop(c *websocket.Conn, client *realtime.Client) {
	defer func() {
		_ = c.Close()
	}()
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure,
			) {
				log.Printf("[ws] %s unexpected close: %v", client.ID(), err)
			} else {
				log.Printf("[ws] %s closed", client.ID())
			}
			return
		}
	}
}

// WireRoomMetrics connects hub membership to the subscriber gauge.
func (h *Handler) WireRoomMetrics() {
	h.Hub.OnRoomCount(monitoring.TrackRoom)
}
