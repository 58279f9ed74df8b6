package handler

import (
	"github.com/gofiber/fiber/v2"

	"campus-queue-backend/internal/queue"
	"campus-queue-backend/internal/realtime"
)

// Handler binds the queue engine to the HTTP and websocket surface.
type Handler struct {
	Store       *queue.Store
	Directory   *queue.Directory
	Router      *queue.Router
	Processor   *queue.Processor
	Hub         *realtime.Hub
	Broadcaster *realtime.Broadcaster

	// Service hours for kiosk issuance, "HH:MM".
	OpensAt  string
	ClosesAt string
}

// rejectStatus maps each rejection reason to an HTTP status. All of
// these are expected outcomes; the admin UI presents them as calm,
// actionable messages, never as crashes.
func rejectStatus(reason queue.Reason) int {
	switch reason {
	case queue.ReasonEmptyQueue, queue.ReasonNotServing, queue.ReasonStaleState:
		return fiber.StatusConflict
	case queue.ReasonBusy:
		return fiber.StatusLocked
	case queue.ReasonInvalidAssignment:
		return fiber.StatusBadRequest
	case queue.ReasonConfigLocked:
		return fiber.StatusConflict
	default:
		return fiber.StatusBadRequest
	}
}

// rejectMessage is the user-facing wording per reason.
func rejectMessage(rej *queue.Rejection) string {
	switch rej.Reason {
	case queue.ReasonEmptyQueue:
		return "Nothing to call, the queue is empty"
	case queue.ReasonBusy:
		return "Already called by another window, refreshing"
	case queue.ReasonStaleState:
		return "Queue state changed, please refresh"
	case queue.ReasonNotServing:
		return "This number is not currently being served"
	case queue.ReasonInvalidAssignment:
		return "This service or window is not available"
	case queue.ReasonConfigLocked:
		return "Settings are locked while queueing is active"
	default:
		return rej.String()
	}
}

func rejected(c *fiber.Ctx, rej *queue.Rejection) error {
	return c.Status(rejectStatus(rej.Reason)).JSON(fiber.Map{
		"success": false,
		"reason":  rej.Reason,
		"error":   rejectMessage(rej),
	})
}

func serverError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}
