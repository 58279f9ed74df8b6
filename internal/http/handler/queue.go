package handler

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"campus-queue-backend/internal/helper"
	"campus-queue-backend/internal/models"
	"campus-queue-backend/internal/monitoring"
	"campus-queue-backend/internal/queue"
)

func outcome(rej *queue.Rejection) string {
	if rej == nil {
		return "ok"
	}
	return string(rej.Reason)
}

// Issue - kiosk endpoint for taking a queue number.
func (h *Handler) Issue(c *fiber.Ctx) error {
	var req models.IssueRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Department == "" || req.Service == "" || req.FullName == "" {
		return badRequest(c, "department, service and full_name are required")
	}

	if !helper.IsQueueOpen(time.Now(), h.OpensAt, h.ClosesAt) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "Queueing is closed right now",
			"opens":   h.OpensAt,
			"closes":  h.ClosesAt,
		})
	}

	department := models.Department(req.Department)
	entry, rej, err := h.Processor.Issue(c.Context(), department, req.Service, queue.PersonDetails{
		FullName: req.FullName,
		Purpose:  req.Purpose,
		Contact:  req.Contact,
		Priority: req.Priority,
	})
	monitoring.TrackCommand("issue", department, outcome(rej))
	if err != nil {
		log.Printf("[queue] issue failed: %v", err)
		return serverError(c, "Could not issue a queue number, please try again shortly")
	}
	if rej != nil {
		return rejected(c, rej)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Queue number issued",
		"data": fiber.Map{
			"entry":        entry,
			"queue_number": entry.QueueNumber,
		},
	})
}

// CallNext - admin endpoint to pull the next eligible entry for a window.
func (h *Handler) CallNext(c *fiber.Ctx) error {
	var req models.CallNextRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Department == "" || req.WindowID == "" {
		return badRequest(c, "department and window_id are required")
	}

	department := models.Department(req.Department)
	entry, rej, err := h.Processor.CallNext(c.Context(), department, req.WindowID)
	monitoring.TrackCommand("call_next", department, outcome(rej))
	if err != nil {
		log.Printf("[queue] call next failed: %v", err)
		return serverError(c, "Could not call the next number")
	}
	if rej != nil {
		return rejected(c, rej)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Next number called",
		"data": fiber.Map{
			"entry":  entry,
			"window": req.WindowID,
		},
	})
}

// Complete - admin endpoint to finish the entry being served.
func (h *Handler) Complete(c *fiber.Ctx) error {
	var req models.CompleteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Department == "" || req.EntryID == "" {
		return badRequest(c, "department and entry_id are required")
	}

	department := models.Department(req.Department)
	entry, rej, err := h.Processor.Complete(c.Context(), department, req.EntryID)
	monitoring.TrackCommand("complete", department, outcome(rej))
	if err != nil {
		log.Printf("[queue] complete failed: %v", err)
		return serverError(c, "Could not complete the entry")
	}
	if rej != nil {
		return rejected(c, rej)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Entry completed",
		"data":    fiber.Map{"entry": entry},
	})
}

// Recall - admin endpoint to re-announce the entry being served.
func (h *Handler) Recall(c *fiber.Ctx) error {
	var req models.RecallRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Department == "" || req.EntryID == "" {
		return badRequest(c, "department and entry_id are required")
	}

	department := models.Department(req.Department)
	entry, rej, err := h.Processor.Recall(c.Context(), department, req.EntryID)
	monitoring.TrackCommand("recall", department, outcome(rej))
	if err != nil {
		log.Printf("[queue] recall failed: %v", err)
		return serverError(c, "Could not recall the entry")
	}
	if rej != nil {
		return rejected(c, rej)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Entry recalled",
		"data":    fiber.Map{"entry": entry},
	})
}

// Transfer - admin endpoint to hand the serving entry to another window.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req models.TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Department == "" || req.EntryID == "" || req.NewWindowID == "" {
		return badRequest(c, "department, entry_id and new_window_id are required")
	}

	department := models.Department(req.Department)
	entry, rej, err := h.Processor.Transfer(c.Context(), department, req.EntryID, req.NewWindowID)
	monitoring.TrackCommand("transfer", department, outcome(rej))
	if err != nil {
		log.Printf("[queue] transfer failed: %v", err)
		return serverError(c, "Could not transfer the entry")
	}
	if rej != nil {
		return rejected(c, rej)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Entry transferred, the receiving window will pick it up",
		"data":    fiber.Map{"entry": entry},
	})
}
