package handler

import (
	"github.com/gofiber/fiber/v2"

	"campus-queue-backend/internal/models"
)

// GetSnapshot - pull fallback returning the same shape as the push
// events, for reconnect and recovery.
func (h *Handler) GetSnapshot(c *fiber.Ctx) error {
	department := models.Department(c.Params("department"))
	if !department.Valid() {
		return badRequest(c, "Unknown department")
	}

	snap := h.Store.Snapshot(department)
	return c.JSON(fiber.Map{
		"success": true,
		"data":    snap,
	})
}

// GetWindowSnapshot - pull fallback scoped to one window's partition.
func (h *Handler) GetWindowSnapshot(c *fiber.Ctx) error {
	department := models.Department(c.Params("department"))
	if !department.Valid() {
		return badRequest(c, "Unknown department")
	}
	windowID := c.Params("windowId")
	if h.Directory.WindowFor(windowID) == nil {
		return badRequest(c, "Unknown window")
	}

	snap := h.Store.WindowSnapshot(department, windowID)
	return c.JSON(fiber.Map{
		"success": true,
		"data":    snap,
	})
}

// GetServices - kiosk directory listing for one department.
func (h *Handler) GetServices(c *fiber.Ctx) error {
	department := models.Department(c.Params("department"))
	if !department.Valid() {
		return badRequest(c, "Unknown department")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.Directory.ServicesFor(department),
	})
}

// GetWindows - admin listing of a department's windows.
func (h *Handler) GetWindows(c *fiber.Ctx) error {
	department := models.Department(c.Params("department"))
	if !department.Valid() {
		return badRequest(c, "Unknown department")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.Directory.WindowsFor(department),
	})
}
