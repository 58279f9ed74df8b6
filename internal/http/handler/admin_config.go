package handler

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"campus-queue-backend/internal/models"
	"campus-queue-backend/internal/queue"
)

/*
|--------------------------------------------------------------------------
| Service configuration
|--------------------------------------------------------------------------
| All mutations go through the directory, which rejects them with
| ConfigLocked while the department's queueing is enabled.
*/

func (h *Handler) CreateService(c *fiber.Ctx) error {
	var req models.CreateServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	department := models.Department(req.Department)
	if req.ID == "" || req.Name == "" || !department.Valid() {
		return badRequest(c, "id, name and a valid department are required")
	}

	rej := h.Directory.CreateService(models.Service{
		ID:         req.ID,
		Department: department,
		Name:       req.Name,
		IsActive:   req.IsActive,
	})
	if rej != nil {
		return rejected(c, rej)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Service created",
	})
}

func (h *Handler) UpdateService(c *fiber.Ctx) error {
	var req models.UpdateServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if rej := h.Directory.UpdateService(c.Params("id"), req); rej != nil {
		return rejected(c, rej)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Service updated",
	})
}

/*
|--------------------------------------------------------------------------
| Window configuration
|--------------------------------------------------------------------------
*/

func (h *Handler) CreateWindow(c *fiber.Ctx) error {
	var req models.CreateWindowRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	department := models.Department(req.Department)
	if req.ID == "" || req.Name == "" || !department.Valid() {
		return badRequest(c, "id, name and a valid department are required")
	}

	rej := h.Directory.CreateWindow(models.Window{
		ID:            req.ID,
		Name:          req.Name,
		Department:    department,
		ServiceIDs:    req.ServiceIDs,
		AssignedAdmin: req.AssignedAdmin,
		IsOpen:        req.IsOpen,
		IsPriority:    req.IsPriority,
	})
	if rej != nil {
		return rejected(c, rej)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Window created",
	})
}

func (h *Handler) UpdateWindow(c *fiber.Ctx) error {
	var req models.UpdateWindowRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if rej := h.Directory.UpdateWindow(c.Params("id"), req); rej != nil {
		return rejected(c, rej)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Window updated",
	})
}

/*
|--------------------------------------------------------------------------
| Operational controls
|--------------------------------------------------------------------------
*/

type setEnabledRequest struct {
	Department string `json:"department"`
	Enabled    bool   `json:"enabled"`
}

// SetEnabled flips the department's operational lock. While enabled,
// commands flow and configuration is frozen.
func (h *Handler) SetEnabled(c *fiber.Ctx) error {
	var req setEnabledRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	department := models.Department(req.Department)
	if !department.Valid() {
		return badRequest(c, "Unknown department")
	}

	h.Directory.SetEnabled(department, req.Enabled)
	state := "disabled"
	if req.Enabled {
		state = "enabled"
	}
	log.Printf("[config] queueing %s for %s", state, department)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Queueing " + state,
	})
}

type resetDayRequest struct {
	Department string `json:"department"`
	Day        string `json:"day"` // "2006-01-02"
}

// ResetDay triggers the daily rollover manually. Idempotent per day.
func (h *Handler) ResetDay(c *fiber.Ctx) error {
	var req resetDayRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	department := models.Department(req.Department)
	if !department.Valid() || req.Day == "" {
		return badRequest(c, "A valid department and day are required")
	}
	if h.Directory.Enabled(department) {
		return rejected(c, &queue.Rejection{
			Reason: queue.ReasonConfigLocked,
			Detail: "disable queueing before resetting the day",
		})
	}

	if err := h.Store.ResetDay(c.Context(), department, req.Day); err != nil {
		log.Printf("[config] reset day failed: %v", err)
		return serverError(c, "Could not reset the day")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Day reset",
	})
}
