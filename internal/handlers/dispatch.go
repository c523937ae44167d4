package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/reparto-ops/dispatch-backend/internal/services"
	"github.com/reparto-ops/dispatch-backend/internal/storage"
)

// DispatchHandler handles coordinator queue actions
type DispatchHandler struct {
	dispatch *services.DispatchService
	bags     *services.BagService
}

// NewDispatchHandler creates a new dispatch handler
func NewDispatchHandler(dispatch *services.DispatchService, bags *services.BagService) *DispatchHandler {
	return &DispatchHandler{
		dispatch: dispatch,
		bags:     bags,
	}
}

// StartQueue bulk-admits every inactive driver with a pending roster slot
func (h *DispatchHandler) StartQueue(c *fiber.Ctx) error {
	started, err := h.dispatch.StartQueue()
	if err != nil {
		log.Printf("Failed to start queue: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start queue",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Queue started",
		"started": started,
	})
}

// DispatchDriver marks a queued driver out with a bag count
func (h *DispatchHandler) DispatchDriver(c *fiber.Ctx) error {
	driverID := c.Params("driverID")

	var req struct {
		BagsTaken       int    `json:"bags_taken"`
		DestinationArea string `json:"destination_area"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	record, err := h.dispatch.Dispatch(driverID, req.BagsTaken, req.DestinationArea)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidBagCount):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Bag count must not be negative",
			})
		case errors.Is(err, storage.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Driver not found",
			})
		case errors.Is(err, storage.ErrNoActiveRecord):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Driver has no queued dispatch record",
			})
		}
		log.Printf("Failed to dispatch driver %s: %v", driverID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to dispatch driver",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Driver dispatched",
		"record":  record,
	})
}

// EndShift completes all dispatched records; rejected while records are queued
func (h *DispatchHandler) EndShift(c *fiber.Ctx) error {
	ended, err := h.dispatch.EndShift()
	if err != nil {
		if errors.Is(err, storage.ErrQueueNotEmpty) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Cannot end shift while drivers remain queued",
			})
		}
		log.Printf("Failed to end shift: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to end shift",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Shift ended",
		"ended":   ended,
	})
}

// CancelDriver withdraws one driver's active queue entry
func (h *DispatchHandler) CancelDriver(c *fiber.Ctx) error {
	driverID := c.Params("driverID")

	if err := h.dispatch.Cancel(driverID); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Driver not found",
			})
		case errors.Is(err, storage.ErrNoActiveRecord):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Driver has no active queue entry",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to cancel queue entry",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Queue entry cancelled",
	})
}

// CancelAllPending clears the whole waiting queue
func (h *DispatchHandler) CancelAllPending(c *fiber.Ctx) error {
	cancelled, err := h.dispatch.CancelAllPending()
	if err != nil {
		log.Printf("Failed to cancel pending entries: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to cancel pending entries",
		})
	}
	return c.JSON(fiber.Map{
		"message":   "Pending entries cancelled",
		"cancelled": cancelled,
	})
}

// ReturnBags records bags handed back by a driver
func (h *DispatchHandler) ReturnBags(c *fiber.Ctx) error {
	driverID := c.Params("driverID")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	balance, err := h.bags.Return(driverID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Driver not found",
			})
		case errors.Is(err, storage.ErrInsufficientBags):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":       "Return exceeds the driver's bag balance",
				"bag_balance": balance,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record bag return",
		})
	}

	return c.JSON(fiber.Map{
		"message":     "Bags returned",
		"bag_balance": balance,
	})
}
