package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/reparto-ops/dispatch-backend/internal/services"
	"github.com/reparto-ops/dispatch-backend/internal/storage"
)

// DriverHandler serves driver registry and queue views
type DriverHandler struct {
	store    storage.Store
	dispatch *services.DispatchService
	bags     *services.BagService
}

// NewDriverHandler creates a new driver handler
func NewDriverHandler(store storage.Store, dispatch *services.DispatchService, bags *services.BagService) *DriverHandler {
	return &DriverHandler{
		store:    store,
		dispatch: dispatch,
		bags:     bags,
	}
}

// GetDrivers lists the whole registry, optionally filtered by status
func (h *DriverHandler) GetDrivers(c *fiber.Ctx) error {
	status := c.Query("status")

	if status != "" {
		drivers, err := h.store.GetDriversByStatus(status)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to retrieve drivers",
			})
		}
		return c.JSON(fiber.Map{"drivers": drivers, "count": len(drivers)})
	}

	drivers, err := h.store.GetAllDrivers()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve drivers",
		})
	}
	return c.JSON(fiber.Map{"drivers": drivers, "count": len(drivers)})
}

// GetDriver retrieves a driver by ID
func (h *DriverHandler) GetDriver(c *fiber.Ctx) error {
	driverID := c.Params("driverID")

	driver, err := h.store.GetDriver(driverID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Driver not found",
		})
	}
	return c.JSON(driver)
}

// GetDriverBags returns the bag balance and its audit trail
func (h *DriverHandler) GetDriverBags(c *fiber.Ctx) error {
	driverID := c.Params("driverID")

	balance, err := h.bags.Balance(driverID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Driver not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve bag balance",
		})
	}

	txs, err := h.bags.Transactions(driverID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve bag transactions",
		})
	}

	return c.JSON(fiber.Map{
		"driver_id":    driverID,
		"bag_balance":  balance,
		"transactions": txs,
	})
}

// GetQueue returns the waiting-room view ordered by start time
func (h *DriverHandler) GetQueue(c *fiber.Ctx) error {
	records, err := h.dispatch.WaitingQueue()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve queue",
		})
	}
	return c.JSON(fiber.Map{"records": records, "count": len(records)})
}

// GetActiveDispatches returns drivers currently out on delivery
func (h *DriverHandler) GetActiveDispatches(c *fiber.Ctx) error {
	records, err := h.dispatch.ActiveDispatches()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve active dispatches",
		})
	}
	return c.JSON(fiber.Map{"records": records, "count": len(records)})
}

// GetQueueSnapshot reports queue depth for dashboard polling
func (h *DriverHandler) GetQueueSnapshot(c *fiber.Ctx) error {
	snap, err := h.dispatch.Snapshot()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve queue snapshot",
		})
	}
	return c.JSON(snap)
}
