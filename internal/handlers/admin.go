package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/reparto-ops/dispatch-backend/internal/models"
	"github.com/reparto-ops/dispatch-backend/internal/services"
	"github.com/reparto-ops/dispatch-backend/internal/storage"
)

// AdminHandler handles registry administration, scheduled rosters and alerts.
// Driver edits here bypass the status state machine on purpose.
type AdminHandler struct {
	store  storage.Store
	roster *services.RosterService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store storage.Store, roster *services.RosterService) *AdminHandler {
	return &AdminHandler{
		store:  store,
		roster: roster,
	}
}

// CreateDriver registers a driver without a check-in
func (h *AdminHandler) CreateDriver(c *fiber.Ctx) error {
	var req models.DriverRegistration
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}
	if req.VehicleType != "" && req.VehicleType != models.VehicleTypeCar && req.VehicleType != models.VehicleTypeMotorcycle {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Vehicle type must be 'car' or 'motorcycle'",
		})
	}

	driver, err := h.store.CreateDriver(&req)
	if err != nil {
		log.Printf("Failed to create driver %q: %v", req.Name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create driver",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Driver created",
		"driver":  driver,
	})
}

// UpdateDriver edits driver fields directly
func (h *AdminHandler) UpdateDriver(c *fiber.Ctx) error {
	driverID := c.Params("driverID")

	driver, err := h.store.GetDriver(driverID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Driver not found",
		})
	}

	var req struct {
		Name        *string `json:"name"`
		VehicleType *string `json:"vehicle_type"`
		Status      *string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name != nil {
		if *req.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Name must not be empty",
			})
		}
		driver.Name = *req.Name
	}
	if req.VehicleType != nil {
		if *req.VehicleType != "" && *req.VehicleType != models.VehicleTypeCar && *req.VehicleType != models.VehicleTypeMotorcycle {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Vehicle type must be 'car' or 'motorcycle'",
			})
		}
		driver.VehicleType = *req.VehicleType
	}
	if req.Status != nil {
		if !models.ValidDriverStatus(*req.Status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid status value",
			})
		}
		driver.Status = *req.Status
	}

	if err := h.store.UpdateDriver(driver); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update driver",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Driver updated",
		"driver":  driver,
	})
}

// DeleteDriver removes a driver from the registry
func (h *AdminHandler) DeleteDriver(c *fiber.Ctx) error {
	driverID := c.Params("driverID")

	if err := h.store.DeleteDriver(driverID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Driver not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete driver",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Driver deleted",
	})
}

// ImportRoster pre-populates a future day's queue
func (h *AdminHandler) ImportRoster(c *fiber.Ctx) error {
	var req struct {
		Date  string   `json:"date"` // "2006-01-02"
		Time  string   `json:"time"` // "15:04"
		Names []string `json:"names"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	inserted, err := h.roster.Import(req.Date, req.Time, req.Names)
	if err != nil {
		if errors.Is(err, services.ErrEmptyRoster) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Roster has no names",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Roster imported",
		"inserted": inserted,
	})
}

// GetAlerts lists recorded fraud alerts
func (h *AdminHandler) GetAlerts(c *fiber.Ctx) error {
	alerts, err := h.store.GetFraudAlerts()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve alerts",
		})
	}
	return c.JSON(fiber.Map{"alerts": alerts, "count": len(alerts)})
}

// ClearAlerts deletes all fraud alerts
func (h *AdminHandler) ClearAlerts(c *fiber.Ctx) error {
	cleared, err := h.store.ClearFraudAlerts()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to clear alerts",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Alerts cleared",
		"cleared": cleared,
	})
}
