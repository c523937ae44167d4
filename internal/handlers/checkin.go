package handlers

import (
	"errors"
	"io"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/reparto-ops/dispatch-backend/internal/models"
	"github.com/reparto-ops/dispatch-backend/internal/services"
	"github.com/reparto-ops/dispatch-backend/internal/storage"
)

// CheckInHandler handles driver check-in requests
type CheckInHandler struct {
	checkIn *services.CheckInService
	selfies *services.SelfieService // nil when object storage is not configured
}

// NewCheckInHandler creates a new check-in handler
func NewCheckInHandler(checkIn *services.CheckInService, selfies *services.SelfieService) *CheckInHandler {
	return &CheckInHandler{
		checkIn: checkIn,
		selfies: selfies,
	}
}

// CheckIn admits a driver into the waiting queue
func (h *CheckInHandler) CheckIn(c *fiber.Ctx) error {
	var req models.CheckInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	record, alerts, err := h.checkIn.CheckIn(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields), errors.Is(err, services.ErrMissingLocation):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, services.ErrOutsideGeofence):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You are outside the check-in zone",
			})
		case errors.Is(err, services.ErrAlreadyQueued):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":  err.Error(),
				"alerts": alerts,
			})
		case errors.Is(err, storage.ErrNotEligible):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Driver is not eligible for check-in",
			})
		}
		log.Printf("Check-in failed for device %s: %v", req.DeviceID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check in",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Checked in successfully",
		"record":  record,
		"alerts":  alerts,
	})
}

// UploadSelfie stores a check-in selfie and returns its public URL. Clients
// call this first, then pass the URL in the check-in payload.
func (h *CheckInHandler) UploadSelfie(c *fiber.Ctx) error {
	if h.selfies == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Selfie storage is not configured",
		})
	}

	deviceID := c.FormValue("device_id")
	if deviceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Device ID is required",
		})
	}

	fileHeader, err := c.FormFile("selfie")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Selfie file is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to read selfie file",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to read selfie file",
		})
	}

	url, err := h.selfies.Upload(deviceID, data, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		log.Printf("Selfie upload failed for device %s: %v", deviceID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store selfie",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"selfie_url": url,
	})
}
