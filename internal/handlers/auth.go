package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/reparto-ops/dispatch-backend/internal/services"
)

// AuthHandler issues session tokens for coordinators and admins
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login exchanges a role password for a session token
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Role     string `json:"role"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Role != services.RoleCoordinator && req.Role != services.RoleAdmin {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Role must be 'coordinator' or 'admin'",
		})
	}

	token, err := h.auth.Login(req.Role, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid credentials",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create session",
		})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"role":  req.Role,
	})
}
