package handlers

import (
	"errors"
	"log"

	"fabula/pkg/models"
	"fabula/pkg/services"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	svc services.AuthService
}

func NewAuth(svc services.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	pair, err := h.svc.Login(req, c.Get("User-Agent"), c.IP())
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(pair)
}

// POST /auth/refresh-tokens
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req models.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	pair, err := h.svc.Refresh(req, c.Get("User-Agent"), c.IP())
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(pair)
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req models.LogoutRequest
	_ = c.BodyParser(&req)

	if err := h.svc.Logout(req.RefreshToken); err != nil {
		return authError(c, err)
	}
	return c.JSON(fiber.Map{"message": "logged out"})
}

// POST /auth/logout-all-sessions
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int)

	if err := h.svc.LogoutAll(userID); err != nil {
		return authError(c, err)
	}
	return c.JSON(fiber.Map{"message": "all sessions closed"})
}

// GET /auth/sessions
func (h *AuthHandler) Sessions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int)
	sessionID, _ := c.Locals("session_id").(int)

	views, err := h.svc.Sessions(userID, sessionID)
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(views)
}

// authError maps service errors to responses. The two denial kinds are
// both 401 with a generic message; everything else is an opaque 500.
func authError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrAccessDenied) || errors.Is(err, services.ErrInvalidCredentials) {
		return c.Status(401).JSON(fiber.Map{"error": "access denied"})
	}
	log.Printf("[AUTH] %s failed: %v", c.Path(), err)
	return c.Status(500).JSON(fiber.Map{"error": "internal error"})
}
