package handlers

import (
	"github.com/aiwork-marketplace/backend/internal/http/dto"
	"github.com/aiwork-marketplace/backend/internal/middleware"
	"github.com/aiwork-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *services.AuthService
	log         *zap.Logger
}

func NewAuthHandler(authService *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

// POST /auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	user, token, err := h.authService.Register(c.Context(), services.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        req.Role,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.AuthResponse{Token: token, User: user})
}

// POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	user, token, err := h.authService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.AuthResponse{Token: token, User: user})
}

// GET /me
func (h *AuthHandler) GetMe(c *fiber.Ctx) error {
	user, err := h.authService.GetUser(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: user})
}

// POST /me/simulation-mode
func (h *AuthHandler) SetSimulationMode(c *fiber.Ctx) error {
	var req dto.SetSimulationModeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.authService.SetSimulationMode(c.Context(), middleware.GetUserID(c), req.Enabled); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
