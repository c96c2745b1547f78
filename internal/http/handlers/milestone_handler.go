package handlers

import (
	"github.com/aiwork-marketplace/backend/internal/http/dto"
	"github.com/aiwork-marketplace/backend/internal/middleware"
	"github.com/aiwork-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MilestoneHandler struct {
	milestoneService *services.MilestoneService
	log              *zap.Logger
}

func NewMilestoneHandler(milestoneService *services.MilestoneService, log *zap.Logger) *MilestoneHandler {
	return &MilestoneHandler{milestoneService: milestoneService, log: log}
}

// GET /milestones/:id
func (h *MilestoneHandler) GetMilestone(c *fiber.Ctx) error {
	milestoneID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid milestone id")
	}
	milestone, err := h.milestoneService.GetMilestone(c.Context(), milestoneID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: milestone})
}

// POST /milestones/:id/start
func (h *MilestoneHandler) StartMilestone(c *fiber.Ctx) error {
	milestoneID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid milestone id")
	}
	if err := h.milestoneService.Start(c.Context(), milestoneID, middleware.GetUserID(c)); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// POST /milestones/:id/complete
func (h *MilestoneHandler) CompleteMilestone(c *fiber.Ctx) error {
	milestoneID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid milestone id")
	}
	var req dto.CompleteMilestoneRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.milestoneService.Complete(c.Context(), milestoneID, middleware.GetUserID(c), req.Note); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// POST /milestones/:id/reject
func (h *MilestoneHandler) RejectDeliverable(c *fiber.Ctx) error {
	milestoneID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid milestone id")
	}
	var req dto.RejectDeliverableRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.milestoneService.RejectDeliverable(c.Context(), milestoneID, middleware.GetUserID(c), req.Reason); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// POST /milestones/:id/cancel
func (h *MilestoneHandler) CancelMilestone(c *fiber.Ctx) error {
	milestoneID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid milestone id")
	}
	if err := h.milestoneService.Cancel(c.Context(), milestoneID, middleware.GetUserID(c)); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
