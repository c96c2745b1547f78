package handlers

import (
	"github.com/aiwork-marketplace/backend/internal/http/dto"
	"github.com/aiwork-marketplace/backend/internal/middleware"
	"github.com/aiwork-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type DisputeHandler struct {
	disputeService *services.DisputeService
	log            *zap.Logger
}

func NewDisputeHandler(disputeService *services.DisputeService, log *zap.Logger) *DisputeHandler {
	return &DisputeHandler{disputeService: disputeService, log: log}
}

// POST /disputes
func (h *DisputeHandler) OpenDispute(c *fiber.Ctx) error {
	var req dto.OpenDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	milestoneID, err := uuid.Parse(req.MilestoneID)
	if err != nil {
		return badRequest(c, "invalid milestone_id")
	}
	notes := ""
	if req.Notes != nil {
		notes = *req.Notes
	}

	dispute, err := h.disputeService.Open(c.Context(), milestoneID, middleware.GetUserID(c), notes)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: dispute})
}

// GET /disputes/:id
func (h *DisputeHandler) GetDispute(c *fiber.Ctx) error {
	disputeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid dispute id")
	}
	dispute, err := h.disputeService.Get(c.Context(), disputeID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dispute})
}

// GET /projects/:id/disputes
func (h *DisputeHandler) ListProjectDisputes(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}
	disputes, err := h.disputeService.ListByProject(c.Context(), projectID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: disputes})
}

// POST /disputes/:id/resolve
func (h *DisputeHandler) ResolveDispute(c *fiber.Ctx) error {
	disputeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid dispute id")
	}
	var req dto.ResolveDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	input := services.ResolutionInput{Resolution: req.Resolution}
	if req.Notes != nil {
		input.Notes = *req.Notes
	}
	if req.SplitClient != nil {
		if input.SplitClient, err = decimal.NewFromString(*req.SplitClient); err != nil {
			return badRequest(c, "invalid split_client")
		}
	}
	if req.SplitVendor != nil {
		if input.SplitVendor, err = decimal.NewFromString(*req.SplitVendor); err != nil {
			return badRequest(c, "invalid split_vendor")
		}
	}

	dispute, err := h.disputeService.Resolve(c.Context(), disputeID, middleware.GetUserID(c), input)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dispute})
}
