package handlers

import (
	"github.com/aiwork-marketplace/backend/internal/http/dto"
	"github.com/aiwork-marketplace/backend/internal/middleware"
	"github.com/aiwork-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	log            *zap.Logger
}

func NewPaymentHandler(paymentService *services.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, log: log}
}

// POST /milestones/:id/payment-requests
func (h *PaymentHandler) RequestPayment(c *fiber.Ctx) error {
	milestoneID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid milestone id")
	}
	var req dto.RequestPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	note := ""
	if req.Note != nil {
		note = *req.Note
	}

	request, err := h.paymentService.Request(c.Context(), milestoneID, middleware.GetUserID(c), note)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: request})
}

// GET /milestones/:id/payment-requests
func (h *PaymentHandler) ListPaymentRequests(c *fiber.Ctx) error {
	milestoneID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid milestone id")
	}
	requests, err := h.paymentService.ListByMilestone(c.Context(), milestoneID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: requests})
}

// GET /payment-requests/:id
func (h *PaymentHandler) GetPaymentRequest(c *fiber.Ctx) error {
	requestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid payment request id")
	}
	request, err := h.paymentService.GetRequest(c.Context(), requestID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: request})
}

// POST /payment-requests/:id/approve
func (h *PaymentHandler) ApprovePayment(c *fiber.Ctx) error {
	requestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid payment request id")
	}
	result, err := h.paymentService.Approve(c.Context(), requestID, middleware.GetUserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}

// POST /payment-requests/:id/reject
func (h *PaymentHandler) RejectPayment(c *fiber.Ctx) error {
	requestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid payment request id")
	}
	var req dto.RejectPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	request, err := h.paymentService.Reject(c.Context(), requestID, middleware.GetUserID(c), req.Reason)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: request})
}
