package handlers

import (
	"github.com/aiwork-marketplace/backend/internal/http/dto"
	"github.com/aiwork-marketplace/backend/internal/middleware"
	"github.com/aiwork-marketplace/backend/internal/repositories"
	"github.com/aiwork-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AdminHandler struct {
	ledger    *services.LedgerService
	auditRepo *repositories.AuditRepo
	log       *zap.Logger
}

func NewAdminHandler(ledger *services.LedgerService, auditRepo *repositories.AuditRepo, log *zap.Logger) *AdminHandler {
	return &AdminHandler{ledger: ledger, auditRepo: auditRepo, log: log}
}

// POST /admin/accounts/:id/adjust
func (h *AdminHandler) AdjustBalance(c *fiber.Ctx) error {
	accountID, err := parseAccountID(c)
	if err != nil {
		return badRequest(c, "invalid account id")
	}
	var req dto.AdjustBalanceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return badRequest(c, "invalid amount")
	}

	txn, err := h.ledger.AdjustBalance(c.Context(), middleware.GetUserID(c), accountID, amount, req.Reason)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: txn})
}

// GET /admin/accounts/:id/reconcile
func (h *AdminHandler) ReconcileAccount(c *fiber.Ctx) error {
	accountID, err := parseAccountID(c)
	if err != nil {
		return badRequest(c, "invalid account id")
	}
	result, err := h.ledger.Reconcile(c.Context(), accountID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}

// GET /admin/audit/:entityType/:id
func (h *AdminHandler) GetAuditTrail(c *fiber.Ctx) error {
	entityID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid entity id")
	}
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	logs, err := h.auditRepo.GetByEntity(c.Context(), c.Params("entityType"), entityID, limit, offset)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: logs})
}
