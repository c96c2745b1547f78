package handlers

import (
	"github.com/aiwork-marketplace/backend/internal/http/dto"
	"github.com/aiwork-marketplace/backend/internal/middleware"
	"github.com/aiwork-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AccountHandler struct {
	ledger *services.LedgerService
	log    *zap.Logger
}

func NewAccountHandler(ledger *services.LedgerService, log *zap.Logger) *AccountHandler {
	return &AccountHandler{ledger: ledger, log: log}
}

// GET /me/account
func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	account, err := h.ledger.GetOrCreateAccount(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.BalanceResponse{
		AccountID: account.ID.String(),
		Balance:   account.Balance.String(),
		Currency:  account.Currency,
	}})
}

// GET /me/account/transactions
func (h *AccountHandler) ListTransactions(c *fiber.Ctx) error {
	account, err := h.ledger.GetOrCreateAccount(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	transactions, err := h.ledger.ListTransactions(c.Context(), account.ID, limit, offset)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: transactions})
}

// GET /me/account/reconcile
func (h *AccountHandler) Reconcile(c *fiber.Ctx) error {
	account, err := h.ledger.GetOrCreateAccount(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	result, err := h.ledger.Reconcile(c.Context(), account.ID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}

// parseAccountID is shared by the admin routes keyed on account id.
func parseAccountID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}
