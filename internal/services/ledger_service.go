package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aiwork-marketplace/backend/internal/apperrors"
	"github.com/aiwork-marketplace/backend/internal/config"
	"github.com/aiwork-marketplace/backend/internal/events"
	"github.com/aiwork-marketplace/backend/internal/models"
	"github.com/aiwork-marketplace/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService is the only writer of account balances. Every mutation is
// a debit+credit+ledger-insert executed under one transaction; nothing
// else in the codebase touches the balance column.
type LedgerService struct {
	pool        *pgxpool.Pool
	accountRepo *repositories.AccountRepo
	txnRepo     *repositories.TransactionRepo
	auditRepo   *repositories.AuditRepo
	publisher   events.Publisher
	cfg         *config.Config
	log         *zap.Logger
}

func NewLedgerService(
	pool *pgxpool.Pool,
	accountRepo *repositories.AccountRepo,
	txnRepo *repositories.TransactionRepo,
	auditRepo *repositories.AuditRepo,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *LedgerService {
	return &LedgerService{
		pool:        pool,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		auditRepo:   auditRepo,
		publisher:   publisher,
		cfg:         cfg,
		log:         log,
	}
}

// GetOrCreateAccount returns the party's account, creating it with a zero
// balance on first use. Idempotent.
func (s *LedgerService) GetOrCreateAccount(ctx context.Context, ownerUserID uuid.UUID) (*models.Account, error) {
	return s.accountRepo.GetOrCreate(ctx, ownerUserID, s.cfg.CurrencyCode)
}

func (s *LedgerService) GetAccount(ctx context.Context, ownerUserID uuid.UUID) (*models.Account, error) {
	return s.accountRepo.GetByOwner(ctx, ownerUserID)
}

func (s *LedgerService) ListTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	return s.txnRepo.ListByAccount(ctx, accountID, limit, offset)
}

// Apply executes a draft as its own transaction.
func (s *LedgerService) Apply(ctx context.Context, draft models.TransactionDraft) (*models.Transaction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	txn, err := s.ApplyInTx(ctx, tx, draft)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return txn, nil
}

// ApplyInTx validates the draft, locks the referenced accounts, checks
// funds, moves the balances and appends the ledger row — all inside the
// caller's transaction. Composite workflows (payment approval, dispute
// resolution) call this to fold the ledger write into their own atomic
// unit.
func (s *LedgerService) ApplyInTx(ctx context.Context, tx pgx.Tx, draft models.TransactionDraft) (*models.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	accounts := s.accountRepo.WithTx(tx)

	// Lock in a stable order so two drafts touching the same pair of
	// accounts cannot deadlock.
	for _, id := range lockOrder(draft.FromAccountID, draft.ToAccountID) {
		if _, err := accounts.GetForUpdate(ctx, id); err != nil {
			return nil, err
		}
	}

	if draft.FromAccountID != nil {
		from, err := accounts.GetByID(ctx, *draft.FromAccountID)
		if err != nil {
			return nil, err
		}
		if !draft.Simulated && from.Balance.LessThan(draft.Amount) {
			return nil, &apperrors.InsufficientFundsError{
				Required:  draft.Amount,
				Available: from.Balance,
			}
		}
		if _, err := accounts.AddToBalance(ctx, *draft.FromAccountID, draft.Amount.Neg()); err != nil {
			return nil, err
		}
	}
	if draft.ToAccountID != nil {
		if _, err := accounts.AddToBalance(ctx, *draft.ToAccountID, draft.Amount); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	txn := &models.Transaction{
		Kind:          draft.Kind,
		Status:        models.TransactionStatusCompleted,
		Amount:        draft.Amount,
		FromAccountID: draft.FromAccountID,
		ToAccountID:   draft.ToAccountID,
		ProjectID:     draft.ProjectID,
		MilestoneID:   draft.MilestoneID,
		Metadata:      draft.Metadata,
		CompletedAt:   &now,
	}
	if err := s.txnRepo.WithTx(tx).Create(ctx, txn); err != nil {
		return nil, err
	}

	s.log.Info("ledger entry applied",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("kind", txn.Kind),
		zap.String("amount", txn.Amount.String()),
	)
	return txn, nil
}

// AccountForUpdate locks an account row for the remainder of the caller's
// transaction and returns its current state.
func (s *LedgerService) AccountForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (*models.Account, error) {
	return s.accountRepo.WithTx(tx).GetForUpdate(ctx, accountID)
}

// ReconcileResult compares the stored balance with the ledger-derived one.
type ReconcileResult struct {
	AccountID  uuid.UUID       `json:"account_id"`
	Stored     decimal.Decimal `json:"stored"`
	Computed   decimal.Decimal `json:"computed"`
	Consistent bool            `json:"consistent"`
}

// Reconcile recomputes an account's balance from ledger history. A
// mismatch is a data-integrity fault and is reported, never corrected.
func (s *LedgerService) Reconcile(ctx context.Context, accountID uuid.UUID) (*ReconcileResult, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	computed, err := s.txnRepo.SumForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{
		AccountID:  accountID,
		Stored:     account.Balance,
		Computed:   computed,
		Consistent: account.Balance.Equal(computed),
	}
	if !result.Consistent {
		s.log.Error("ledger reconciliation mismatch",
			zap.String("account_id", accountID.String()),
			zap.String("stored", result.Stored.String()),
			zap.String("computed", result.Computed.String()),
		)
		_ = s.auditRepo.Log(ctx, models.AuditLog{
			ActorType:  "system",
			Action:     "reconcile_mismatch",
			EntityType: "account",
			EntityID:   &accountID,
			Meta:       map[string]any{"stored": result.Stored.String(), "computed": result.Computed.String()},
		})
		_ = s.publisher.Publish(ctx, events.StreamPayments, events.Event{
			Type: events.EventReconcileMismatch,
			Payload: map[string]any{
				"account_id": accountID.String(),
				"stored":     result.Stored.String(),
				"computed":   result.Computed.String(),
			},
		})
	}
	return result, nil
}

// AdjustBalance is the admin override: a direct audited DEPOSIT (positive
// amount) or WITHDRAWAL (negative amount) against one account.
func (s *LedgerService) AdjustBalance(ctx context.Context, adminID, accountID uuid.UUID, amount decimal.Decimal, reason string) (*models.Transaction, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: adjustment reason is required", apperrors.ErrInvalidTransaction)
	}
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: adjustment amount must be non-zero", apperrors.ErrInvalidTransaction)
	}

	draft := models.TransactionDraft{
		Amount: amount.Abs(),
		Metadata: map[string]any{
			"reason":   reason,
			"admin_id": adminID.String(),
		},
	}
	if amount.IsPositive() {
		draft.Kind = models.TransactionKindDeposit
		draft.ToAccountID = &accountID
	} else {
		draft.Kind = models.TransactionKindWithdrawal
		draft.FromAccountID = &accountID
	}

	txn, err := s.Apply(ctx, draft)
	if err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &adminID,
		ActorType:   "admin",
		Action:      "balance_adjusted",
		EntityType:  "account",
		EntityID:    &accountID,
		Meta:        map[string]any{"amount": amount.String(), "reason": reason, "transaction_id": txn.ID.String()},
	})
	_ = s.publisher.Publish(ctx, events.StreamPayments, events.Event{
		Type: events.EventBalanceAdjusted,
		Payload: map[string]any{
			"account_id":     accountID.String(),
			"amount":         amount.String(),
			"transaction_id": txn.ID.String(),
		},
	})
	return txn, nil
}

// lockOrder returns the distinct account ids sorted so every ledger write
// acquires row locks in the same global order.
func lockOrder(a, b *uuid.UUID) []uuid.UUID {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return []uuid.UUID{*b}
	case b == nil:
		return []uuid.UUID{*a}
	case *a == *b:
		return []uuid.UUID{*a}
	}
	if strings.Compare(a.String(), b.String()) < 0 {
		return []uuid.UUID{*a, *b}
	}
	return []uuid.UUID{*b, *a}
}
