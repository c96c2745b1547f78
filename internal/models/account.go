package models

import (
	"fmt"
	"time"

	"github.com/aiwork-marketplace/backend/internal/apperrors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction kinds
const (
	TransactionKindDeposit    = "deposit"
	TransactionKindPayment    = "payment"
	TransactionKindRefund     = "refund"
	TransactionKindFee        = "fee"
	TransactionKindWithdrawal = "withdrawal"
)

// Transaction statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Account holds the balance of one marketplace party. Lazily created on
// first use; the balance is only ever written through the ledger service.
type Account struct {
	ID          uuid.UUID       `json:"id"`
	OwnerUserID uuid.UUID       `json:"owner_user_id"`
	Balance     decimal.Decimal `json:"balance"`
	Currency    string          `json:"currency"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Transaction is one append-only ledger row. Immutable once completed.
type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	Kind          string          `json:"kind"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	FromAccountID *uuid.UUID      `json:"from_account_id,omitempty"`
	ToAccountID   *uuid.UUID      `json:"to_account_id,omitempty"`
	ProjectID     *uuid.UUID      `json:"project_id,omitempty"`
	MilestoneID   *uuid.UUID      `json:"milestone_id,omitempty"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// TransactionDraft is the input to the ledger apply operation.
type TransactionDraft struct {
	Kind          string
	Amount        decimal.Decimal
	FromAccountID *uuid.UUID
	ToAccountID   *uuid.UUID
	ProjectID     *uuid.UUID
	MilestoneID   *uuid.UUID
	Metadata      map[string]any
	// Simulated drafts bypass the insufficient-funds check. Only the
	// simulation-mode top-up path sets this.
	Simulated bool
}

func IsValidTransactionKind(kind string) bool {
	switch kind {
	case TransactionKindDeposit, TransactionKindPayment, TransactionKindRefund,
		TransactionKindFee, TransactionKindWithdrawal:
		return true
	}
	return false
}

// Validate rejects malformed drafts before they reach the ledger.
func (d TransactionDraft) Validate() error {
	if !IsValidTransactionKind(d.Kind) {
		return fmt.Errorf("%w: unknown kind %q", apperrors.ErrInvalidTransaction, d.Kind)
	}
	if d.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive, got %s", apperrors.ErrInvalidTransaction, d.Amount)
	}
	if d.FromAccountID == nil && d.ToAccountID == nil {
		return fmt.Errorf("%w: draft must reference at least one account", apperrors.ErrInvalidTransaction)
	}
	return nil
}
