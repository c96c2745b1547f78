package models

import (
	"errors"
	"testing"

	"github.com/aiwork-marketplace/backend/internal/apperrors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestTransactionDraftValidate(t *testing.T) {
	from := uuid.New()
	to := uuid.New()

	tests := []struct {
		name    string
		draft   TransactionDraft
		wantErr bool
	}{
		{"payment both accounts", TransactionDraft{Kind: TransactionKindPayment, Amount: decimal.NewFromInt(500), FromAccountID: &from, ToAccountID: &to}, false},
		{"deposit credit only", TransactionDraft{Kind: TransactionKindDeposit, Amount: decimal.NewFromInt(100), ToAccountID: &to}, false},
		{"withdrawal debit only", TransactionDraft{Kind: TransactionKindWithdrawal, Amount: decimal.NewFromInt(100), FromAccountID: &from}, false},
		{"zero amount", TransactionDraft{Kind: TransactionKindPayment, Amount: decimal.Zero, FromAccountID: &from, ToAccountID: &to}, true},
		{"negative amount", TransactionDraft{Kind: TransactionKindPayment, Amount: decimal.NewFromInt(-5), FromAccountID: &from, ToAccountID: &to}, true},
		{"no accounts", TransactionDraft{Kind: TransactionKindDeposit, Amount: decimal.NewFromInt(100)}, true},
		{"unknown kind", TransactionDraft{Kind: "teleport", Amount: decimal.NewFromInt(100), ToAccountID: &to}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperrors.ErrInvalidTransaction) {
				t.Errorf("Validate() error = %v, want ErrInvalidTransaction", err)
			}
		})
	}
}
