package services

import (
	"errors"
	"testing"

	"github.com/aiwork-marketplace/backend/internal/apperrors"
	"github.com/aiwork-marketplace/backend/internal/models"
	"github.com/shopspring/decimal"
)

func TestValidateSplit(t *testing.T) {
	amount := decimal.NewFromInt(500)

	tests := []struct {
		name        string
		splitClient decimal.Decimal
		splitVendor decimal.Decimal
		wantErr     bool
	}{
		{"exact split", decimal.NewFromInt(200), decimal.NewFromInt(300), false},
		{"all to vendor", decimal.Zero, decimal.NewFromInt(500), false},
		{"all to client", decimal.NewFromInt(500), decimal.Zero, false},
		{"under total", decimal.NewFromInt(100), decimal.NewFromInt(300), true},
		{"over total", decimal.NewFromInt(300), decimal.NewFromInt(300), true},
		{"negative client share", decimal.NewFromInt(-100), decimal.NewFromInt(600), true},
		{"negative vendor share", decimal.NewFromInt(600), decimal.NewFromInt(-100), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSplit(amount, tt.splitClient, tt.splitVendor)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, apperrors.ErrMissingSplitAmounts) {
					t.Errorf("expected ErrMissingSplitAmounts, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDisputeEligibility(t *testing.T) {
	tests := []struct {
		name           string
		status         string
		rejectionCount int
		wantErr        bool
	}{
		{"at threshold", models.MilestoneStatusCompleted, 3, false},
		{"past threshold", models.MilestoneStatusCompleted, 5, false},
		{"below threshold", models.MilestoneStatusCompleted, 2, true},
		{"no rejections", models.MilestoneStatusCompleted, 0, true},
		{"cancelled milestone", models.MilestoneStatusCancelled, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &models.Milestone{Status: tt.status, RejectionCount: tt.rejectionCount}
			err := disputeEligibility(m, 3)
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrInvalidState) {
					t.Errorf("expected ErrInvalidState, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateSplitFractional(t *testing.T) {
	amount := decimal.RequireFromString("99.99")
	if err := ValidateSplit(amount, decimal.RequireFromString("33.33"), decimal.RequireFromString("66.66")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateSplit(amount, decimal.RequireFromString("33.33"), decimal.RequireFromString("66.67")); err == nil {
		t.Error("expected error for off-by-a-cent split")
	}
}
