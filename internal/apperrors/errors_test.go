package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", fmt.Errorf("milestone: %w", ErrNotFound), fiber.StatusNotFound},
		{"forbidden", fmt.Errorf("caller is not the project vendor: %w", ErrForbidden), fiber.StatusForbidden},
		{"invalid state", fmt.Errorf("%w: expected pending", ErrInvalidState), fiber.StatusConflict},
		{"duplicate request", ErrDuplicateRequest, fiber.StatusConflict},
		{"already resolved", ErrAlreadyResolved, fiber.StatusConflict},
		{"insufficient funds", &InsufficientFundsError{Required: decimal.NewFromInt(500), Available: decimal.Zero}, fiber.StatusUnprocessableEntity},
		{"invalid transaction", ErrInvalidTransaction, fiber.StatusUnprocessableEntity},
		{"nothing to pay", ErrNothingToPay, fiber.StatusUnprocessableEntity},
		{"missing split", ErrMissingSplitAmounts, fiber.StatusUnprocessableEntity},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.expected {
				t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.expected)
			}
		})
	}
}

func TestInsufficientFundsErrorDetail(t *testing.T) {
	err := fmt.Errorf("approve: %w", &InsufficientFundsError{
		Required:  decimal.NewFromInt(500),
		Available: decimal.NewFromInt(120),
	})

	var insufficient *InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatal("errors.As failed to unwrap InsufficientFundsError")
	}
	if !insufficient.Required.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Required = %s, want 500", insufficient.Required)
	}
	if !insufficient.Available.Equal(decimal.NewFromInt(120)) {
		t.Errorf("Available = %s, want 120", insufficient.Available)
	}
}
