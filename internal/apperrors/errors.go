// Package apperrors defines the error taxonomy shared by the services and
// mapped to HTTP statuses in the handlers. Services wrap these sentinels
// with %w and attach context; handlers only ever inspect them with
// errors.Is / errors.As.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidState is returned when a transition is attempted from a
	// non-matching source state.
	ErrInvalidState = errors.New("invalid state")
	// ErrForbidden is returned when the caller lacks ownership or role.
	ErrForbidden = errors.New("forbidden")
	// ErrDuplicateRequest is returned when a milestone already has an
	// active payment request.
	ErrDuplicateRequest = errors.New("duplicate payment request")
	// ErrInvalidTransaction is returned for malformed ledger drafts.
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrNothingToPay is returned when requesting payment for a
	// zero-amount milestone.
	ErrNothingToPay = errors.New("nothing to pay")
	// ErrMissingSplitAmounts is returned when a custom dispute split
	// omits one of the two amounts.
	ErrMissingSplitAmounts = errors.New("missing split amounts")
	// ErrAlreadyResolved is returned on dispute re-resolution.
	ErrAlreadyResolved = errors.New("dispute already resolved")
	// ErrNotFound is returned for missing entities.
	ErrNotFound = errors.New("not found")
)

// InsufficientFundsError reports the balance check failure with enough
// detail for the payer to act.
type InsufficientFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %s, available %s", e.Required, e.Available)
}

// HTTPStatus maps a service error to the response status code.
func HTTPStatus(err error) int {
	var insufficient *InsufficientFundsError
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrDuplicateRequest),
		errors.Is(err, ErrAlreadyResolved):
		return fiber.StatusConflict
	case errors.As(err, &insufficient):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidTransaction),
		errors.Is(err, ErrNothingToPay),
		errors.Is(err, ErrMissingSplitAmounts):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}
