package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment request statuses. Pending is the only non-terminal state; at
// most one pending request may exist per milestone at a time (enforced by
// a partial unique index). Approved exists for compatibility with older
// rows; the approval path writes completed directly.
const (
	PaymentRequestStatusPending   = "pending"
	PaymentRequestStatusApproved  = "approved"
	PaymentRequestStatusRejected  = "rejected"
	PaymentRequestStatusCompleted = "completed"
)

type PaymentRequest struct {
	ID              uuid.UUID       `json:"id"`
	MilestoneID     uuid.UUID       `json:"milestone_id"`
	ProjectID       uuid.UUID       `json:"project_id"`
	VendorUserID    uuid.UUID       `json:"vendor_user_id"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	VendorNote      *string         `json:"vendor_note,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	TransactionID   *uuid.UUID      `json:"transaction_id,omitempty"`
	RequestedAt     time.Time       `json:"requested_at"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
}
