package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Milestone statuses
const (
	MilestoneStatusPending    = "pending"
	MilestoneStatusInProgress = "in_progress"
	MilestoneStatusCompleted  = "completed"
	MilestoneStatusPaid       = "paid"
	MilestoneStatusCancelled  = "cancelled"
)

// Valid state transitions: from -> []to. The paid transition is only
// reachable through the payment workflow or dispute resolution; cancelled
// is the admin/project-cancellation exit. A rejected deliverable sends
// completed back to in_progress.
var ValidMilestoneTransitions = map[string][]string{
	MilestoneStatusPending:    {MilestoneStatusInProgress, MilestoneStatusCancelled},
	MilestoneStatusInProgress: {MilestoneStatusCompleted, MilestoneStatusCancelled, MilestoneStatusPaid},
	MilestoneStatusCompleted:  {MilestoneStatusInProgress, MilestoneStatusPaid, MilestoneStatusCancelled},
	MilestoneStatusPaid:       {},
	MilestoneStatusCancelled:  {},
}

func IsValidMilestoneTransition(from, to string) bool {
	allowed, ok := ValidMilestoneTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

type Milestone struct {
	ID             uuid.UUID       `json:"id"`
	ProjectID      uuid.UUID       `json:"project_id"`
	Title          string          `json:"title"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	OrderIndex     int             `json:"order_index"`
	Status         string          `json:"status"`
	IsPaid         bool            `json:"is_paid"`
	CompletionNote *string         `json:"completion_note,omitempty"`
	RejectionCount int             `json:"rejection_count"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Payable reports whether the milestone's fee can still be requested.
func (m *Milestone) Payable() bool {
	return !m.IsPaid && m.Status == MilestoneStatusCompleted && m.Amount.IsPositive()
}
