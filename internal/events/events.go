package events

import "context"

// StreamPayments carries every escrow-related event.
const StreamPayments = "events:payments"

// Event types
const (
	EventPaymentRequested       = "payment_requested"
	EventPaymentApproved        = "payment_approved"
	EventPaymentRejected        = "payment_rejected"
	EventMilestoneStatusChanged = "milestone_status_changed"
	EventDisputeOpened          = "dispute_opened"
	EventDisputeResolved        = "dispute_resolved"
	EventFolderUnlocked         = "folder_unlocked"
	EventBalanceAdjusted        = "balance_adjusted"
	EventReconcileMismatch      = "reconcile_mismatch"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
