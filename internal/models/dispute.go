package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Dispute statuses
const (
	DisputeStatusOpen          = "open"
	DisputeStatusInvestigating = "investigating"
	DisputeStatusResolved      = "resolved"
)

// Dispute resolutions
const (
	DisputeResolutionRefundClient  = "refund_client"
	DisputeResolutionReleaseVendor = "release_vendor"
	DisputeResolutionSplitCustom   = "split_custom"
)

type Dispute struct {
	ID             uuid.UUID        `json:"id"`
	ProjectID      uuid.UUID        `json:"project_id"`
	MilestoneID    *uuid.UUID       `json:"milestone_id,omitempty"`
	OpenedByUserID uuid.UUID        `json:"opened_by_user_id"`
	Status         string           `json:"status"`
	Resolution     *string          `json:"resolution,omitempty"`
	SplitClient    *decimal.Decimal `json:"split_client,omitempty"`
	SplitVendor    *decimal.Decimal `json:"split_vendor,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
	ResolvedBy     *uuid.UUID       `json:"resolved_by,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	ResolvedAt     *time.Time       `json:"resolved_at,omitempty"`
}

func IsValidDisputeResolution(r string) bool {
	switch r {
	case DisputeResolutionRefundClient, DisputeResolutionReleaseVendor, DisputeResolutionSplitCustom:
		return true
	}
	return false
}

// Open reports whether the dispute still freezes its milestone.
func (d *Dispute) Open() bool {
	return d.Status == DisputeStatusOpen || d.Status == DisputeStatusInvestigating
}
