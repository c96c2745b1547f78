package dto

import "time"

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role"` // client / vendor
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SetSimulationModeRequest struct {
	Enabled bool `json:"enabled"`
}

type CreateProjectRequest struct {
	VendorID    string  `json:"vendor_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

type MilestoneItem struct {
	Title   string     `json:"title"`
	Amount  string     `json:"amount"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

type SetupMilestonesRequest struct {
	Milestones []MilestoneItem `json:"milestones"`
}

type CompleteMilestoneRequest struct {
	Note string `json:"note"`
}

type RejectDeliverableRequest struct {
	Reason string `json:"reason"`
}

type RequestPaymentRequest struct {
	Note *string `json:"note,omitempty"`
}

type RejectPaymentRequest struct {
	Reason string `json:"reason"`
}

type OpenDisputeRequest struct {
	MilestoneID string  `json:"milestone_id"`
	Notes       *string `json:"notes,omitempty"`
}

type ResolveDisputeRequest struct {
	Resolution  string  `json:"resolution"` // refund_client / release_vendor / split_custom
	SplitClient *string `json:"split_client,omitempty"`
	SplitVendor *string `json:"split_vendor,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

type AdjustBalanceRequest struct {
	Amount string `json:"amount"` // signed; negative withdraws
	Reason string `json:"reason"`
}

type CreateFolderRequest struct {
	Name string `json:"name"`
}

type RegisterFileRequest struct {
	Name         string  `json:"name"`
	Size         int64   `json:"size"`
	MimeType     string  `json:"mime_type"`
	StorageKey   string  `json:"storage_key"`
	ThumbnailKey *string `json:"thumbnail_key,omitempty"`
}
