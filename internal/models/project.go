package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusCancelled = "cancelled"
)

type Project struct {
	ID           uuid.UUID `json:"id"`
	ClientUserID uuid.UUID `json:"client_user_id"`
	VendorUserID uuid.UUID `json:"vendor_user_id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
