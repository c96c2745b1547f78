package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles
const (
	RoleClient = "client"
	RoleVendor = "vendor"
	RoleAdmin  = "admin"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  *string   `json:"display_name,omitempty"`
	Role         string    `json:"role"` // client/vendor/admin
	// SimulationMode lets the approval path synthesize deposits instead of
	// failing on an empty balance. Demo installs only.
	SimulationMode bool       `json:"simulation_mode"`
	CreatedAt      time.Time  `json:"created_at"`
	LastActiveAt   *time.Time `json:"last_active_at,omitempty"`
}

func IsValidRole(role string) bool {
	return role == RoleClient || role == RoleVendor || role == RoleAdmin
}
