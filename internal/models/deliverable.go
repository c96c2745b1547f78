package models

import (
	"time"

	"github.com/google/uuid"
)

// Deliverable folder statuses. The stored status is kept in lockstep with
// the milestone by the workflows that change milestone state; read paths
// re-check the milestone anyway before serving bytes.
const (
	FolderStatusPending    = "pending"
	FolderStatusInProgress = "in_progress"
	FolderStatusUnlocked   = "unlocked"
)

// Access levels computed by the deliverable gate.
const (
	AccessFull    = "full"    // file bytes + thumbnails
	AccessPreview = "preview" // metadata + thumbnail only
	AccessNone    = "none"
)

type DeliverableFolder struct {
	ID          uuid.UUID `json:"id"`
	MilestoneID uuid.UUID `json:"milestone_id"`
	ProjectID   uuid.UUID `json:"project_id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	TotalFiles  int       `json:"total_files"`
	TotalSize   int64     `json:"total_size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DeliverableFile holds metadata only; the bytes live in external storage
// under StorageKey.
type DeliverableFile struct {
	ID           uuid.UUID `json:"id"`
	FolderID     uuid.UUID `json:"folder_id"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mime_type"`
	StorageKey   string    `json:"-"`
	ThumbnailKey *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
