package repositories

import (
	"context"
	"time"

	"github.com/aiwork-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Store interfaces mirror the pgx-backed repos so services can run against
// in-memory fakes in tests. WithTx returns a copy bound to the caller's
// transaction.

type PaymentRequestStore interface {
	WithTx(tx pgx.Tx) PaymentRequestStore
	Create(ctx context.Context, p *models.PaymentRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentRequest, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.PaymentRequest, error)
	GetActiveByMilestone(ctx context.Context, milestoneID uuid.UUID) (*models.PaymentRequest, error)
	ListByMilestone(ctx context.Context, milestoneID uuid.UUID) ([]models.PaymentRequest, error)
	MarkCompleted(ctx context.Context, id, transactionID uuid.UUID) error
	MarkRejected(ctx context.Context, id uuid.UUID, reason string) error
	ListStalePending(ctx context.Context, olderThan time.Time) ([]models.PaymentRequest, error)
}

type MilestoneStore interface {
	WithTx(tx pgx.Tx) MilestoneStore
	Create(ctx context.Context, m *models.Milestone) error
	DeleteByProject(ctx context.Context, projectID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Milestone, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Milestone, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string) error
	SetCompleted(ctx context.Context, id uuid.UUID, note string) error
	MarkPaid(ctx context.Context, id uuid.UUID) error
	IncrementRejection(ctx context.Context, id uuid.UUID) (int, error)
}

type DisputeStore interface {
	WithTx(tx pgx.Tx) DisputeStore
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetOpenByMilestone(ctx context.Context, milestoneID uuid.UUID) (*models.Dispute, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Dispute, error)
	Resolve(ctx context.Context, d *models.Dispute) error
}

type DeliverableStore interface {
	WithTx(tx pgx.Tx) DeliverableStore
	CreateFolder(ctx context.Context, f *models.DeliverableFolder) error
	GetFolder(ctx context.Context, id uuid.UUID) (*models.DeliverableFolder, error)
	ListFoldersByMilestone(ctx context.Context, milestoneID uuid.UUID) ([]models.DeliverableFolder, error)
	UnlockByMilestone(ctx context.Context, milestoneID uuid.UUID) error
	CreateFile(ctx context.Context, f *models.DeliverableFile) error
	GetFile(ctx context.Context, id uuid.UUID) (*models.DeliverableFile, error)
	ListFiles(ctx context.Context, folderID uuid.UUID) ([]models.DeliverableFile, error)
}
