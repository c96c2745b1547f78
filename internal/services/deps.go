package services

import (
	"context"

	"github.com/aiwork-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Narrow collaborator interfaces used where a service needs only a slice
// of another component. Satisfied by *pgxpool.Pool, the concrete repos and
// *LedgerService; tests substitute in-memory fakes.

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type projectReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

type userReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type auditSink interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

type ledgerApplier interface {
	GetOrCreateAccount(ctx context.Context, ownerUserID uuid.UUID) (*models.Account, error)
	AccountForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (*models.Account, error)
	ApplyInTx(ctx context.Context, tx pgx.Tx, draft models.TransactionDraft) (*models.Transaction, error)
}
