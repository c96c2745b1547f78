package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/aiwork-marketplace/backend/internal/apperrors"
	"github.com/aiwork-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TransactionRepo is the append-only ledger. Rows are never updated once
// completed; reconciliation reads are plain aggregate queries.
type TransactionRepo struct {
	db DBTX
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{db: pool}
}

func (r *TransactionRepo) WithTx(tx pgx.Tx) *TransactionRepo {
	return &TransactionRepo{db: tx}
}

func (r *TransactionRepo) Create(ctx context.Context, t *models.Transaction) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO transactions (kind, status, amount, from_account_id, to_account_id, project_id, milestone_id, metadata, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, t.Kind, t.Status, t.Amount, t.FromAccountID, t.ToAccountID, t.ProjectID, t.MilestoneID,
		t.Metadata, t.CompletedAt).Scan(&t.ID, &t.CreatedAt)
}

func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.QueryRow(ctx, `
		SELECT id, kind, status, amount, from_account_id, to_account_id, project_id, milestone_id, metadata, created_at, completed_at
		FROM transactions WHERE id = $1
	`, id).Scan(&t.ID, &t.Kind, &t.Status, &t.Amount, &t.FromAccountID, &t.ToAccountID,
		&t.ProjectID, &t.MilestoneID, &t.Metadata, &t.CreatedAt, &t.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transaction: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, kind, status, amount, from_account_id, to_account_id, project_id, milestone_id, metadata, created_at, completed_at
		FROM transactions
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.Kind, &t.Status, &t.Amount, &t.FromAccountID, &t.ToAccountID,
			&t.ProjectID, &t.MilestoneID, &t.Metadata, &t.CreatedAt, &t.CompletedAt); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, nil
}

// SumForAccount recomputes the balance from ledger history: completed
// credits minus completed debits. The two sides are summed independently
// so a self-transfer row nets to zero.
func (r *TransactionRepo) SumForAccount(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(
			CASE WHEN to_account_id = $1 THEN amount ELSE 0 END +
			CASE WHEN from_account_id = $1 THEN -amount ELSE 0 END
		), 0)
		FROM transactions
		WHERE status = 'completed' AND (to_account_id = $1 OR from_account_id = $1)
	`, accountID).Scan(&sum)
	return sum, err
}

// CountPaymentsForRequest guards the no-double-payment property in audits.
func (r *TransactionRepo) CountPaymentsForMilestone(ctx context.Context, milestoneID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM transactions
		WHERE milestone_id = $1 AND kind = 'payment' AND status = 'completed'
	`, milestoneID).Scan(&n)
	return n, err
}
