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

// AccountRepo reads account rows and applies balance deltas. Balance
// mutation methods are only reachable from the ledger service, inside its
// transaction boundary.
type AccountRepo struct {
	db DBTX
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{db: pool}
}

// WithTx returns a copy bound to the given transaction.
func (r *AccountRepo) WithTx(tx pgx.Tx) *AccountRepo {
	return &AccountRepo{db: tx}
}

// GetOrCreate is idempotent: the first call inserts with a zero balance,
// later calls return the existing row untouched. The no-op DO UPDATE makes
// RETURNING yield the existing row instead of erroring on conflict.
func (r *AccountRepo) GetOrCreate(ctx context.Context, ownerUserID uuid.UUID, currency string) (*models.Account, error) {
	var a models.Account
	err := r.db.QueryRow(ctx, `
		INSERT INTO accounts (owner_user_id, balance, currency)
		VALUES ($1, 0, $2)
		ON CONFLICT (owner_user_id) DO UPDATE SET owner_user_id = EXCLUDED.owner_user_id
		RETURNING id, owner_user_id, balance, currency, created_at, updated_at
	`, ownerUserID, currency).Scan(&a.ID, &a.OwnerUserID, &a.Balance, &a.Currency, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return r.scanOne(r.db.QueryRow(ctx, `
		SELECT id, owner_user_id, balance, currency, created_at, updated_at
		FROM accounts WHERE id = $1
	`, id))
}

func (r *AccountRepo) GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Account, error) {
	return r.scanOne(r.db.QueryRow(ctx, `
		SELECT id, owner_user_id, balance, currency, created_at, updated_at
		FROM accounts WHERE owner_user_id = $1
	`, ownerUserID))
}

// GetForUpdate takes a row lock on the account. Concurrent ledger writes
// against the same account serialize here.
func (r *AccountRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return r.scanOne(r.db.QueryRow(ctx, `
		SELECT id, owner_user_id, balance, currency, created_at, updated_at
		FROM accounts WHERE id = $1 FOR UPDATE
	`, id))
}

// AddToBalance applies a signed delta and returns the resulting balance.
func (r *AccountRepo) AddToBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRow(ctx, `
		UPDATE accounts SET balance = balance + $1, updated_at = now()
		WHERE id = $2
		RETURNING balance
	`, delta, id).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("account: %w", apperrors.ErrNotFound)
	}
	return balance, err
}

func (r *AccountRepo) ListAll(ctx context.Context) ([]models.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, owner_user_id, balance, currency, created_at, updated_at
		FROM accounts ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.OwnerUserID, &a.Balance, &a.Currency, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (r *AccountRepo) scanOne(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.OwnerUserID, &a.Balance, &a.Currency, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("account: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
