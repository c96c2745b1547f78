package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aiwork-marketplace/backend/internal/apperrors"
	"github.com/aiwork-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepo struct {
	db DBTX
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{db: pool}
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, display_name, role, simulation_mode)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, u.Email, u.PasswordHash, u.DisplayName, u.Role, u.SimulationMode).Scan(&u.ID, &u.CreatedAt)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.scanOne(r.db.QueryRow(ctx, `
		SELECT id, email, password_hash, display_name, role, simulation_mode, created_at, last_active_at
		FROM users WHERE id = $1
	`, id))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanOne(r.db.QueryRow(ctx, `
		SELECT id, email, password_hash, display_name, role, simulation_mode, created_at, last_active_at
		FROM users WHERE email = $1
	`, email))
}

func (r *UserRepo) SetSimulationMode(ctx context.Context, id uuid.UUID, enabled bool) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET simulation_mode = $1 WHERE id = $2`, enabled, id)
	return err
}

func (r *UserRepo) UpdateLastActive(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_active_at = $1 WHERE id = $2`, time.Now(), id)
	return err
}

func (r *UserRepo) scanOne(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role,
		&u.SimulationMode, &u.CreatedAt, &u.LastActiveAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
