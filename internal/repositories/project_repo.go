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
)

type ProjectRepo struct {
	db DBTX
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{db: pool}
}

func (r *ProjectRepo) Create(ctx context.Context, p *models.Project) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO projects (client_user_id, vendor_user_id, title, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, p.ClientUserID, p.VendorUserID, p.Title, p.Description, p.Status).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	err := r.db.QueryRow(ctx, `
		SELECT id, client_user_id, vendor_user_id, title, description, status, created_at, updated_at
		FROM projects WHERE id = $1
	`, id).Scan(&p.ID, &p.ClientUserID, &p.VendorUserID, &p.Title, &p.Description,
		&p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("project: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, client_user_id, vendor_user_id, title, description, status, created_at, updated_at
		FROM projects
		WHERE client_user_id = $1 OR vendor_user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.ClientUserID, &p.VendorUserID, &p.Title, &p.Description,
			&p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func (r *ProjectRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.db.Exec(ctx, `UPDATE projects SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	return err
}
