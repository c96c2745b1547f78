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

type DisputeRepo struct {
	db DBTX
}

func NewDisputeRepo(pool *pgxpool.Pool) *DisputeRepo {
	return &DisputeRepo{db: pool}
}

func (r *DisputeRepo) WithTx(tx pgx.Tx) DisputeStore {
	return &DisputeRepo{db: tx}
}

const disputeColumns = `id, project_id, milestone_id, opened_by_user_id, status, resolution,
		split_client, split_vendor, notes, resolved_by, created_at, resolved_at`

func (r *DisputeRepo) Create(ctx context.Context, d *models.Dispute) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO disputes (project_id, milestone_id, opened_by_user_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, d.ProjectID, d.MilestoneID, d.OpenedByUserID, d.Status).Scan(&d.ID, &d.CreatedAt)
}

func (r *DisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		`SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id))
}

// GetForUpdate locks the dispute row so resolution happens exactly once.
func (r *DisputeRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		`SELECT `+disputeColumns+` FROM disputes WHERE id = $1 FOR UPDATE`, id))
}

// GetOpenByMilestone returns the dispute currently freezing a milestone,
// or ErrNotFound when the milestone is not disputed.
func (r *DisputeRepo) GetOpenByMilestone(ctx context.Context, milestoneID uuid.UUID) (*models.Dispute, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		`SELECT `+disputeColumns+` FROM disputes WHERE milestone_id = $1 AND status IN ('open', 'investigating')`, milestoneID))
}

func (r *DisputeRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Dispute, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+disputeColumns+` FROM disputes WHERE project_id = $1 ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var disputes []models.Dispute
	for rows.Next() {
		var d models.Dispute
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.MilestoneID, &d.OpenedByUserID, &d.Status, &d.Resolution,
			&d.SplitClient, &d.SplitVendor, &d.Notes, &d.ResolvedBy, &d.CreatedAt, &d.ResolvedAt); err != nil {
			return nil, err
		}
		disputes = append(disputes, d)
	}
	return disputes, nil
}

// Resolve writes the terminal state; the conditional WHERE makes
// re-resolution fail with ErrAlreadyResolved.
func (r *DisputeRepo) Resolve(ctx context.Context, d *models.Dispute) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE disputes SET status = 'resolved', resolution = $1, split_client = $2, split_vendor = $3,
			notes = $4, resolved_by = $5, resolved_at = now()
		WHERE id = $6 AND status IN ('open', 'investigating')
	`, d.Resolution, d.SplitClient, d.SplitVendor, d.Notes, d.ResolvedBy, d.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dispute %s: %w", d.ID, apperrors.ErrAlreadyResolved)
	}
	return nil
}

func (r *DisputeRepo) scanOne(row pgx.Row) (*models.Dispute, error) {
	var d models.Dispute
	err := row.Scan(&d.ID, &d.ProjectID, &d.MilestoneID, &d.OpenedByUserID, &d.Status, &d.Resolution,
		&d.SplitClient, &d.SplitVendor, &d.Notes, &d.ResolvedBy, &d.CreatedAt, &d.ResolvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("dispute: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
