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

type MilestoneRepo struct {
	db DBTX
}

func NewMilestoneRepo(pool *pgxpool.Pool) *MilestoneRepo {
	return &MilestoneRepo{db: pool}
}

func (r *MilestoneRepo) WithTx(tx pgx.Tx) MilestoneStore {
	return &MilestoneRepo{db: tx}
}

const milestoneColumns = `id, project_id, title, amount, due_date, order_index, status, is_paid,
		completion_note, rejection_count, completed_at, created_at, updated_at`

func (r *MilestoneRepo) Create(ctx context.Context, m *models.Milestone) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO milestones (project_id, title, amount, due_date, order_index, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, m.ProjectID, m.Title, m.Amount, m.DueDate, m.OrderIndex, m.Status).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

// DeleteByProject removes a project's milestones ahead of a wholesale
// replace during project setup.
func (r *MilestoneRepo) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM milestones WHERE project_id = $1`, projectID)
	return err
}

func (r *MilestoneRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		`SELECT `+milestoneColumns+` FROM milestones WHERE id = $1`, id))
}

// GetForUpdate locks the milestone row for the duration of the caller's
// transaction.
func (r *MilestoneRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		`SELECT `+milestoneColumns+` FROM milestones WHERE id = $1 FOR UPDATE`, id))
}

func (r *MilestoneRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Milestone, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+milestoneColumns+` FROM milestones WHERE project_id = $1 ORDER BY order_index`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var milestones []models.Milestone
	for rows.Next() {
		var m models.Milestone
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Title, &m.Amount, &m.DueDate, &m.OrderIndex,
			&m.Status, &m.IsPaid, &m.CompletionNote, &m.RejectionCount, &m.CompletedAt,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, nil
}

// UpdateStatus transitions only when the row is still in fromStatus.
// Returns ErrInvalidState when a concurrent writer got there first.
func (r *MilestoneRepo) UpdateStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE milestones SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`, toStatus, id, fromStatus)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("milestone %s is not %s: %w", id, fromStatus, apperrors.ErrInvalidState)
	}
	return nil
}

func (r *MilestoneRepo) SetCompleted(ctx context.Context, id uuid.UUID, note string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE milestones SET status = 'completed', completion_note = $1, completed_at = now(), updated_at = now()
		WHERE id = $2 AND status = 'in_progress'
	`, note, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("milestone %s is not in_progress: %w", id, apperrors.ErrInvalidState)
	}
	return nil
}

// MarkPaid is the only writer of is_paid. Reachable from completed (normal
// approval) and in_progress (dispute release of reworked milestones).
func (r *MilestoneRepo) MarkPaid(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE milestones SET status = 'paid', is_paid = true, updated_at = now()
		WHERE id = $1 AND is_paid = false AND status IN ('in_progress', 'completed')
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("milestone %s cannot be marked paid: %w", id, apperrors.ErrInvalidState)
	}
	return nil
}

// IncrementRejection bumps the consecutive-rejection counter and returns
// the new count.
func (r *MilestoneRepo) IncrementRejection(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		UPDATE milestones SET rejection_count = rejection_count + 1, updated_at = now()
		WHERE id = $1
		RETURNING rejection_count
	`, id).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("milestone: %w", apperrors.ErrNotFound)
	}
	return count, err
}

func (r *MilestoneRepo) scanOne(row pgx.Row) (*models.Milestone, error) {
	var m models.Milestone
	err := row.Scan(&m.ID, &m.ProjectID, &m.Title, &m.Amount, &m.DueDate, &m.OrderIndex,
		&m.Status, &m.IsPaid, &m.CompletionNote, &m.RejectionCount, &m.CompletedAt,
		&m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("milestone: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
