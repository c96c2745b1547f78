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

type DeliverableRepo struct {
	db DBTX
}

func NewDeliverableRepo(pool *pgxpool.Pool) *DeliverableRepo {
	return &DeliverableRepo{db: pool}
}

func (r *DeliverableRepo) WithTx(tx pgx.Tx) DeliverableStore {
	return &DeliverableRepo{db: tx}
}

func (r *DeliverableRepo) CreateFolder(ctx context.Context, f *models.DeliverableFolder) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO deliverable_folders (milestone_id, project_id, name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, f.MilestoneID, f.ProjectID, f.Name, f.Status).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
}

func (r *DeliverableRepo) GetFolder(ctx context.Context, id uuid.UUID) (*models.DeliverableFolder, error) {
	var f models.DeliverableFolder
	err := r.db.QueryRow(ctx, `
		SELECT id, milestone_id, project_id, name, status, total_files, total_size, created_at, updated_at
		FROM deliverable_folders WHERE id = $1
	`, id).Scan(&f.ID, &f.MilestoneID, &f.ProjectID, &f.Name, &f.Status,
		&f.TotalFiles, &f.TotalSize, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("folder: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *DeliverableRepo) ListFoldersByMilestone(ctx context.Context, milestoneID uuid.UUID) ([]models.DeliverableFolder, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, milestone_id, project_id, name, status, total_files, total_size, created_at, updated_at
		FROM deliverable_folders WHERE milestone_id = $1 ORDER BY created_at
	`, milestoneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []models.DeliverableFolder
	for rows.Next() {
		var f models.DeliverableFolder
		if err := rows.Scan(&f.ID, &f.MilestoneID, &f.ProjectID, &f.Name, &f.Status,
			&f.TotalFiles, &f.TotalSize, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, nil
}

// UnlockByMilestone flips every still-locked folder of a milestone. Called
// inside the approval/resolution transaction so folder state and milestone
// state move together.
func (r *DeliverableRepo) UnlockByMilestone(ctx context.Context, milestoneID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE deliverable_folders SET status = 'unlocked', updated_at = now()
		WHERE milestone_id = $1 AND status <> 'unlocked'
	`, milestoneID)
	return err
}

// CreateFile registers file metadata and bumps the folder totals in one
// statement pair.
func (r *DeliverableRepo) CreateFile(ctx context.Context, f *models.DeliverableFile) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO deliverable_files (folder_id, name, size, mime_type, storage_key, thumbnail_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, f.FolderID, f.Name, f.Size, f.MimeType, f.StorageKey, f.ThumbnailKey).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		UPDATE deliverable_folders SET total_files = total_files + 1, total_size = total_size + $1, updated_at = now()
		WHERE id = $2
	`, f.Size, f.FolderID)
	return err
}

func (r *DeliverableRepo) GetFile(ctx context.Context, id uuid.UUID) (*models.DeliverableFile, error) {
	var f models.DeliverableFile
	err := r.db.QueryRow(ctx, `
		SELECT id, folder_id, name, size, mime_type, storage_key, thumbnail_key, created_at
		FROM deliverable_files WHERE id = $1
	`, id).Scan(&f.ID, &f.FolderID, &f.Name, &f.Size, &f.MimeType, &f.StorageKey, &f.ThumbnailKey, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("file: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *DeliverableRepo) ListFiles(ctx context.Context, folderID uuid.UUID) ([]models.DeliverableFile, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, folder_id, name, size, mime_type, storage_key, thumbnail_key, created_at
		FROM deliverable_files WHERE folder_id = $1 ORDER BY created_at
	`, folderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []models.DeliverableFile
	for rows.Next() {
		var f models.DeliverableFile
		if err := rows.Scan(&f.ID, &f.FolderID, &f.Name, &f.Size, &f.MimeType,
			&f.StorageKey, &f.ThumbnailKey, &f.CreatedAt); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
