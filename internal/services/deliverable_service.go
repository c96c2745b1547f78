package services

import (
	"context"
	"fmt"

	"github.com/aiwork-marketplace/backend/internal/apperrors"
	"github.com/aiwork-marketplace/backend/internal/models"
	"github.com/aiwork-marketplace/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeliverableService manages work-product folders and the access gate in
// front of them. Folder status mirrors milestone state; access is decided
// against the live milestone and the stored folder status together, never
// either one alone.
type DeliverableService struct {
	deliverableRepo *repositories.DeliverableRepo
	milestoneRepo   *repositories.MilestoneRepo
	projectRepo     *repositories.ProjectRepo
	auditRepo       *repositories.AuditRepo
	log             *zap.Logger
}

func NewDeliverableService(
	deliverableRepo *repositories.DeliverableRepo,
	milestoneRepo *repositories.MilestoneRepo,
	projectRepo *repositories.ProjectRepo,
	auditRepo *repositories.AuditRepo,
	log *zap.Logger,
) *DeliverableService {
	return &DeliverableService{
		deliverableRepo: deliverableRepo,
		milestoneRepo:   milestoneRepo,
		projectRepo:     projectRepo,
		auditRepo:       auditRepo,
		log:             log,
	}
}

// BornFolderStatus derives the status a new folder starts with from its
// milestone's state. A folder attached to an already-settled milestone is
// born unlocked.
func BornFolderStatus(milestoneStatus string, isPaid bool) string {
	if isPaid || milestoneStatus == models.MilestoneStatusCompleted || milestoneStatus == models.MilestoneStatusPaid {
		return models.FolderStatusUnlocked
	}
	if milestoneStatus == models.MilestoneStatusInProgress {
		return models.FolderStatusInProgress
	}
	return models.FolderStatusPending
}

// AccessLevel computes what a viewer may see of a folder. Vendors and
// admins always see everything; the client gets full access only once the
// milestone is paid AND the stored folder status agrees it is unlocked,
// and previews otherwise. Requiring both sides keeps a stale or tampered
// folder row from leaking bytes on its own.
func AccessLevel(role string, isProjectParty bool, milestone *models.Milestone, folderStatus string) string {
	switch role {
	case models.RoleAdmin:
		return models.AccessFull
	case models.RoleVendor:
		if isProjectParty {
			return models.AccessFull
		}
		return models.AccessNone
	case models.RoleClient:
		if !isProjectParty {
			return models.AccessNone
		}
		if milestone.IsPaid && folderStatus == models.FolderStatusUnlocked {
			return models.AccessFull
		}
		return models.AccessPreview
	}
	return models.AccessNone
}

// CreateFolder registers a folder under a milestone. Vendor only.
func (s *DeliverableService) CreateFolder(ctx context.Context, milestoneID, vendorID uuid.UUID, name string) (*models.DeliverableFolder, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: folder name is required", apperrors.ErrInvalidTransaction)
	}

	milestone, err := s.milestoneRepo.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.GetByID(ctx, milestone.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.VendorUserID != vendorID {
		return nil, fmt.Errorf("caller is not the project vendor: %w", apperrors.ErrForbidden)
	}
	if milestone.Status == models.MilestoneStatusCancelled {
		return nil, fmt.Errorf("milestone %s is cancelled: %w", milestoneID, apperrors.ErrInvalidState)
	}

	folder := &models.DeliverableFolder{
		MilestoneID: milestoneID,
		ProjectID:   project.ID,
		Name:        name,
		Status:      BornFolderStatus(milestone.Status, milestone.IsPaid),
	}
	if err := s.deliverableRepo.CreateFolder(ctx, folder); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &vendorID,
		ActorType:   "vendor",
		Action:      "folder_created",
		EntityType:  "deliverable_folder",
		EntityID:    &folder.ID,
		Meta:        map[string]any{"milestone_id": milestoneID.String(), "status": folder.Status},
	})
	return folder, nil
}

// RegisterFile attaches file metadata to a folder after the bytes landed
// in external storage. Vendor only.
func (s *DeliverableService) RegisterFile(ctx context.Context, folderID, vendorID uuid.UUID, file *models.DeliverableFile) error {
	folder, err := s.deliverableRepo.GetFolder(ctx, folderID)
	if err != nil {
		return err
	}
	project, err := s.projectRepo.GetByID(ctx, folder.ProjectID)
	if err != nil {
		return err
	}
	if project.VendorUserID != vendorID {
		return fmt.Errorf("caller is not the project vendor: %w", apperrors.ErrForbidden)
	}
	if file.Name == "" || file.StorageKey == "" {
		return fmt.Errorf("%w: file name and storage key are required", apperrors.ErrInvalidTransaction)
	}
	if file.Size < 0 {
		return fmt.Errorf("%w: file size cannot be negative", apperrors.ErrInvalidTransaction)
	}

	file.FolderID = folderID
	return s.deliverableRepo.CreateFile(ctx, file)
}

// FolderView is a folder plus the access level computed for the viewer.
type FolderView struct {
	Folder *models.DeliverableFolder `json:"folder"`
	Files  []models.DeliverableFile  `json:"files"`
	Access string                    `json:"access"`
}

// ViewFolder returns the folder contents filtered by the viewer's access
// level. Preview access strips storage keys so only names, sizes and
// thumbnails remain visible.
func (s *DeliverableService) ViewFolder(ctx context.Context, folderID, viewerID uuid.UUID, role string) (*FolderView, error) {
	folder, err := s.deliverableRepo.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	milestone, err := s.milestoneRepo.GetByID(ctx, folder.MilestoneID)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.GetByID(ctx, folder.ProjectID)
	if err != nil {
		return nil, err
	}

	isParty := project.ClientUserID == viewerID || project.VendorUserID == viewerID
	access := AccessLevel(role, isParty, milestone, folder.Status)
	if access == models.AccessNone {
		return nil, fmt.Errorf("folder %s: %w", folderID, apperrors.ErrForbidden)
	}

	files, err := s.deliverableRepo.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if access == models.AccessPreview {
		for i := range files {
			files[i].StorageKey = ""
		}
	}

	return &FolderView{Folder: folder, Files: files, Access: access}, nil
}

// FileDownloadKey resolves the storage key for a file, applying the same
// gate as ViewFolder. Preview access does not extend to raw bytes.
func (s *DeliverableService) FileDownloadKey(ctx context.Context, fileID, viewerID uuid.UUID, role string) (string, error) {
	file, err := s.deliverableRepo.GetFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	folder, err := s.deliverableRepo.GetFolder(ctx, file.FolderID)
	if err != nil {
		return "", err
	}
	milestone, err := s.milestoneRepo.GetByID(ctx, folder.MilestoneID)
	if err != nil {
		return "", err
	}
	project, err := s.projectRepo.GetByID(ctx, folder.ProjectID)
	if err != nil {
		return "", err
	}

	isParty := project.ClientUserID == viewerID || project.VendorUserID == viewerID
	if AccessLevel(role, isParty, milestone, folder.Status) != models.AccessFull {
		return "", fmt.Errorf("file %s: %w", fileID, apperrors.ErrForbidden)
	}
	return file.StorageKey, nil
}

func (s *DeliverableService) ListFolders(ctx context.Context, milestoneID uuid.UUID) ([]models.DeliverableFolder, error) {
	return s.deliverableRepo.ListFoldersByMilestone(ctx, milestoneID)
}
