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

type ProjectService struct {
	projectRepo   *repositories.ProjectRepo
	milestoneRepo *repositories.MilestoneRepo
	userRepo      *repositories.UserRepo
	auditRepo     *repositories.AuditRepo
	log           *zap.Logger
}

func NewProjectService(
	projectRepo *repositories.ProjectRepo,
	milestoneRepo *repositories.MilestoneRepo,
	userRepo *repositories.UserRepo,
	auditRepo *repositories.AuditRepo,
	log *zap.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo:   projectRepo,
		milestoneRepo: milestoneRepo,
		userRepo:      userRepo,
		auditRepo:     auditRepo,
		log:           log,
	}
}

// Create opens a project between the calling client and a vendor.
func (s *ProjectService) Create(ctx context.Context, clientID, vendorID uuid.UUID, title, description string) (*models.Project, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: project title is required", apperrors.ErrInvalidTransaction)
	}
	if clientID == vendorID {
		return nil, fmt.Errorf("%w: client and vendor must differ", apperrors.ErrInvalidTransaction)
	}
	vendor, err := s.userRepo.GetByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if vendor.Role != models.RoleVendor {
		return nil, fmt.Errorf("user %s is not a vendor: %w", vendorID, apperrors.ErrInvalidTransaction)
	}

	project := &models.Project{
		ClientUserID: clientID,
		VendorUserID: vendorID,
		Title:        title,
		Status:       models.ProjectStatusActive,
	}
	if description != "" {
		project.Description = &description
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &clientID,
		ActorType:   "client",
		Action:      "project_created",
		EntityType:  "project",
		EntityID:    &project.ID,
		Meta:        map[string]any{"vendor_id": vendorID.String()},
	})
	return project, nil
}

// Get returns a project visible to the caller. Parties and admins only.
func (s *ProjectService) Get(ctx context.Context, projectID, viewerID uuid.UUID, role string) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && project.ClientUserID != viewerID && project.VendorUserID != viewerID {
		return nil, fmt.Errorf("project %s: %w", projectID, apperrors.ErrForbidden)
	}
	return project, nil
}

func (s *ProjectService) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error) {
	return s.projectRepo.ListByUser(ctx, userID, limit, offset)
}

// Close marks a project completed once every milestone is settled.
func (s *ProjectService) Close(ctx context.Context, projectID, clientID uuid.UUID) error {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project.ClientUserID != clientID {
		return fmt.Errorf("caller is not the project client: %w", apperrors.ErrForbidden)
	}

	milestones, err := s.milestoneRepo.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}
	for _, m := range milestones {
		if m.Status != models.MilestoneStatusPaid && m.Status != models.MilestoneStatusCancelled {
			return fmt.Errorf("milestone %s is still %s: %w", m.ID, m.Status, apperrors.ErrInvalidState)
		}
	}

	if err := s.projectRepo.UpdateStatus(ctx, projectID, models.ProjectStatusCompleted); err != nil {
		return err
	}
	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &clientID,
		ActorType:   "client",
		Action:      "project_closed",
		EntityType:  "project",
		EntityID:    &projectID,
	})
	return nil
}
