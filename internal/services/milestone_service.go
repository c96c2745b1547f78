package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aiwork-marketplace/backend/internal/apperrors"
	"github.com/aiwork-marketplace/backend/internal/config"
	"github.com/aiwork-marketplace/backend/internal/events"
	"github.com/aiwork-marketplace/backend/internal/models"
	"github.com/aiwork-marketplace/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type MilestoneService struct {
	pool            *pgxpool.Pool
	milestoneRepo   *repositories.MilestoneRepo
	projectRepo     *repositories.ProjectRepo
	disputeRepo     *repositories.DisputeRepo
	deliverableRepo *repositories.DeliverableRepo
	auditRepo       *repositories.AuditRepo
	publisher       events.Publisher
	notifier        *NotifyClient
	cfg             *config.Config
	log             *zap.Logger
}

func NewMilestoneService(
	pool *pgxpool.Pool,
	milestoneRepo *repositories.MilestoneRepo,
	projectRepo *repositories.ProjectRepo,
	disputeRepo *repositories.DisputeRepo,
	deliverableRepo *repositories.DeliverableRepo,
	auditRepo *repositories.AuditRepo,
	publisher events.Publisher,
	notifier *NotifyClient,
	cfg *config.Config,
	log *zap.Logger,
) *MilestoneService {
	return &MilestoneService{
		pool:            pool,
		milestoneRepo:   milestoneRepo,
		projectRepo:     projectRepo,
		disputeRepo:     disputeRepo,
		deliverableRepo: deliverableRepo,
		auditRepo:       auditRepo,
		publisher:       publisher,
		notifier:        notifier,
		cfg:             cfg,
		log:             log,
	}
}

type MilestoneInput struct {
	Title   string
	Amount  decimal.Decimal
	DueDate *time.Time
}

// ReplaceMilestones swaps a project's milestone plan wholesale during
// setup. Only allowed while no milestone has left pending.
func (s *MilestoneService) ReplaceMilestones(ctx context.Context, projectID, clientID uuid.UUID, items []MilestoneInput) ([]models.Milestone, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.ClientUserID != clientID {
		return nil, fmt.Errorf("caller is not the project client: %w", apperrors.ErrForbidden)
	}

	existing, err := s.milestoneRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, m := range existing {
		if m.Status != models.MilestoneStatusPending {
			return nil, fmt.Errorf("milestone %s already started: %w", m.ID, apperrors.ErrInvalidState)
		}
	}
	for _, item := range items {
		if item.Title == "" {
			return nil, fmt.Errorf("%w: milestone title is required", apperrors.ErrInvalidTransaction)
		}
		if item.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: milestone amount cannot be negative", apperrors.ErrInvalidTransaction)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	repo := s.milestoneRepo.WithTx(tx)
	if err := repo.DeleteByProject(ctx, projectID); err != nil {
		return nil, err
	}

	milestones := make([]models.Milestone, 0, len(items))
	for i, item := range items {
		m := models.Milestone{
			ProjectID:  projectID,
			Title:      item.Title,
			Amount:     item.Amount,
			DueDate:    item.DueDate,
			OrderIndex: i,
			Status:     models.MilestoneStatusPending,
		}
		if err := repo.Create(ctx, &m); err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &clientID,
		ActorType:   "client",
		Action:      "milestones_replaced",
		EntityType:  "project",
		EntityID:    &projectID,
		Meta:        map[string]any{"count": len(milestones)},
	})
	return milestones, nil
}

func (s *MilestoneService) GetMilestone(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	return s.milestoneRepo.GetByID(ctx, id)
}

func (s *MilestoneService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Milestone, error) {
	return s.milestoneRepo.ListByProject(ctx, projectID)
}

// Start moves a pending milestone into progress. Vendor only.
func (s *MilestoneService) Start(ctx context.Context, milestoneID, vendorID uuid.UUID) error {
	milestone, project, err := s.loadWithProject(ctx, milestoneID)
	if err != nil {
		return err
	}
	if project.VendorUserID != vendorID {
		return fmt.Errorf("caller is not the project vendor: %w", apperrors.ErrForbidden)
	}

	if err := s.milestoneRepo.UpdateStatus(ctx, milestoneID,
		models.MilestoneStatusPending, models.MilestoneStatusInProgress); err != nil {
		return err
	}
	s.recordTransition(ctx, milestone, models.MilestoneStatusInProgress, &vendorID, "vendor")
	return nil
}

// Complete marks the milestone ready for review. A zero-amount milestone
// skips the payment workflow entirely: it is paid on the spot and its
// folders unlock.
func (s *MilestoneService) Complete(ctx context.Context, milestoneID, vendorID uuid.UUID, note string) error {
	if note == "" {
		return fmt.Errorf("%w: completion note is required", apperrors.ErrInvalidTransaction)
	}

	milestone, project, err := s.loadWithProject(ctx, milestoneID)
	if err != nil {
		return err
	}
	if project.VendorUserID != vendorID {
		return fmt.Errorf("caller is not the project vendor: %w", apperrors.ErrForbidden)
	}

	if milestone.Amount.IsZero() {
		return s.completeZeroAmount(ctx, milestone, vendorID, note)
	}

	if err := s.milestoneRepo.SetCompleted(ctx, milestoneID, note); err != nil {
		return err
	}
	s.recordTransition(ctx, milestone, models.MilestoneStatusCompleted, &vendorID, "vendor")
	s.notifier.Send(ctx, "milestone_completed", map[string]any{
		"milestone_id": milestoneID.String(),
		"project_id":   project.ID.String(),
	})
	return nil
}

// completeZeroAmount marks a free milestone paid and unlocks its folders
// in one transaction; there is nothing to escrow.
func (s *MilestoneService) completeZeroAmount(ctx context.Context, milestone *models.Milestone, vendorID uuid.UUID, note string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	repo := s.milestoneRepo.WithTx(tx)
	if err := repo.SetCompleted(ctx, milestone.ID, note); err != nil {
		return err
	}
	if err := repo.MarkPaid(ctx, milestone.ID); err != nil {
		return err
	}
	if err := s.deliverableRepo.WithTx(tx).UnlockByMilestone(ctx, milestone.ID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.recordTransition(ctx, milestone, models.MilestoneStatusPaid, &vendorID, "vendor")
	_ = s.publisher.Publish(ctx, events.StreamPayments, events.Event{
		Type: events.EventFolderUnlocked,
		Payload: map[string]any{
			"milestone_id": milestone.ID.String(),
		},
	})
	return nil
}

// RejectDeliverable sends a completed milestone back to the vendor. At the
// configured threshold of consecutive rejections a dispute is opened
// instead of looping again; the milestone stays completed until the
// dispute resolves.
func (s *MilestoneService) RejectDeliverable(ctx context.Context, milestoneID, clientID uuid.UUID, reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: rejection reason is required", apperrors.ErrInvalidTransaction)
	}

	milestone, project, err := s.loadWithProject(ctx, milestoneID)
	if err != nil {
		return err
	}
	if project.ClientUserID != clientID {
		return fmt.Errorf("caller is not the project client: %w", apperrors.ErrForbidden)
	}
	if milestone.Status != models.MilestoneStatusCompleted {
		return fmt.Errorf("milestone %s is not completed: %w", milestoneID, apperrors.ErrInvalidState)
	}
	if err := s.ensureNotDisputed(ctx, milestoneID); err != nil {
		return err
	}

	count, err := s.milestoneRepo.IncrementRejection(ctx, milestoneID)
	if err != nil {
		return err
	}

	if count >= s.cfg.DisputeRejectionThreshold {
		dispute := &models.Dispute{
			ProjectID:      project.ID,
			MilestoneID:    &milestoneID,
			OpenedByUserID: clientID,
			Status:         models.DisputeStatusOpen,
		}
		if err := s.disputeRepo.Create(ctx, dispute); err != nil {
			return err
		}
		_ = s.auditRepo.Log(ctx, models.AuditLog{
			ActorUserID: &clientID,
			ActorType:   "client",
			Action:      "dispute_opened_on_rejection",
			EntityType:  "milestone",
			EntityID:    &milestoneID,
			Meta:        map[string]any{"rejection_count": count, "dispute_id": dispute.ID.String(), "reason": reason},
		})
		_ = s.publisher.Publish(ctx, events.StreamPayments, events.Event{
			Type: events.EventDisputeOpened,
			Payload: map[string]any{
				"dispute_id":   dispute.ID.String(),
				"milestone_id": milestoneID.String(),
				"project_id":   project.ID.String(),
			},
		})
		s.notifier.Send(ctx, "dispute_opened", map[string]any{
			"dispute_id":   dispute.ID.String(),
			"milestone_id": milestoneID.String(),
		})
		return nil
	}

	if err := s.milestoneRepo.UpdateStatus(ctx, milestoneID,
		models.MilestoneStatusCompleted, models.MilestoneStatusInProgress); err != nil {
		return err
	}
	s.recordTransition(ctx, milestone, models.MilestoneStatusInProgress, &clientID, "client")
	s.notifier.Send(ctx, "deliverable_rejected", map[string]any{
		"milestone_id": milestoneID.String(),
		"reason":       reason,
	})
	return nil
}

// Cancel is the admin/project-cancellation exit.
func (s *MilestoneService) Cancel(ctx context.Context, milestoneID, actorID uuid.UUID) error {
	milestone, err := s.milestoneRepo.GetByID(ctx, milestoneID)
	if err != nil {
		return err
	}
	if !models.IsValidMilestoneTransition(milestone.Status, models.MilestoneStatusCancelled) {
		return fmt.Errorf("milestone %s is %s: %w", milestoneID, milestone.Status, apperrors.ErrInvalidState)
	}
	if err := s.milestoneRepo.UpdateStatus(ctx, milestoneID, milestone.Status, models.MilestoneStatusCancelled); err != nil {
		return err
	}
	s.recordTransition(ctx, milestone, models.MilestoneStatusCancelled, &actorID, "admin")
	return nil
}

// ensureNotDisputed enforces the dispute freeze: while an open dispute
// references the milestone, the normal reject/approve cycle is blocked.
func (s *MilestoneService) ensureNotDisputed(ctx context.Context, milestoneID uuid.UUID) error {
	_, err := s.disputeRepo.GetOpenByMilestone(ctx, milestoneID)
	if err == nil {
		return fmt.Errorf("milestone %s is frozen by an open dispute: %w", milestoneID, apperrors.ErrInvalidState)
	}
	if isNotFound(err) {
		return nil
	}
	return err
}

func (s *MilestoneService) loadWithProject(ctx context.Context, milestoneID uuid.UUID) (*models.Milestone, *models.Project, error) {
	milestone, err := s.milestoneRepo.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, nil, err
	}
	project, err := s.projectRepo.GetByID(ctx, milestone.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return milestone, project, nil
}

func (s *MilestoneService) recordTransition(ctx context.Context, m *models.Milestone, newStatus string, actorID *uuid.UUID, actorType string) {
	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: actorID,
		ActorType:   actorType,
		Action:      fmt.Sprintf("milestone_status_%s_to_%s", m.Status, newStatus),
		EntityType:  "milestone",
		EntityID:    &m.ID,
		Meta:        map[string]any{"old_status": m.Status, "new_status": newStatus},
	})
	_ = s.publisher.Publish(ctx, events.StreamPayments, events.Event{
		Type: events.EventMilestoneStatusChanged,
		Payload: map[string]any{
			"milestone_id": m.ID.String(),
			"old_status":   m.Status,
			"new_status":   newStatus,
		},
	})
	m.Status = newStatus
}
