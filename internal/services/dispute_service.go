package services

import (
	"context"
	"fmt"

	"github.com/aiwork-marketplace/backend/internal/apperrors"
	"github.com/aiwork-marketplace/backend/internal/config"
	"github.com/aiwork-marketplace/backend/internal/events"
	"github.com/aiwork-marketplace/backend/internal/models"
	"github.com/aiwork-marketplace/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DisputeService owns the freeze-and-arbitrate path. An open dispute
// blocks the milestone's normal payment cycle until an admin resolves it
// with one of three outcomes, each settled through the ledger in the
// same transaction that closes the dispute.
type DisputeService struct {
	pool            *pgxpool.Pool
	disputeRepo     *repositories.DisputeRepo
	milestoneRepo   *repositories.MilestoneRepo
	projectRepo     *repositories.ProjectRepo
	deliverableRepo *repositories.DeliverableRepo
	userRepo        *repositories.UserRepo
	auditRepo       *repositories.AuditRepo
	ledger          *LedgerService
	publisher       events.Publisher
	notifier        *NotifyClient
	cfg             *config.Config
	log             *zap.Logger
}

func NewDisputeService(
	pool *pgxpool.Pool,
	disputeRepo *repositories.DisputeRepo,
	milestoneRepo *repositories.MilestoneRepo,
	projectRepo *repositories.ProjectRepo,
	deliverableRepo *repositories.DeliverableRepo,
	userRepo *repositories.UserRepo,
	auditRepo *repositories.AuditRepo,
	ledger *LedgerService,
	publisher events.Publisher,
	notifier *NotifyClient,
	cfg *config.Config,
	log *zap.Logger,
) *DisputeService {
	return &DisputeService{
		pool:            pool,
		disputeRepo:     disputeRepo,
		milestoneRepo:   milestoneRepo,
		projectRepo:     projectRepo,
		deliverableRepo: deliverableRepo,
		userRepo:        userRepo,
		auditRepo:       auditRepo,
		ledger:          ledger,
		publisher:       publisher,
		notifier:        notifier,
		cfg:             cfg,
		log:             log,
	}
}

// Open files a dispute on a milestone. Either project party may open one;
// at most one dispute per milestone can be active at a time.
func (s *DisputeService) Open(ctx context.Context, milestoneID, openedBy uuid.UUID, notes string) (*models.Dispute, error) {
	milestone, err := s.milestoneRepo.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.GetByID(ctx, milestone.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.ClientUserID != openedBy && project.VendorUserID != openedBy {
		return nil, fmt.Errorf("caller is not a project party: %w", apperrors.ErrForbidden)
	}
	if err := disputeEligibility(milestone, s.cfg.DisputeRejectionThreshold); err != nil {
		return nil, err
	}
	if _, err := s.disputeRepo.GetOpenByMilestone(ctx, milestoneID); err == nil {
		return nil, fmt.Errorf("milestone %s already has an active dispute: %w", milestoneID, apperrors.ErrInvalidState)
	} else if !isNotFound(err) {
		return nil, err
	}

	dispute := &models.Dispute{
		ProjectID:      project.ID,
		MilestoneID:    &milestoneID,
		OpenedByUserID: openedBy,
		Status:         models.DisputeStatusOpen,
	}
	if notes != "" {
		dispute.Notes = &notes
	}
	if err := s.disputeRepo.Create(ctx, dispute); err != nil {
		return nil, err
	}

	actorType := "vendor"
	if openedBy == project.ClientUserID {
		actorType = "client"
	}
	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &openedBy,
		ActorType:   actorType,
		Action:      "dispute_opened",
		EntityType:  "dispute",
		EntityID:    &dispute.ID,
		Meta:        map[string]any{"milestone_id": milestoneID.String()},
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
	return dispute, nil
}

func (s *DisputeService) Get(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return s.disputeRepo.GetByID(ctx, id)
}

func (s *DisputeService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Dispute, error) {
	return s.disputeRepo.ListByProject(ctx, projectID)
}

// disputeEligibility gates manual dispute opening: the milestone must not
// be cancelled, and the deliverable must have been rejected at least the
// configured number of times.
func disputeEligibility(m *models.Milestone, threshold int) error {
	if m.Status == models.MilestoneStatusCancelled {
		return fmt.Errorf("milestone %s is cancelled: %w", m.ID, apperrors.ErrInvalidState)
	}
	if m.RejectionCount < threshold {
		return fmt.Errorf("milestone %s has %d of %d rejections required to dispute: %w",
			m.ID, m.RejectionCount, threshold, apperrors.ErrInvalidState)
	}
	return nil
}

// ResolutionInput is the admin's verdict.
type ResolutionInput struct {
	Resolution  string
	SplitClient decimal.Decimal
	SplitVendor decimal.Decimal
	Notes       string
}

// ValidateSplit checks a split verdict against the disputed amount. The
// two shares must be non-negative and account for the full escrow.
func ValidateSplit(amount, splitClient, splitVendor decimal.Decimal) error {
	if splitClient.IsNegative() || splitVendor.IsNegative() {
		return fmt.Errorf("%w: split shares cannot be negative", apperrors.ErrMissingSplitAmounts)
	}
	if !splitClient.Add(splitVendor).Equal(amount) {
		return fmt.Errorf("%w: shares %s + %s do not total %s",
			apperrors.ErrMissingSplitAmounts, splitClient, splitVendor, amount)
	}
	return nil
}

// Resolve settles a dispute. The dispute row is locked first so a verdict
// lands exactly once; the ledger moves, the milestone outcome and the
// dispute close all commit together.
func (s *DisputeService) Resolve(ctx context.Context, disputeID, adminID uuid.UUID, input ResolutionInput) (*models.Dispute, error) {
	if !models.IsValidDisputeResolution(input.Resolution) {
		return nil, fmt.Errorf("%w: unknown resolution %q", apperrors.ErrInvalidTransaction, input.Resolution)
	}

	dispute, err := s.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !dispute.Open() {
		return nil, fmt.Errorf("dispute %s: %w", disputeID, apperrors.ErrAlreadyResolved)
	}
	if dispute.MilestoneID == nil {
		return nil, fmt.Errorf("dispute %s has no milestone: %w", disputeID, apperrors.ErrInvalidState)
	}
	project, err := s.projectRepo.GetByID(ctx, dispute.ProjectID)
	if err != nil {
		return nil, err
	}

	clientAccount, err := s.ledger.GetOrCreateAccount(ctx, project.ClientUserID)
	if err != nil {
		return nil, err
	}
	vendorAccount, err := s.ledger.GetOrCreateAccount(ctx, project.VendorUserID)
	if err != nil {
		return nil, err
	}
	client, err := s.userRepo.GetByID(ctx, project.ClientUserID)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	locked, err := s.disputeRepo.WithTx(tx).GetForUpdate(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !locked.Open() {
		return nil, fmt.Errorf("dispute %s: %w", disputeID, apperrors.ErrAlreadyResolved)
	}
	milestone, err := s.milestoneRepo.WithTx(tx).GetForUpdate(ctx, *locked.MilestoneID)
	if err != nil {
		return nil, err
	}

	verdict := &models.Dispute{
		ID:         disputeID,
		Resolution: &input.Resolution,
		ResolvedBy: &adminID,
	}
	if input.Notes != "" {
		verdict.Notes = &input.Notes
	}

	switch input.Resolution {
	case models.DisputeResolutionReleaseVendor:
		err = s.resolveRelease(ctx, tx, milestone, project, client, clientAccount.ID, vendorAccount.ID)
	case models.DisputeResolutionRefundClient:
		err = s.resolveRefund(ctx, tx, milestone, project, clientAccount.ID, vendorAccount.ID)
	case models.DisputeResolutionSplitCustom:
		if err := ValidateSplit(milestone.Amount, input.SplitClient, input.SplitVendor); err != nil {
			return nil, err
		}
		verdict.SplitClient = &input.SplitClient
		verdict.SplitVendor = &input.SplitVendor
		err = s.resolveSplit(ctx, tx, milestone, project, client, clientAccount.ID, vendorAccount.ID, input.SplitClient, input.SplitVendor)
	}
	if err != nil {
		return nil, err
	}

	if err := s.disputeRepo.WithTx(tx).Resolve(ctx, verdict); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &adminID,
		ActorType:   "admin",
		Action:      "dispute_resolved",
		EntityType:  "dispute",
		EntityID:    &disputeID,
		Meta: map[string]any{
			"resolution":   input.Resolution,
			"milestone_id": milestone.ID.String(),
		},
	})
	_ = s.publisher.Publish(ctx, events.StreamPayments, events.Event{
		Type: events.EventDisputeResolved,
		Payload: map[string]any{
			"dispute_id":   disputeID.String(),
			"milestone_id": milestone.ID.String(),
			"resolution":   input.Resolution,
		},
	})
	s.notifier.Send(ctx, "dispute_resolved", map[string]any{
		"dispute_id": disputeID.String(),
		"resolution": input.Resolution,
	})

	return s.disputeRepo.GetByID(ctx, disputeID)
}

// resolveRelease awards the full fee to the vendor. On an unpaid
// milestone the escrow payment runs now; a milestone that was already
// paid needs no further ledger movement.
func (s *DisputeService) resolveRelease(ctx context.Context, tx pgx.Tx, milestone *models.Milestone, project *models.Project, client *models.User, clientAccountID, vendorAccountID uuid.UUID) error {
	if milestone.IsPaid {
		return s.settleMilestone(ctx, tx, milestone, models.MilestoneStatusPaid)
	}
	if milestone.Amount.IsPositive() {
		if err := s.topUpIfSimulated(ctx, tx, client, clientAccountID, project, milestone, milestone.Amount); err != nil {
			return err
		}
		if _, err := s.ledger.ApplyInTx(ctx, tx, models.TransactionDraft{
			Kind:          models.TransactionKindPayment,
			Amount:        milestone.Amount,
			FromAccountID: &clientAccountID,
			ToAccountID:   &vendorAccountID,
			ProjectID:     &project.ID,
			MilestoneID:   &milestone.ID,
			Metadata:      map[string]any{"dispute_resolution": models.DisputeResolutionReleaseVendor},
		}); err != nil {
			return err
		}
	}
	return s.settleMilestone(ctx, tx, milestone, models.MilestoneStatusPaid)
}

// resolveRefund returns the fee to the client. A paid milestone claws the
// amount back from the vendor; an unpaid one never moved money, so only
// the milestone state changes. Either way the milestone is cancelled.
func (s *DisputeService) resolveRefund(ctx context.Context, tx pgx.Tx, milestone *models.Milestone, project *models.Project, clientAccountID, vendorAccountID uuid.UUID) error {
	if milestone.IsPaid && milestone.Amount.IsPositive() {
		if _, err := s.ledger.ApplyInTx(ctx, tx, models.TransactionDraft{
			Kind:          models.TransactionKindRefund,
			Amount:        milestone.Amount,
			FromAccountID: &vendorAccountID,
			ToAccountID:   &clientAccountID,
			ProjectID:     &project.ID,
			MilestoneID:   &milestone.ID,
			Metadata:      map[string]any{"dispute_resolution": models.DisputeResolutionRefundClient},
			Simulated:     true,
		}); err != nil {
			return err
		}
	}
	return s.settleMilestone(ctx, tx, milestone, models.MilestoneStatusCancelled)
}

// resolveSplit divides the escrow: the vendor's share is paid out and the
// client's share is recorded as a refund entry, the two together covering
// the full fee. On a paid milestone the vendor already holds everything,
// so only the client's share moves back.
func (s *DisputeService) resolveSplit(ctx context.Context, tx pgx.Tx, milestone *models.Milestone, project *models.Project, client *models.User, clientAccountID, vendorAccountID uuid.UUID, splitClient, splitVendor decimal.Decimal) error {
	if milestone.IsPaid {
		if splitClient.IsPositive() {
			if _, err := s.ledger.ApplyInTx(ctx, tx, models.TransactionDraft{
				Kind:          models.TransactionKindRefund,
				Amount:        splitClient,
				FromAccountID: &vendorAccountID,
				ToAccountID:   &clientAccountID,
				ProjectID:     &project.ID,
				MilestoneID:   &milestone.ID,
				Metadata:      map[string]any{"dispute_resolution": models.DisputeResolutionSplitCustom},
				Simulated:     true,
			}); err != nil {
				return err
			}
		}
		return s.settleMilestone(ctx, tx, milestone, models.MilestoneStatusPaid)
	}

	if err := s.topUpIfSimulated(ctx, tx, client, clientAccountID, project, milestone, milestone.Amount); err != nil {
		return err
	}
	if splitVendor.IsPositive() {
		if _, err := s.ledger.ApplyInTx(ctx, tx, models.TransactionDraft{
			Kind:          models.TransactionKindPayment,
			Amount:        splitVendor,
			FromAccountID: &clientAccountID,
			ToAccountID:   &vendorAccountID,
			ProjectID:     &project.ID,
			MilestoneID:   &milestone.ID,
			Metadata:      map[string]any{"dispute_resolution": models.DisputeResolutionSplitCustom},
		}); err != nil {
			return err
		}
	}
	if splitClient.IsPositive() {
		// Client-to-client entry keeps the released escrow fully visible
		// in the ledger without changing the balance.
		if _, err := s.ledger.ApplyInTx(ctx, tx, models.TransactionDraft{
			Kind:          models.TransactionKindRefund,
			Amount:        splitClient,
			FromAccountID: &clientAccountID,
			ToAccountID:   &clientAccountID,
			ProjectID:     &project.ID,
			MilestoneID:   &milestone.ID,
			Metadata:      map[string]any{"dispute_resolution": models.DisputeResolutionSplitCustom, "escrow_release": true},
		}); err != nil {
			return err
		}
	}
	return s.settleMilestone(ctx, tx, milestone, models.MilestoneStatusPaid)
}

// settleMilestone applies the dispute outcome to the milestone: paid
// outcomes also unlock the deliverable folders.
func (s *DisputeService) settleMilestone(ctx context.Context, tx pgx.Tx, milestone *models.Milestone, outcome string) error {
	switch outcome {
	case models.MilestoneStatusPaid:
		if !milestone.IsPaid {
			if err := s.milestoneRepo.WithTx(tx).MarkPaid(ctx, milestone.ID); err != nil {
				return err
			}
		}
		return s.deliverableRepo.WithTx(tx).UnlockByMilestone(ctx, milestone.ID)
	case models.MilestoneStatusCancelled:
		if milestone.Status == models.MilestoneStatusCancelled {
			return nil
		}
		return s.milestoneRepo.WithTx(tx).UpdateStatus(ctx, milestone.ID, milestone.Status, models.MilestoneStatusCancelled)
	}
	return fmt.Errorf("unexpected milestone outcome %q: %w", outcome, apperrors.ErrInvalidState)
}

// topUpIfSimulated covers the client's shortfall with a tagged deposit
// when the account runs in simulation mode. With a real account the
// shortfall surfaces as InsufficientFundsError before any money moves.
func (s *DisputeService) topUpIfSimulated(ctx context.Context, tx pgx.Tx, client *models.User, clientAccountID uuid.UUID, project *models.Project, milestone *models.Milestone, required decimal.Decimal) error {
	current, err := s.ledger.AccountForUpdate(ctx, tx, clientAccountID)
	if err != nil {
		return err
	}
	if !current.Balance.LessThan(required) {
		return nil
	}
	if !client.SimulationMode {
		return &apperrors.InsufficientFundsError{
			Required:  required,
			Available: current.Balance,
		}
	}
	_, err = s.ledger.ApplyInTx(ctx, tx, models.TransactionDraft{
		Kind:        models.TransactionKindDeposit,
		Amount:      required.Sub(current.Balance),
		ToAccountID: &clientAccountID,
		ProjectID:   &project.ID,
		MilestoneID: &milestone.ID,
		Metadata:    map[string]any{"simulated": true},
		Simulated:   true,
	})
	return err
}
