package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aiwork-marketplace/backend/internal/apperrors"
	"github.com/aiwork-marketplace/backend/internal/config"
	"github.com/aiwork-marketplace/backend/internal/events"
	"github.com/aiwork-marketplace/backend/internal/models"
	"github.com/aiwork-marketplace/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService mediates the escrow release: a milestone's fee moving
// from the client's account to the vendor's. Approval touches the
// request, both accounts, the ledger, the milestone and its folders, and
// runs all of it in one transaction.
type PaymentService struct {
	pool            txBeginner
	requestRepo     repositories.PaymentRequestStore
	milestoneRepo   repositories.MilestoneStore
	projectRepo     projectReader
	disputeRepo     repositories.DisputeStore
	deliverableRepo repositories.DeliverableStore
	userRepo        userReader
	auditRepo       auditSink
	ledger          ledgerApplier
	publisher       events.Publisher
	notifier        *NotifyClient
	cfg             *config.Config
	log             *zap.Logger
}

func NewPaymentService(
	pool txBeginner,
	requestRepo repositories.PaymentRequestStore,
	milestoneRepo repositories.MilestoneStore,
	projectRepo projectReader,
	disputeRepo repositories.DisputeStore,
	deliverableRepo repositories.DeliverableStore,
	userRepo userReader,
	auditRepo auditSink,
	ledger ledgerApplier,
	publisher events.Publisher,
	notifier *NotifyClient,
	cfg *config.Config,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		pool:            pool,
		requestRepo:     requestRepo,
		milestoneRepo:   milestoneRepo,
		projectRepo:     projectRepo,
		disputeRepo:     disputeRepo,
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

// Request opens a pending payment request for a completed milestone.
func (s *PaymentService) Request(ctx context.Context, milestoneID, vendorID uuid.UUID, note string) (*models.PaymentRequest, error) {
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
	if !milestone.Amount.IsPositive() {
		return nil, fmt.Errorf("milestone %s has no fee: %w", milestoneID, apperrors.ErrNothingToPay)
	}
	if milestone.IsPaid || milestone.Status != models.MilestoneStatusCompleted {
		return nil, fmt.Errorf("milestone %s is not awaiting payment: %w", milestoneID, apperrors.ErrInvalidState)
	}
	if _, err := s.disputeRepo.GetOpenByMilestone(ctx, milestoneID); err == nil {
		return nil, fmt.Errorf("milestone %s is frozen by an open dispute: %w", milestoneID, apperrors.ErrInvalidState)
	} else if !isNotFound(err) {
		return nil, err
	}

	request := &models.PaymentRequest{
		MilestoneID:  milestoneID,
		ProjectID:    project.ID,
		VendorUserID: vendorID,
		Amount:       milestone.Amount,
		Status:       models.PaymentRequestStatusPending,
	}
	if note != "" {
		request.VendorNote = &note
	}
	// The partial unique index turns a lost race into ErrDuplicateRequest.
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &vendorID,
		ActorType:   "vendor",
		Action:      "payment_requested",
		EntityType:  "payment_request",
		EntityID:    &request.ID,
		Meta:        map[string]any{"milestone_id": milestoneID.String(), "amount": request.Amount.String()},
	})
	_ = s.publisher.Publish(ctx, events.StreamPayments, events.Event{
		Type: events.EventPaymentRequested,
		Payload: map[string]any{
			"request_id":   request.ID.String(),
			"milestone_id": milestoneID.String(),
			"amount":       request.Amount.String(),
		},
	})
	s.notifier.Send(ctx, "payment_requested", map[string]any{
		"request_id": request.ID.String(),
		"client_id":  project.ClientUserID.String(),
	})
	return request, nil
}

// ApproveResult carries both outputs of a successful approval.
type ApproveResult struct {
	Request     *models.PaymentRequest `json:"request"`
	Transaction *models.Transaction    `json:"transaction"`
}

// Approve releases the escrowed fee. Everything between Begin and Commit
// is one atomic unit: the request flip, the optional simulation top-up,
// the payment itself, the milestone paid mark and the folder unlock
// either all land or none do.
func (s *PaymentService) Approve(ctx context.Context, requestID, clientID uuid.UUID) (*ApproveResult, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.GetByID(ctx, request.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.ClientUserID != clientID {
		return nil, fmt.Errorf("caller is not the project client: %w", apperrors.ErrForbidden)
	}
	client, err := s.userRepo.GetByID(ctx, clientID)
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

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Row lock on the request is the serialization point: of two
	// concurrent approvals, the loser re-reads a terminal status here.
	locked, err := s.requestRepo.WithTx(tx).GetForUpdate(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if locked.Status != models.PaymentRequestStatusPending {
		return nil, fmt.Errorf("payment request %s is %s: %w", requestID, locked.Status, apperrors.ErrInvalidState)
	}
	// Re-checked under the row lock: a dispute opened after the request
	// freezes the milestone until an admin resolves it.
	if _, err := s.disputeRepo.WithTx(tx).GetOpenByMilestone(ctx, locked.MilestoneID); err == nil {
		return nil, fmt.Errorf("milestone %s is frozen by an open dispute: %w", locked.MilestoneID, apperrors.ErrInvalidState)
	} else if !isNotFound(err) {
		return nil, err
	}

	// Balance check happens against the locked account inside ApplyInTx;
	// this pre-read only decides whether a simulation top-up is needed.
	current, err := s.ledger.AccountForUpdate(ctx, tx, clientAccount.ID)
	if err != nil {
		return nil, err
	}
	if current.Balance.LessThan(locked.Amount) {
		if !client.SimulationMode {
			return nil, &apperrors.InsufficientFundsError{
				Required:  locked.Amount,
				Available: current.Balance,
			}
		}
		shortfall := locked.Amount.Sub(current.Balance)
		if _, err := s.ledger.ApplyInTx(ctx, tx, models.TransactionDraft{
			Kind:        models.TransactionKindDeposit,
			Amount:      shortfall,
			ToAccountID: &clientAccount.ID,
			ProjectID:   &project.ID,
			MilestoneID: &locked.MilestoneID,
			Metadata:    map[string]any{"simulated": true, "request_id": requestID.String()},
			Simulated:   true,
		}); err != nil {
			return nil, err
		}
	}

	txn, err := s.ledger.ApplyInTx(ctx, tx, models.TransactionDraft{
		Kind:          models.TransactionKindPayment,
		Amount:        locked.Amount,
		FromAccountID: &clientAccount.ID,
		ToAccountID:   &vendorAccount.ID,
		ProjectID:     &project.ID,
		MilestoneID:   &locked.MilestoneID,
		Metadata:      map[string]any{"request_id": requestID.String()},
	})
	if err != nil {
		return nil, err
	}

	if err := s.requestRepo.WithTx(tx).MarkCompleted(ctx, requestID, txn.ID); err != nil {
		return nil, err
	}
	if err := s.milestoneRepo.WithTx(tx).MarkPaid(ctx, locked.MilestoneID); err != nil {
		return nil, err
	}
	if err := s.deliverableRepo.WithTx(tx).UnlockByMilestone(ctx, locked.MilestoneID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &clientID,
		ActorType:   "client",
		Action:      "payment_approved",
		EntityType:  "payment_request",
		EntityID:    &requestID,
		Meta: map[string]any{
			"milestone_id":   locked.MilestoneID.String(),
			"amount":         locked.Amount.String(),
			"transaction_id": txn.ID.String(),
		},
	})
	_ = s.publisher.Publish(ctx, events.StreamPayments, events.Event{
		Type: events.EventPaymentApproved,
		Payload: map[string]any{
			"request_id":     requestID.String(),
			"milestone_id":   locked.MilestoneID.String(),
			"transaction_id": txn.ID.String(),
			"amount":         locked.Amount.String(),
		},
	})
	_ = s.publisher.Publish(ctx, events.StreamPayments, events.Event{
		Type: events.EventFolderUnlocked,
		Payload: map[string]any{
			"milestone_id": locked.MilestoneID.String(),
		},
	})
	s.notifier.Send(ctx, "payment_approved", map[string]any{
		"request_id": requestID.String(),
		"vendor_id":  project.VendorUserID.String(),
	})

	updated, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return &ApproveResult{Request: updated, Transaction: txn}, nil
}

// Reject closes a pending request without touching any balance. The
// vendor may request again afterwards.
func (s *PaymentService) Reject(ctx context.Context, requestID, clientID uuid.UUID, reason string) (*models.PaymentRequest, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", apperrors.ErrInvalidTransaction)
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.GetByID(ctx, request.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.ClientUserID != clientID {
		return nil, fmt.Errorf("caller is not the project client: %w", apperrors.ErrForbidden)
	}

	if err := s.requestRepo.MarkRejected(ctx, requestID, reason); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &clientID,
		ActorType:   "client",
		Action:      "payment_rejected",
		EntityType:  "payment_request",
		EntityID:    &requestID,
		Meta:        map[string]any{"reason": reason},
	})
	_ = s.publisher.Publish(ctx, events.StreamPayments, events.Event{
		Type: events.EventPaymentRejected,
		Payload: map[string]any{
			"request_id":   requestID.String(),
			"milestone_id": request.MilestoneID.String(),
			"reason":       reason,
		},
	})
	s.notifier.Send(ctx, "payment_rejected", map[string]any{
		"request_id": requestID.String(),
		"vendor_id":  request.VendorUserID.String(),
	})

	return s.requestRepo.GetByID(ctx, requestID)
}

func (s *PaymentService) GetRequest(ctx context.Context, id uuid.UUID) (*models.PaymentRequest, error) {
	return s.requestRepo.GetByID(ctx, id)
}

func (s *PaymentService) ListByMilestone(ctx context.Context, milestoneID uuid.UUID) ([]models.PaymentRequest, error) {
	return s.requestRepo.ListByMilestone(ctx, milestoneID)
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
