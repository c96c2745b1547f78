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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRequestRepo struct {
	db DBTX
}

func NewPaymentRequestRepo(pool *pgxpool.Pool) *PaymentRequestRepo {
	return &PaymentRequestRepo{db: pool}
}

func (r *PaymentRequestRepo) WithTx(tx pgx.Tx) PaymentRequestStore {
	return &PaymentRequestRepo{db: tx}
}

const paymentRequestColumns = `id, milestone_id, project_id, vendor_user_id, amount, status,
		vendor_note, rejection_reason, transaction_id, requested_at, reviewed_at`

// Create inserts a new pending request. A partial unique index on
// (milestone_id) WHERE status = 'pending' backs the at-most-one-active
// invariant; a violation surfaces as ErrDuplicateRequest.
func (r *PaymentRequestRepo) Create(ctx context.Context, p *models.PaymentRequest) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO payment_requests (milestone_id, project_id, vendor_user_id, amount, status, vendor_note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, requested_at
	`, p.MilestoneID, p.ProjectID, p.VendorUserID, p.Amount, p.Status, p.VendorNote).Scan(&p.ID, &p.RequestedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("milestone %s already has an active request: %w", p.MilestoneID, apperrors.ErrDuplicateRequest)
	}
	return err
}

func (r *PaymentRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentRequest, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		`SELECT `+paymentRequestColumns+` FROM payment_requests WHERE id = $1`, id))
}

// GetForUpdate locks the request row; concurrent approve/reject attempts
// on the same request serialize here.
func (r *PaymentRequestRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.PaymentRequest, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		`SELECT `+paymentRequestColumns+` FROM payment_requests WHERE id = $1 FOR UPDATE`, id))
}

func (r *PaymentRequestRepo) GetActiveByMilestone(ctx context.Context, milestoneID uuid.UUID) (*models.PaymentRequest, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		`SELECT `+paymentRequestColumns+` FROM payment_requests WHERE milestone_id = $1 AND status = 'pending'`, milestoneID))
}

func (r *PaymentRequestRepo) ListByMilestone(ctx context.Context, milestoneID uuid.UUID) ([]models.PaymentRequest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+paymentRequestColumns+` FROM payment_requests WHERE milestone_id = $1 ORDER BY requested_at DESC`, milestoneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.PaymentRequest
	for rows.Next() {
		var p models.PaymentRequest
		if err := rows.Scan(&p.ID, &p.MilestoneID, &p.ProjectID, &p.VendorUserID, &p.Amount, &p.Status,
			&p.VendorNote, &p.RejectionReason, &p.TransactionID, &p.RequestedAt, &p.ReviewedAt); err != nil {
			return nil, err
		}
		requests = append(requests, p)
	}
	return requests, nil
}

// MarkCompleted closes a pending request with its ledger transaction id.
func (r *PaymentRequestRepo) MarkCompleted(ctx context.Context, id, transactionID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE payment_requests SET status = 'completed', transaction_id = $1, reviewed_at = now()
		WHERE id = $2 AND status = 'pending'
	`, transactionID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment request %s is not pending: %w", id, apperrors.ErrInvalidState)
	}
	return nil
}

func (r *PaymentRequestRepo) MarkRejected(ctx context.Context, id uuid.UUID, reason string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE payment_requests SET status = 'rejected', rejection_reason = $1, reviewed_at = now()
		WHERE id = $2 AND status = 'pending'
	`, reason, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment request %s is not pending: %w", id, apperrors.ErrInvalidState)
	}
	return nil
}

// ListStalePending returns pending requests older than the cutoff, for
// reminder events from the worker.
func (r *PaymentRequestRepo) ListStalePending(ctx context.Context, olderThan time.Time) ([]models.PaymentRequest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+paymentRequestColumns+` FROM payment_requests WHERE status = 'pending' AND requested_at < $1`, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.PaymentRequest
	for rows.Next() {
		var p models.PaymentRequest
		if err := rows.Scan(&p.ID, &p.MilestoneID, &p.ProjectID, &p.VendorUserID, &p.Amount, &p.Status,
			&p.VendorNote, &p.RejectionReason, &p.TransactionID, &p.RequestedAt, &p.ReviewedAt); err != nil {
			return nil, err
		}
		requests = append(requests, p)
	}
	return requests, nil
}

func (r *PaymentRequestRepo) scanOne(row pgx.Row) (*models.PaymentRequest, error) {
	var p models.PaymentRequest
	err := row.Scan(&p.ID, &p.MilestoneID, &p.ProjectID, &p.VendorUserID, &p.Amount, &p.Status,
		&p.VendorNote, &p.RejectionReason, &p.TransactionID, &p.RequestedAt, &p.ReviewedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("payment request: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
