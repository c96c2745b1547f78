package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aiwork-marketplace/backend/internal/apperrors"
	"github.com/aiwork-marketplace/backend/internal/config"
	"github.com/aiwork-marketplace/backend/internal/events"
	"github.com/aiwork-marketplace/backend/internal/models"
	"github.com/aiwork-marketplace/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// memTx satisfies pgx.Tx for services under test; the fakes hold their
// state in memory, so commit and rollback are no-ops.
type memTx struct{}

func (memTx) Begin(context.Context) (pgx.Tx, error) { return memTx{}, nil }
func (memTx) Commit(context.Context) error          { return nil }
func (memTx) Rollback(context.Context) error        { return nil }
func (memTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (memTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (memTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (memTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (memTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (memTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (memTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (memTx) Conn() *pgx.Conn                                         { return nil }

type memPool struct{}

func (memPool) Begin(context.Context) (pgx.Tx, error) { return memTx{}, nil }

type fakeLedger struct {
	accounts map[uuid.UUID]*models.Account
	byOwner  map[uuid.UUID]*models.Account
	txns     []models.Transaction
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		accounts: map[uuid.UUID]*models.Account{},
		byOwner:  map[uuid.UUID]*models.Account{},
	}
}

func (l *fakeLedger) GetOrCreateAccount(_ context.Context, ownerUserID uuid.UUID) (*models.Account, error) {
	if acc, ok := l.byOwner[ownerUserID]; ok {
		return acc, nil
	}
	acc := &models.Account{ID: uuid.New(), OwnerUserID: ownerUserID, Balance: decimal.Zero, Currency: "USD"}
	l.accounts[acc.ID] = acc
	l.byOwner[ownerUserID] = acc
	return acc, nil
}

func (l *fakeLedger) AccountForUpdate(_ context.Context, _ pgx.Tx, accountID uuid.UUID) (*models.Account, error) {
	acc, ok := l.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account: %w", apperrors.ErrNotFound)
	}
	return acc, nil
}

func (l *fakeLedger) ApplyInTx(_ context.Context, _ pgx.Tx, draft models.TransactionDraft) (*models.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if draft.FromAccountID != nil {
		from := l.accounts[*draft.FromAccountID]
		if !draft.Simulated && from.Balance.LessThan(draft.Amount) {
			return nil, &apperrors.InsufficientFundsError{Required: draft.Amount, Available: from.Balance}
		}
		from.Balance = from.Balance.Sub(draft.Amount)
	}
	if draft.ToAccountID != nil {
		to := l.accounts[*draft.ToAccountID]
		to.Balance = to.Balance.Add(draft.Amount)
	}
	now := time.Now()
	txn := models.Transaction{
		ID:            uuid.New(),
		Kind:          draft.Kind,
		Status:        models.TransactionStatusCompleted,
		Amount:        draft.Amount,
		FromAccountID: draft.FromAccountID,
		ToAccountID:   draft.ToAccountID,
		ProjectID:     draft.ProjectID,
		MilestoneID:   draft.MilestoneID,
		Metadata:      draft.Metadata,
		CompletedAt:   &now,
	}
	l.txns = append(l.txns, txn)
	return &txn, nil
}

func (l *fakeLedger) balance(ownerUserID uuid.UUID) decimal.Decimal {
	return l.byOwner[ownerUserID].Balance
}

type fakeRequestStore struct {
	requests map[uuid.UUID]*models.PaymentRequest
}

func (s *fakeRequestStore) WithTx(pgx.Tx) repositories.PaymentRequestStore { return s }

func (s *fakeRequestStore) Create(_ context.Context, p *models.PaymentRequest) error {
	for _, r := range s.requests {
		if r.MilestoneID == p.MilestoneID && r.Status == models.PaymentRequestStatusPending {
			return fmt.Errorf("milestone %s already has an active request: %w", p.MilestoneID, apperrors.ErrDuplicateRequest)
		}
	}
	p.ID = uuid.New()
	p.RequestedAt = time.Now()
	s.requests[p.ID] = p
	return nil
}

func (s *fakeRequestStore) GetByID(_ context.Context, id uuid.UUID) (*models.PaymentRequest, error) {
	r, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("payment request: %w", apperrors.ErrNotFound)
	}
	return r, nil
}

func (s *fakeRequestStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.PaymentRequest, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeRequestStore) GetActiveByMilestone(_ context.Context, milestoneID uuid.UUID) (*models.PaymentRequest, error) {
	for _, r := range s.requests {
		if r.MilestoneID == milestoneID && r.Status == models.PaymentRequestStatusPending {
			return r, nil
		}
	}
	return nil, fmt.Errorf("payment request: %w", apperrors.ErrNotFound)
}

func (s *fakeRequestStore) ListByMilestone(_ context.Context, milestoneID uuid.UUID) ([]models.PaymentRequest, error) {
	var out []models.PaymentRequest
	for _, r := range s.requests {
		if r.MilestoneID == milestoneID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeRequestStore) MarkCompleted(_ context.Context, id, transactionID uuid.UUID) error {
	r, ok := s.requests[id]
	if !ok || r.Status != models.PaymentRequestStatusPending {
		return fmt.Errorf("payment request %s is not pending: %w", id, apperrors.ErrInvalidState)
	}
	now := time.Now()
	r.Status = models.PaymentRequestStatusCompleted
	r.TransactionID = &transactionID
	r.ReviewedAt = &now
	return nil
}

func (s *fakeRequestStore) MarkRejected(_ context.Context, id uuid.UUID, reason string) error {
	r, ok := s.requests[id]
	if !ok || r.Status != models.PaymentRequestStatusPending {
		return fmt.Errorf("payment request %s is not pending: %w", id, apperrors.ErrInvalidState)
	}
	now := time.Now()
	r.Status = models.PaymentRequestStatusRejected
	r.RejectionReason = &reason
	r.ReviewedAt = &now
	return nil
}

func (s *fakeRequestStore) ListStalePending(context.Context, time.Time) ([]models.PaymentRequest, error) {
	return nil, nil
}

type fakeMilestoneStore struct {
	milestones map[uuid.UUID]*models.Milestone
}

func (s *fakeMilestoneStore) WithTx(pgx.Tx) repositories.MilestoneStore { return s }

func (s *fakeMilestoneStore) Create(_ context.Context, m *models.Milestone) error {
	m.ID = uuid.New()
	s.milestones[m.ID] = m
	return nil
}

func (s *fakeMilestoneStore) DeleteByProject(_ context.Context, projectID uuid.UUID) error {
	for id, m := range s.milestones {
		if m.ProjectID == projectID {
			delete(s.milestones, id)
		}
	}
	return nil
}

func (s *fakeMilestoneStore) GetByID(_ context.Context, id uuid.UUID) (*models.Milestone, error) {
	m, ok := s.milestones[id]
	if !ok {
		return nil, fmt.Errorf("milestone: %w", apperrors.ErrNotFound)
	}
	return m, nil
}

func (s *fakeMilestoneStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeMilestoneStore) ListByProject(_ context.Context, projectID uuid.UUID) ([]models.Milestone, error) {
	var out []models.Milestone
	for _, m := range s.milestones {
		if m.ProjectID == projectID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *fakeMilestoneStore) UpdateStatus(_ context.Context, id uuid.UUID, fromStatus, toStatus string) error {
	m, ok := s.milestones[id]
	if !ok || m.Status != fromStatus {
		return fmt.Errorf("milestone %s is not %s: %w", id, fromStatus, apperrors.ErrInvalidState)
	}
	m.Status = toStatus
	return nil
}

func (s *fakeMilestoneStore) SetCompleted(_ context.Context, id uuid.UUID, note string) error {
	m, ok := s.milestones[id]
	if !ok || m.Status != models.MilestoneStatusInProgress {
		return fmt.Errorf("milestone %s is not in_progress: %w", id, apperrors.ErrInvalidState)
	}
	m.Status = models.MilestoneStatusCompleted
	m.CompletionNote = &note
	return nil
}

func (s *fakeMilestoneStore) MarkPaid(_ context.Context, id uuid.UUID) error {
	m, ok := s.milestones[id]
	if !ok || m.IsPaid ||
		(m.Status != models.MilestoneStatusInProgress && m.Status != models.MilestoneStatusCompleted) {
		return fmt.Errorf("milestone %s cannot be marked paid: %w", id, apperrors.ErrInvalidState)
	}
	m.Status = models.MilestoneStatusPaid
	m.IsPaid = true
	return nil
}

func (s *fakeMilestoneStore) IncrementRejection(_ context.Context, id uuid.UUID) (int, error) {
	m, ok := s.milestones[id]
	if !ok {
		return 0, fmt.Errorf("milestone: %w", apperrors.ErrNotFound)
	}
	m.RejectionCount++
	return m.RejectionCount, nil
}

type fakeDisputeStore struct {
	disputes map[uuid.UUID]*models.Dispute
}

func (s *fakeDisputeStore) WithTx(pgx.Tx) repositories.DisputeStore { return s }

func (s *fakeDisputeStore) Create(_ context.Context, d *models.Dispute) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	s.disputes[d.ID] = d
	return nil
}

func (s *fakeDisputeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Dispute, error) {
	d, ok := s.disputes[id]
	if !ok {
		return nil, fmt.Errorf("dispute: %w", apperrors.ErrNotFound)
	}
	return d, nil
}

func (s *fakeDisputeStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeDisputeStore) GetOpenByMilestone(_ context.Context, milestoneID uuid.UUID) (*models.Dispute, error) {
	for _, d := range s.disputes {
		if d.MilestoneID != nil && *d.MilestoneID == milestoneID && d.Open() {
			return d, nil
		}
	}
	return nil, fmt.Errorf("dispute: %w", apperrors.ErrNotFound)
}

func (s *fakeDisputeStore) ListByProject(_ context.Context, projectID uuid.UUID) ([]models.Dispute, error) {
	var out []models.Dispute
	for _, d := range s.disputes {
		if d.ProjectID == projectID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *fakeDisputeStore) Resolve(_ context.Context, d *models.Dispute) error {
	existing, ok := s.disputes[d.ID]
	if !ok || !existing.Open() {
		return fmt.Errorf("dispute %s: %w", d.ID, apperrors.ErrAlreadyResolved)
	}
	now := time.Now()
	existing.Status = models.DisputeStatusResolved
	existing.Resolution = d.Resolution
	existing.SplitClient = d.SplitClient
	existing.SplitVendor = d.SplitVendor
	existing.Notes = d.Notes
	existing.ResolvedBy = d.ResolvedBy
	existing.ResolvedAt = &now
	return nil
}

type fakeDeliverableStore struct {
	folders map[uuid.UUID]*models.DeliverableFolder
}

func (s *fakeDeliverableStore) WithTx(pgx.Tx) repositories.DeliverableStore { return s }

func (s *fakeDeliverableStore) CreateFolder(_ context.Context, f *models.DeliverableFolder) error {
	f.ID = uuid.New()
	s.folders[f.ID] = f
	return nil
}

func (s *fakeDeliverableStore) GetFolder(_ context.Context, id uuid.UUID) (*models.DeliverableFolder, error) {
	f, ok := s.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder: %w", apperrors.ErrNotFound)
	}
	return f, nil
}

func (s *fakeDeliverableStore) ListFoldersByMilestone(_ context.Context, milestoneID uuid.UUID) ([]models.DeliverableFolder, error) {
	var out []models.DeliverableFolder
	for _, f := range s.folders {
		if f.MilestoneID == milestoneID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *fakeDeliverableStore) UnlockByMilestone(_ context.Context, milestoneID uuid.UUID) error {
	for _, f := range s.folders {
		if f.MilestoneID == milestoneID {
			f.Status = models.FolderStatusUnlocked
		}
	}
	return nil
}

func (s *fakeDeliverableStore) CreateFile(context.Context, *models.DeliverableFile) error { return nil }

func (s *fakeDeliverableStore) GetFile(context.Context, uuid.UUID) (*models.DeliverableFile, error) {
	return nil, fmt.Errorf("file: %w", apperrors.ErrNotFound)
}

func (s *fakeDeliverableStore) ListFiles(context.Context, uuid.UUID) ([]models.DeliverableFile, error) {
	return nil, nil
}

type fakeProjects struct {
	projects map[uuid.UUID]*models.Project
}

func (s *fakeProjects) GetByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project: %w", apperrors.ErrNotFound)
	}
	return p, nil
}

type fakeUsers struct {
	users map[uuid.UUID]*models.User
}

func (s *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
	}
	return u, nil
}

type fakeAudit struct {
	entries []models.AuditLog
}

func (s *fakeAudit) Log(_ context.Context, entry models.AuditLog) error {
	s.entries = append(s.entries, entry)
	return nil
}

type fakePublisher struct {
	published []events.Event
}

func (p *fakePublisher) Publish(_ context.Context, _ string, event events.Event) error {
	p.published = append(p.published, event)
	return nil
}

// paymentEnv wires a PaymentService over in-memory fakes with one
// completed $500 milestone awaiting payment.
type paymentEnv struct {
	svc        *PaymentService
	ledger     *fakeLedger
	requests   *fakeRequestStore
	milestones *fakeMilestoneStore
	disputes   *fakeDisputeStore
	folders    *fakeDeliverableStore
	client     *models.User
	vendor     *models.User
	project    *models.Project
	milestone  *models.Milestone
	folder     *models.DeliverableFolder
}

func newPaymentEnv(t *testing.T, clientBalance decimal.Decimal, simulation bool) *paymentEnv {
	t.Helper()
	ctx := context.Background()

	client := &models.User{ID: uuid.New(), Email: "client@example.com", Role: models.RoleClient, SimulationMode: simulation}
	vendor := &models.User{ID: uuid.New(), Email: "vendor@example.com", Role: models.RoleVendor}
	project := &models.Project{ID: uuid.New(), ClientUserID: client.ID, VendorUserID: vendor.ID, Title: "landing page", Status: models.ProjectStatusActive}
	milestone := &models.Milestone{ID: uuid.New(), ProjectID: project.ID, Title: "design", Amount: decimal.NewFromInt(500), Status: models.MilestoneStatusCompleted}
	folder := &models.DeliverableFolder{ID: uuid.New(), MilestoneID: milestone.ID, ProjectID: project.ID, Name: "drafts", Status: models.FolderStatusInProgress}

	ledger := newFakeLedger()
	clientAccount, _ := ledger.GetOrCreateAccount(ctx, client.ID)
	clientAccount.Balance = clientBalance
	if _, err := ledger.GetOrCreateAccount(ctx, vendor.ID); err != nil {
		t.Fatalf("seed vendor account: %v", err)
	}

	env := &paymentEnv{
		ledger:     ledger,
		requests:   &fakeRequestStore{requests: map[uuid.UUID]*models.PaymentRequest{}},
		milestones: &fakeMilestoneStore{milestones: map[uuid.UUID]*models.Milestone{milestone.ID: milestone}},
		disputes:   &fakeDisputeStore{disputes: map[uuid.UUID]*models.Dispute{}},
		folders:    &fakeDeliverableStore{folders: map[uuid.UUID]*models.DeliverableFolder{folder.ID: folder}},
		client:     client,
		vendor:     vendor,
		project:    project,
		milestone:  milestone,
		folder:     folder,
	}
	env.svc = NewPaymentService(
		memPool{},
		env.requests,
		env.milestones,
		&fakeProjects{projects: map[uuid.UUID]*models.Project{project.ID: project}},
		env.disputes,
		env.folders,
		&fakeUsers{users: map[uuid.UUID]*models.User{client.ID: client, vendor.ID: vendor}},
		&fakeAudit{},
		ledger,
		&fakePublisher{},
		NewNotifyClient("", zap.NewNop()),
		&config.Config{CurrencyCode: "USD", DisputeRejectionThreshold: 3},
		zap.NewNop(),
	)
	return env
}

func TestPaymentApprovalFlow(t *testing.T) {
	ctx := context.Background()
	env := newPaymentEnv(t, decimal.NewFromInt(1000), false)

	req, err := env.svc.Request(ctx, env.milestone.ID, env.vendor.ID, "all pages delivered")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if req.Status != models.PaymentRequestStatusPending {
		t.Fatalf("request status = %q, want pending", req.Status)
	}

	res, err := env.svc.Approve(ctx, req.ID, env.client.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if res.Request.Status != models.PaymentRequestStatusCompleted {
		t.Errorf("request status = %q, want completed", res.Request.Status)
	}
	if res.Transaction.Kind != models.TransactionKindPayment {
		t.Errorf("transaction kind = %q, want payment", res.Transaction.Kind)
	}
	if got := env.ledger.balance(env.client.ID); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("client balance = %s, want 500", got)
	}
	if got := env.ledger.balance(env.vendor.ID); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("vendor balance = %s, want 500", got)
	}
	if !env.milestone.IsPaid || env.milestone.Status != models.MilestoneStatusPaid {
		t.Errorf("milestone = %q/paid=%v, want paid/true", env.milestone.Status, env.milestone.IsPaid)
	}
	if env.folder.Status != models.FolderStatusUnlocked {
		t.Errorf("folder status = %q, want unlocked", env.folder.Status)
	}
}

func TestApproveSimulationTopUp(t *testing.T) {
	ctx := context.Background()
	env := newPaymentEnv(t, decimal.Zero, true)

	req, err := env.svc.Request(ctx, env.milestone.ID, env.vendor.ID, "")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := env.svc.Approve(ctx, req.ID, env.client.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if len(env.ledger.txns) != 2 {
		t.Fatalf("ledger entries = %d, want 2 (top-up deposit + payment)", len(env.ledger.txns))
	}
	deposit := env.ledger.txns[0]
	if deposit.Kind != models.TransactionKindDeposit {
		t.Errorf("first entry kind = %q, want deposit", deposit.Kind)
	}
	if simulated, _ := deposit.Metadata["simulated"].(bool); !simulated {
		t.Error("top-up deposit is not tagged simulated")
	}
	if !deposit.Amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("top-up amount = %s, want 500", deposit.Amount)
	}
	if got := env.ledger.balance(env.client.ID); !got.IsZero() {
		t.Errorf("client balance = %s, want 0", got)
	}
	if got := env.ledger.balance(env.vendor.ID); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("vendor balance = %s, want 500", got)
	}
}

func TestApproveInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	env := newPaymentEnv(t, decimal.Zero, false)

	req, err := env.svc.Request(ctx, env.milestone.ID, env.vendor.ID, "")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	_, err = env.svc.Approve(ctx, req.ID, env.client.ID)

	var insufficient *apperrors.InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Approve error = %v, want InsufficientFundsError", err)
	}
	if !insufficient.Required.Equal(decimal.NewFromInt(500)) || !insufficient.Available.IsZero() {
		t.Errorf("required/available = %s/%s, want 500/0", insufficient.Required, insufficient.Available)
	}
	if req.Status != models.PaymentRequestStatusPending {
		t.Errorf("request status = %q, want pending", req.Status)
	}
	if env.milestone.IsPaid {
		t.Error("milestone marked paid on a failed approval")
	}
	if env.folder.Status != models.FolderStatusInProgress {
		t.Errorf("folder status = %q, want in_progress", env.folder.Status)
	}
	if len(env.ledger.txns) != 0 {
		t.Errorf("ledger entries = %d, want 0", len(env.ledger.txns))
	}
}

func TestRejectThenRequestAgain(t *testing.T) {
	ctx := context.Background()
	env := newPaymentEnv(t, decimal.NewFromInt(1000), false)

	first, err := env.svc.Request(ctx, env.milestone.ID, env.vendor.ID, "")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	rejected, err := env.svc.Reject(ctx, first.ID, env.client.ID, "incomplete")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != models.PaymentRequestStatusRejected {
		t.Errorf("request status = %q, want rejected", rejected.Status)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason != "incomplete" {
		t.Errorf("rejection reason = %v, want incomplete", rejected.RejectionReason)
	}

	second, err := env.svc.Request(ctx, env.milestone.ID, env.vendor.ID, "reworked")
	if err != nil {
		t.Fatalf("Request after rejection: %v", err)
	}
	if second.Status != models.PaymentRequestStatusPending {
		t.Errorf("second request status = %q, want pending", second.Status)
	}
}

func TestRequestDuplicatePending(t *testing.T) {
	ctx := context.Background()
	env := newPaymentEnv(t, decimal.NewFromInt(1000), false)

	if _, err := env.svc.Request(ctx, env.milestone.ID, env.vendor.ID, ""); err != nil {
		t.Fatalf("Request: %v", err)
	}
	_, err := env.svc.Request(ctx, env.milestone.ID, env.vendor.ID, "again")
	if !errors.Is(err, apperrors.ErrDuplicateRequest) {
		t.Errorf("second request error = %v, want ErrDuplicateRequest", err)
	}
}

func TestApproveFrozenByDispute(t *testing.T) {
	ctx := context.Background()
	env := newPaymentEnv(t, decimal.NewFromInt(1000), false)

	req, err := env.svc.Request(ctx, env.milestone.ID, env.vendor.ID, "")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	// A dispute opened after the request freezes the milestone.
	dispute := &models.Dispute{
		ProjectID:      env.project.ID,
		MilestoneID:    &env.milestone.ID,
		OpenedByUserID: env.client.ID,
		Status:         models.DisputeStatusOpen,
	}
	if err := env.disputes.Create(ctx, dispute); err != nil {
		t.Fatalf("seed dispute: %v", err)
	}

	_, err = env.svc.Approve(ctx, req.ID, env.client.ID)
	if !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("Approve error = %v, want ErrInvalidState", err)
	}
	if req.Status != models.PaymentRequestStatusPending {
		t.Errorf("request status = %q, want pending", req.Status)
	}
	if got := env.ledger.balance(env.vendor.ID); !got.IsZero() {
		t.Errorf("vendor balance = %s, want 0", got)
	}
	if env.milestone.IsPaid {
		t.Error("milestone marked paid while disputed")
	}
}

func TestApproveByNonClient(t *testing.T) {
	ctx := context.Background()
	env := newPaymentEnv(t, decimal.NewFromInt(1000), false)

	req, err := env.svc.Request(ctx, env.milestone.ID, env.vendor.ID, "")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := env.svc.Approve(ctx, req.ID, env.vendor.ID); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("Approve by vendor error = %v, want ErrForbidden", err)
	}
}
