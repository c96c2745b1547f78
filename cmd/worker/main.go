package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aiwork-marketplace/backend/internal/config"
	"github.com/aiwork-marketplace/backend/internal/db"
	"github.com/aiwork-marketplace/backend/internal/events"
	"github.com/aiwork-marketplace/backend/internal/repositories"
	"github.com/aiwork-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	accountRepo := repositories.NewAccountRepo(pool)
	txnRepo := repositories.NewTransactionRepo(pool)
	requestRepo := repositories.NewPaymentRequestRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	notifier := services.NewNotifyClient(cfg.NotifierURL, log)
	ledger := services.NewLedgerService(pool, accountRepo, txnRepo, auditRepo, publisher, cfg, log)

	log.Info("worker started")

	reconcileTicker := time.NewTicker(cfg.ReconcileInterval)
	staleTicker := time.NewTicker(time.Hour)
	defer reconcileTicker.Stop()
	defer staleTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-reconcileTicker.C:
			runReconciliation(ctx, accountRepo, ledger, log)
		case <-staleTicker.C:
			runStaleReminders(ctx, requestRepo, notifier, cfg, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

// runReconciliation sweeps every account and compares stored balances
// against the ledger. Mismatches are reported by the ledger service; this
// loop only counts them.
func runReconciliation(ctx context.Context, accountRepo *repositories.AccountRepo, ledger *services.LedgerService, log *zap.Logger) {
	accounts, err := accountRepo.ListAll(ctx)
	if err != nil {
		log.Error("failed to list accounts for reconciliation", zap.Error(err))
		return
	}

	var mismatches int
	for _, account := range accounts {
		result, err := ledger.Reconcile(ctx, account.ID)
		if err != nil {
			log.Error("reconciliation failed", zap.String("account_id", account.ID.String()), zap.Error(err))
			continue
		}
		if !result.Consistent {
			mismatches++
		}
	}

	log.Info("reconciliation sweep finished",
		zap.Int("accounts", len(accounts)),
		zap.Int("mismatches", mismatches),
	)
}

// runStaleReminders nudges clients about payment requests that sat
// pending past the configured age.
func runStaleReminders(ctx context.Context, requestRepo *repositories.PaymentRequestRepo, notifier *services.NotifyClient, cfg *config.Config, log *zap.Logger) {
	cutoff := time.Now().Add(-cfg.StalePendingAfter)
	requests, err := requestRepo.ListStalePending(ctx, cutoff)
	if err != nil {
		log.Error("failed to list stale payment requests", zap.Error(err))
		return
	}

	for _, request := range requests {
		log.Info("stale payment request",
			zap.String("request_id", request.ID.String()),
			zap.Time("requested_at", request.RequestedAt),
		)
		notifier.Send(ctx, "payment_request_stale", map[string]any{
			"request_id":   request.ID.String(),
			"milestone_id": request.MilestoneID.String(),
			"requested_at": request.RequestedAt.Format(time.RFC3339),
		})
	}
}
