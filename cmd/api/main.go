package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aiwork-marketplace/backend/internal/config"
	"github.com/aiwork-marketplace/backend/internal/db"
	"github.com/aiwork-marketplace/backend/internal/events"
	apphttp "github.com/aiwork-marketplace/backend/internal/http"
	"github.com/aiwork-marketplace/backend/internal/http/handlers"
	"github.com/aiwork-marketplace/backend/internal/repositories"
	"github.com/aiwork-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	projectRepo := repositories.NewProjectRepo(pool)
	milestoneRepo := repositories.NewMilestoneRepo(pool)
	accountRepo := repositories.NewAccountRepo(pool)
	txnRepo := repositories.NewTransactionRepo(pool)
	requestRepo := repositories.NewPaymentRequestRepo(pool)
	disputeRepo := repositories.NewDisputeRepo(pool)
	deliverableRepo := repositories.NewDeliverableRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	notifier := services.NewNotifyClient(cfg.NotifierURL, log)
	ledger := services.NewLedgerService(pool, accountRepo, txnRepo, auditRepo, publisher, cfg, log)
	authService := services.NewAuthService(userRepo, cfg, log)
	projectService := services.NewProjectService(projectRepo, milestoneRepo, userRepo, auditRepo, log)
	milestoneService := services.NewMilestoneService(pool, milestoneRepo, projectRepo, disputeRepo, deliverableRepo, auditRepo, publisher, notifier, cfg, log)
	paymentService := services.NewPaymentService(pool, requestRepo, milestoneRepo, projectRepo, disputeRepo, deliverableRepo, userRepo, auditRepo, ledger, publisher, notifier, cfg, log)
	disputeService := services.NewDisputeService(pool, disputeRepo, milestoneRepo, projectRepo, deliverableRepo, userRepo, auditRepo, ledger, publisher, notifier, cfg, log)
	deliverableService := services.NewDeliverableService(deliverableRepo, milestoneRepo, projectRepo, auditRepo, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, log)
	projectHandler := handlers.NewProjectHandler(projectService, milestoneService, log)
	milestoneHandler := handlers.NewMilestoneHandler(milestoneService, log)
	paymentHandler := handlers.NewPaymentHandler(paymentService, log)
	disputeHandler := handlers.NewDisputeHandler(disputeService, log)
	accountHandler := handlers.NewAccountHandler(ledger, log)
	adminHandler := handlers.NewAdminHandler(ledger, auditRepo, log)
	deliverableHandler := handlers.NewDeliverableHandler(deliverableService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, projectHandler, milestoneHandler,
		paymentHandler, disputeHandler, accountHandler, adminHandler, deliverableHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
