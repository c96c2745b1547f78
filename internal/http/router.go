package http

import (
	"time"

	"github.com/aiwork-marketplace/backend/internal/config"
	"github.com/aiwork-marketplace/backend/internal/http/handlers"
	"github.com/aiwork-marketplace/backend/internal/middleware"
	"github.com/aiwork-marketplace/backend/internal/rbac"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	projectHandler *handlers.ProjectHandler,
	milestoneHandler *handlers.MilestoneHandler,
	paymentHandler *handlers.PaymentHandler,
	disputeHandler *handlers.DisputeHandler,
	accountHandler *handlers.AccountHandler,
	adminHandler *handlers.AdminHandler,
	deliverableHandler *handlers.DeliverableHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)

	// Rate-limited endpoints
	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// User
	protected.Get("/me", authHandler.GetMe)
	protected.Post("/me/simulation-mode", authHandler.SetSimulationMode)

	// Account / ledger
	protected.Get("/me/account", accountHandler.GetAccount)
	protected.Get("/me/account/transactions", accountHandler.ListTransactions)
	protected.Get("/me/account/reconcile", accountHandler.Reconcile)

	// Projects
	protected.Post("/projects", middleware.RequirePermission(rbac.PermCreateProject), projectHandler.CreateProject)
	protected.Get("/projects", projectHandler.ListProjects)
	protected.Get("/projects/:id", projectHandler.GetProject)
	protected.Post("/projects/:id/close", projectHandler.CloseProject)
	protected.Put("/projects/:id/milestones", middleware.RequirePermission(rbac.PermSetupMilestones), projectHandler.SetupMilestones)
	protected.Get("/projects/:id/milestones", projectHandler.ListMilestones)
	protected.Get("/projects/:id/disputes", disputeHandler.ListProjectDisputes)

	// Milestones
	protected.Get("/milestones/:id", milestoneHandler.GetMilestone)
	protected.Post("/milestones/:id/start", middleware.RequirePermission(rbac.PermStartMilestone), milestoneHandler.StartMilestone)
	protected.Post("/milestones/:id/complete", middleware.RequirePermission(rbac.PermCompleteMilestone), milestoneHandler.CompleteMilestone)
	protected.Post("/milestones/:id/reject", middleware.RequirePermission(rbac.PermRejectDeliverable), milestoneHandler.RejectDeliverable)
	protected.Post("/milestones/:id/cancel", middleware.AdminMiddleware(), milestoneHandler.CancelMilestone)

	// Payment requests
	protected.Post("/milestones/:id/payment-requests", middleware.RequirePermission(rbac.PermRequestPayment), paymentHandler.RequestPayment)
	protected.Get("/milestones/:id/payment-requests", paymentHandler.ListPaymentRequests)
	protected.Get("/payment-requests/:id", paymentHandler.GetPaymentRequest)
	protected.Post("/payment-requests/:id/approve", middleware.RequirePermission(rbac.PermApprovePayment), paymentHandler.ApprovePayment)
	protected.Post("/payment-requests/:id/reject", middleware.RequirePermission(rbac.PermRejectPayment), paymentHandler.RejectPayment)

	// Disputes
	protected.Post("/disputes", middleware.RequirePermission(rbac.PermOpenDispute), disputeHandler.OpenDispute)
	protected.Get("/disputes/:id", disputeHandler.GetDispute)
	protected.Post("/disputes/:id/resolve", middleware.RequirePermission(rbac.PermResolveDispute), disputeHandler.ResolveDispute)

	// Deliverables
	protected.Post("/milestones/:id/folders", middleware.RequirePermission(rbac.PermManageFolders), deliverableHandler.CreateFolder)
	protected.Get("/milestones/:id/folders", deliverableHandler.ListFolders)
	protected.Post("/folders/:id/files", middleware.RequirePermission(rbac.PermManageFolders), deliverableHandler.RegisterFile)
	protected.Get("/folders/:id", deliverableHandler.ViewFolder)
	protected.Get("/files/:id/download", deliverableHandler.DownloadFile)

	// Admin
	admin := protected.Group("/admin", middleware.AdminMiddleware())
	admin.Post("/accounts/:id/adjust", adminHandler.AdjustBalance)
	admin.Get("/accounts/:id/reconcile", adminHandler.ReconcileAccount)
	admin.Get("/audit/:entityType/:id", adminHandler.GetAuditTrail)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
