package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/pablodma/homeAssistant-backend/internal/handler"
	"github.com/pablodma/homeAssistant-backend/internal/middleware"
	"github.com/pablodma/homeAssistant-backend/internal/migration"
	"github.com/pablodma/homeAssistant-backend/internal/store"
	"github.com/pablodma/homeAssistant-backend/pkg/config"
	"github.com/pablodma/homeAssistant-backend/pkg/database"
	"github.com/pablodma/homeAssistant-backend/pkg/jwtutil"
	"github.com/pablodma/homeAssistant-backend/pkg/logger"
	"github.com/pablodma/homeAssistant-backend/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("hogar-core")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting data core service...", cfg.LogConfig()...)

	// Initialize database
	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Apply pending schema migrations before serving traffic
	if err := migration.Run(db); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}
	log.Info("Schema up to date")

	// Build the store with configured policies
	st, err := store.New(db,
		store.WithRegistrationTTL(cfg.Registration.TTL),
		store.WithRetryPolicy(cfg.Retry.MaxRetries, cfg.Retry.BaseBackoff),
	)
	if err != nil {
		log.Fatal("Failed to build store", zap.Error(err))
	}

	// Initialize JWT utility
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})
	log.Info("JWT utility initialized")

	h := handler.New(st)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.CorrelationIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", h.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	// Onboarding routes - callers have no tenant yet
	onboarding := e.Group("/api/onboarding")
	onboarding.POST("/registrations", h.StartRegistration)
	onboarding.GET("/registrations", h.GetRegistrationByPhone)
	onboarding.PUT("/registrations/:id/checkout", h.AttachCheckout)
	onboarding.GET("/plans/:plan", h.GetPlanPricing)

	// Billing provider webhook - authenticated by provider signature at
	// the edge, not by user JWT
	e.POST("/api/webhooks/payment", h.PaymentWebhook)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware(jwt))

	finance := api.Group("/finance")
	finance.POST("/categories", h.CreateBudgetCategory)
	finance.GET("/categories", h.ListBudgetCategories)
	finance.POST("/expenses", h.RegisterExpense)
	finance.GET("/expenses", h.ListExpenses)

	calendar := api.Group("/calendar")
	calendar.POST("/events", h.CreateEvent)
	calendar.GET("/events", h.ListEvents)
	calendar.POST("/reminders", h.CreateReminder)
	calendar.PUT("/reminders/:id/complete", h.CompleteReminder)
	calendar.GET("/reminders", h.ListReminders)

	shopping := api.Group("/shopping")
	shopping.POST("/items", h.AddShoppingItem)
	shopping.PUT("/items/:id/purchase", h.MarkItemPurchased)
	shopping.GET("/items", h.ListShoppingItems)

	vehicles := api.Group("/vehicles")
	vehicles.POST("", h.AddVehicle)
	vehicles.POST("/:id/services", h.AddVehicleService)
	vehicles.GET("", h.ListVehicles)

	tenant := api.Group("/tenant")
	tenant.GET("", h.GetTenant)
	tenant.PUT("/settings", h.UpdateTenantSettings)
	tenant.GET("/members", h.ListTenantMembers)
	tenant.PUT("/members/:id/role", h.SetMemberRole)

	coupons := api.Group("/coupons")
	coupons.POST("/validate", h.ValidateCoupon)
	coupons.POST("/redeem", h.RedeemCoupon)

	admin := api.Group("/admin")
	admin.Use(middleware.AdminKeyMiddleware(cfg.Admin.KeyHash))
	admin.POST("/quality/issues", h.ReportQualityIssue)
	admin.GET("/quality/issues", h.ListOpenQualityIssues)
	admin.PUT("/quality/issues/:id/resolve", h.ResolveQualityIssue)
	admin.POST("/quality/reviews", h.StartReviewCycle)
	admin.PUT("/quality/reviews/:id/complete", h.CompleteReviewCycle)
	admin.POST("/quality/revisions", h.CreatePromptRevision)
	admin.GET("/quality/revisions", h.ListPromptRevisions)
	admin.PUT("/quality/revisions/:id/rollback", h.RollbackPromptRevision)
	admin.POST("/quality/prompts", h.PublishAgentPrompt)
	admin.GET("/quality/prompts/:agent", h.GetActivePrompt)
	admin.GET("/audit/:correlation_id", h.ListAuditByCorrelation)
	admin.GET("/operations/dead", h.ListDeadOperations)
	admin.PUT("/operations/:id/requeue", h.RequeueDeadOperation)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
