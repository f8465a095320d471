package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/textshiftapp/textshift-backend/internal/config"
	"github.com/textshiftapp/textshift-backend/internal/database"
	"github.com/textshiftapp/textshift-backend/internal/dto"
	"github.com/textshiftapp/textshift-backend/internal/gemini"
	"github.com/textshiftapp/textshift-backend/internal/handlers"
	"github.com/textshiftapp/textshift-backend/internal/logging"
	"github.com/textshiftapp/textshift-backend/internal/middleware"
	"github.com/textshiftapp/textshift-backend/internal/plans"
	"github.com/textshiftapp/textshift-backend/internal/polar"
	"github.com/textshiftapp/textshift-backend/internal/routes"
	"github.com/textshiftapp/textshift-backend/internal/services"
)

func main() {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Fan the default logger out to stdout and the Postgres sink
	pgLogHandler := logging.AttachSink(db)

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cleanupDone)

	// Plan catalog and billing client. The access token is required: a
	// deployment that cannot reconcile purchases should not come up.
	catalog := plans.NewCatalog(plans.ProductIDs{
		Starter:      cfg.PolarStarterProductID,
		Professional: cfg.PolarProfessionalProductID,
		Lifetime:     cfg.PolarLifetimeProductID,
	})

	polarClient, err := polar.NewClient(cfg.PolarAccessToken, cfg.PolarServer)
	if err != nil {
		slog.Error("polar client init failed", "error", err)
		os.Exit(1)
	}

	geminiClient := gemini.NewClient(cfg.GoogleAPIKey, cfg.GeminiModel, cfg.AITimeout)
	if cfg.GoogleAPIKey == "" {
		slog.Warn("GOOGLE_API_KEY not set; transformations will fail until configured")
	}

	// Services
	authService := services.NewAuthService(db, cfg)
	subscriptionService := services.NewSubscriptionService(db, catalog)
	usageService := services.NewUsageService(db)
	transformService := services.NewTransformService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(db)
	webhookHandler := handlers.NewWebhookHandler(subscriptionService, cfg.PolarWebhookSecret)
	checkoutHandler := handlers.NewCheckoutHandler(polarClient, catalog, cfg.AppBaseURL)
	transformHandler := handlers.NewTransformHandler(usageService, transformService, geminiClient)
	subscriptionHandler := handlers.NewSubscriptionHandler(usageService)
	adminHandler := handlers.NewAdminHandler(db)
	legalHandler := handlers.NewLegalHandler()

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, db,
		authHandler, healthHandler, webhookHandler, checkoutHandler,
		transformHandler, subscriptionHandler, adminHandler, legalHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Close database connections
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if code >= 500 {
		slog.Error("request failed", "status", code, "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(dto.ErrorResponse{
		Error:   true,
		Message: message,
	})
}
