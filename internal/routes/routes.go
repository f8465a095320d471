package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/textshiftapp/textshift-backend/internal/config"
	"github.com/textshiftapp/textshift-backend/internal/handlers"
	"github.com/textshiftapp/textshift-backend/internal/middleware"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	webhookHandler *handlers.WebhookHandler,
	checkoutHandler *handlers.CheckoutHandler,
	transformHandler *handlers.TransformHandler,
	subscriptionHandler *handlers.SubscriptionHandler,
	adminHandler *handlers.AdminHandler,
	legalHandler *handlers.LegalHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Public
	api.Get("/health", healthHandler.Check)
	api.Get("/plans", checkoutHandler.ListPlans)
	api.Get("/legal/privacy", legalHandler.PrivacyPolicy)
	api.Get("/legal/terms", legalHandler.TermsOfService)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// Protected routes (JWT required) - apply middleware per route so
	// public routes are untouched
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Delete("/auth/account", middleware.JWTProtected(cfg), authHandler.DeleteAccount)

	api.Post("/transform", middleware.JWTProtected(cfg), transformHandler.Transform)
	api.Get("/transformations", middleware.JWTProtected(cfg), transformHandler.History)
	api.Get("/usage/trend", middleware.JWTProtected(cfg), transformHandler.UsageTrend)
	api.Get("/subscription", middleware.JWTProtected(cfg), subscriptionHandler.Current)
	api.Post("/checkout", middleware.JWTProtected(cfg), checkoutHandler.CreateCheckout)

	// Admin panel (protected + admin required)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg))
	admin.Get("/subscriptions", adminHandler.ListSubscriptions)
	admin.Post("/subscriptions/:id/reset-usage", adminHandler.ResetUsage)

	// Webhooks: signature-verified, no JWT
	webhooks := api.Group("/webhooks")
	webhooks.Post("/polar", webhookHandler.HandlePolar)
}
