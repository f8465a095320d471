package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/textshiftapp/textshift-backend/internal/dto"
	"github.com/textshiftapp/textshift-backend/internal/gemini"
	"github.com/textshiftapp/textshift-backend/internal/middleware"
	"github.com/textshiftapp/textshift-backend/internal/services"
)

type TransformHandler struct {
	usageService     *services.UsageService
	transformService *services.TransformService
	gemini           *gemini.Client
}

func NewTransformHandler(usageService *services.UsageService, transformService *services.TransformService, geminiClient *gemini.Client) *TransformHandler {
	return &TransformHandler{
		usageService:     usageService,
		transformService: transformService,
		gemini:           geminiClient,
	}
}

// Transform is the metered operation: admission check, provider call,
// then usage increment and history record. The increment runs only after
// the provider succeeded; if it fails the user still gets their result
// and the drift is logged.
func (h *TransformHandler) Transform(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	sub, err := h.usageService.Check(userID)
	if err != nil {
		if errors.Is(err, services.ErrNoActiveSubscription) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "No active subscription found. Please subscribe to a plan.",
			})
		}
		var quotaErr *services.QuotaExceededError
		if errors.As(err, &quotaErr) {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.QuotaExceededResponse{
				Error:        fmt.Sprintf("Monthly limit of %d transformations reached. Upgrade your plan for more.", quotaErr.Limit),
				LimitReached: true,
				CurrentPlan:  quotaErr.Plan,
			})
		}
		slog.Error("usage check failed", "error", err, "user_id", userID.String())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	var req dto.TransformRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "No text provided",
		})
	}

	transformed, err := h.gemini.Transform(c.Context(), req.Text, req.Tone, req.Length)
	if err != nil {
		return h.providerError(c, err)
	}

	if !h.usageService.Increment(userID) {
		// Concurrent race or rotated record; the operation already
		// completed, so log the drift and move on.
		slog.Error("usage increment failed after successful transformation", "user_id", userID.String())
	}

	if _, err := h.transformService.Record(userID, req.Text, transformed, req.Tone, req.Length); err != nil {
		slog.Error("failed to record transformation", "error", err, "user_id", userID.String())
	}

	remaining := -1
	if !sub.Unlimited() {
		remaining = sub.UsageLimit - sub.UsageCount - 1
		if remaining < 0 {
			remaining = 0
		}
	}

	return c.JSON(dto.TransformResponse{
		Transformed: transformed,
		Usage: dto.UsageInfo{
			Count:     sub.UsageCount + 1,
			Limit:     sub.UsageLimit,
			Remaining: remaining,
		},
	})
}

func (h *TransformHandler) providerError(c *fiber.Ctx, err error) error {
	switch gemini.Classify(err) {
	case gemini.FailureRateLimited:
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.RateLimitedResponse{
			Error:      "Rate limit exceeded. Please wait a couple of minutes and try again.",
			RetryAfter: gemini.RetryAfterSeconds,
		})
	case gemini.FailureBadCredentials:
		if errors.Is(err, gemini.ErrNotConfigured) {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "API key not configured",
			})
		}
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "API key is invalid or not configured properly",
		})
	case gemini.FailureContentBlocked:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Content was blocked by safety filters. Please try different text.",
		})
	default:
		slog.Error("transform failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to transform text",
		})
	}
}

// History returns the user's past transformations, newest first.
func (h *TransformHandler) History(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	records, total, err := h.transformService.History(userID, limit, offset)
	if err != nil {
		slog.Error("failed to fetch history", "error", err, "user_id", userID.String())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch transformations",
		})
	}

	return c.JSON(fiber.Map{
		"transformations": records,
		"total":           total,
	})
}

// UsageTrend returns per-day transformation counts for the usage chart.
func (h *TransformHandler) UsageTrend(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	days := c.QueryInt("days", 7)
	trend, err := h.transformService.UsageTrend(userID, days)
	if err != nil {
		slog.Error("failed to fetch usage trend", "error", err, "user_id", userID.String())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch usage trend",
		})
	}

	return c.JSON(fiber.Map{"trend": trend})
}
