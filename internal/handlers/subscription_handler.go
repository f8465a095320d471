package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/textshiftapp/textshift-backend/internal/dto"
	"github.com/textshiftapp/textshift-backend/internal/middleware"
	"github.com/textshiftapp/textshift-backend/internal/services"
)

type SubscriptionHandler struct {
	usageService *services.UsageService
}

func NewSubscriptionHandler(usageService *services.UsageService) *SubscriptionHandler {
	return &SubscriptionHandler{usageService: usageService}
}

// Current returns the user's active subscription and usage. A user without
// one gets a null subscription, not an error; the frontend renders the
// pricing prompt off that.
func (h *SubscriptionHandler) Current(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	sub, err := h.usageService.ActiveSubscription(userID)
	if err != nil {
		if errors.Is(err, services.ErrNoActiveSubscription) {
			return c.JSON(fiber.Map{"subscription": nil})
		}
		slog.Error("failed to fetch subscription", "error", err, "user_id", userID.String())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch subscription",
		})
	}

	return c.JSON(fiber.Map{
		"subscription": sub,
		"usage": dto.UsageInfo{
			Count:     sub.UsageCount,
			Limit:     sub.UsageLimit,
			Remaining: sub.Remaining(),
		},
	})
}
