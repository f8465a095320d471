package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/textshiftapp/textshift-backend/internal/dto"
	"github.com/textshiftapp/textshift-backend/internal/models"
	"gorm.io/gorm"
)

type AdminHandler struct {
	db *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// ListSubscriptions returns the subscription ledger, newest first.
func (h *AdminHandler) ListSubscriptions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := c.QueryInt("offset", 0)

	var total int64
	if err := h.db.Model(&models.Subscription{}).Count(&total).Error; err != nil {
		slog.Error("failed to count subscriptions", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch subscriptions",
		})
	}

	var subs []models.Subscription
	if err := h.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&subs).Error; err != nil {
		slog.Error("failed to list subscriptions", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch subscriptions",
		})
	}

	return c.JSON(fiber.Map{
		"subscriptions": subs,
		"total":         total,
	})
}

// ResetUsage zeroes usage_count on one subscription, for support cases
// like refunds or billing disputes.
func (h *AdminHandler) ResetUsage(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid subscription id",
		})
	}

	result := h.db.Model(&models.Subscription{}).
		Where("id = ?", id).
		Update("usage_count", 0)
	if result.Error != nil {
		slog.Error("failed to reset usage", "error", result.Error, "subscription_id", id.String())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to reset usage",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Subscription not found",
		})
	}

	slog.Info("usage counter reset", "subscription_id", id.String())
	return c.JSON(fiber.Map{"message": "Usage counter reset"})
}
