package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/textshiftapp/textshift-backend/internal/models"
	"gorm.io/gorm"
)

var ErrNoActiveSubscription = errors.New("no active subscription found")

// QuotaExceededError carries the limit and plan so the caller can render
// an upgrade prompt. It is not retriable without a plan change.
type QuotaExceededError struct {
	Limit int
	Plan  string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("monthly limit of %d transformations reached", e.Limit)
}

// UsageService is the admission gate for metered operations. Check and
// Increment are two separate round trips, not one atomic update: two
// concurrent requests can both pass Check before either increments, so
// usage_count may overshoot the limit by at most the number of in-flight
// requests minus one. That drift is accepted and monitorable.
type UsageService struct {
	db *gorm.DB
}

func NewUsageService(db *gorm.DB) *UsageService {
	return &UsageService{db: db}
}

// ActiveSubscription returns the most recently created active or trialing
// subscription for the user.
func (s *UsageService) ActiveSubscription(userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.
		Where("user_id = ? AND status IN ?", userID, []string{"active", "trialing"}).
		Order("created_at DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActiveSubscription
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscription: %w", err)
	}
	return &sub, nil
}

// Check decides whether the user may run one more metered operation.
func (s *UsageService) Check(userID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.ActiveSubscription(userID)
	if err != nil {
		return nil, err
	}

	if sub.Unlimited() {
		return sub, nil
	}

	if sub.UsageCount >= sub.UsageLimit {
		return sub, &QuotaExceededError{Limit: sub.UsageLimit, Plan: sub.PlanName}
	}

	return sub, nil
}

// Increment bumps usage_count by one after a successful metered operation.
// It re-reads the subscription and increments by row id so a freshly
// rotated record is never raced. Returns false on any failure; callers
// log and move on, the completed operation is never rolled back.
func (s *UsageService) Increment(userID uuid.UUID) bool {
	sub, err := s.ActiveSubscription(userID)
	if err != nil {
		slog.Error("usage increment: subscription lookup failed", "error", err, "user_id", userID.String())
		return false
	}

	if sub.Unlimited() {
		return true
	}

	if sub.UsageCount >= sub.UsageLimit {
		return false
	}

	result := s.db.Model(&models.Subscription{}).
		Where("id = ?", sub.ID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	if result.Error != nil {
		slog.Error("usage increment failed", "error", result.Error, "subscription_id", sub.ID.String())
		return false
	}

	return result.RowsAffected > 0
}
