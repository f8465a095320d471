package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/textshiftapp/textshift-backend/internal/dto"
	"github.com/textshiftapp/textshift-backend/internal/models"
	"github.com/textshiftapp/textshift-backend/internal/plans"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionService reconciles Polar webhook events into the
// subscription ledger. Polar delivers at least once and not necessarily in
// order, so every mutation is an idempotent upsert keyed on
// polar_subscription_id: replaying an event converges to the same state,
// and an update arriving before its create still produces a usable row.
type SubscriptionService struct {
	db      *gorm.DB
	catalog *plans.Catalog
}

func NewSubscriptionService(db *gorm.DB, catalog *plans.Catalog) *SubscriptionService {
	return &SubscriptionService{db: db, catalog: catalog}
}

func (s *SubscriptionService) HandleWebhookEvent(event *dto.PolarWebhookEvent) error {
	switch event.Type {
	case "checkout.created", "checkout.updated":
		return s.handleCheckout(event.Data)
	case "subscription.created":
		return s.handleSubscriptionCreated(event.Data)
	case "subscription.updated":
		return s.handleSubscriptionUpdated(event.Data)
	case "subscription.canceled", "subscription.revoked":
		return s.handleSubscriptionCanceled(event.Data)
	case "order.created":
		return s.handleOrderCreated(event.Data)
	default:
		slog.Info("unhandled webhook event", "type", event.Type)
		return nil
	}
}

// handleCheckout acts only on confirmed checkouts. Missing metadata is a
// sender-side misconfiguration: the event is logged and dropped rather
// than bounced back for a pointless retry.
func (s *SubscriptionService) handleCheckout(data json.RawMessage) error {
	var checkout dto.PolarCheckout
	if err := json.Unmarshal(data, &checkout); err != nil {
		return fmt.Errorf("failed to parse checkout payload: %w", err)
	}

	if checkout.Status != "confirmed" {
		return nil
	}

	userID, planName, ok := s.requireMetadata(checkout.Metadata, "checkout", checkout.ID)
	if !ok {
		return nil
	}

	now := time.Now().UTC()
	periodEnd := now.Add(30 * 24 * time.Hour)

	status := "active"
	var trialEnd *time.Time
	if planName == "Professional" {
		status = "trialing"
		t := now.Add(14 * 24 * time.Hour)
		trialEnd = &t
	}

	// Checkout events may not carry a distinct subscription id yet; the
	// checkout's own id is a stable fallback conflict key.
	subscriptionID := checkout.SubscriptionID
	if subscriptionID == "" {
		subscriptionID = checkout.ID
	}

	sub := models.Subscription{
		UserID:              &userID,
		PolarSubscriptionID: subscriptionID,
		PolarCustomerID:     checkout.CustomerID,
		PlanName:            planName,
		Status:              status,
		UsageLimit:          s.catalog.LimitFor(planName),
		UsageCount:          0,
		CurrentPeriodStart:  &now,
		CurrentPeriodEnd:    &periodEnd,
		TrialEnd:            trialEnd,
	}

	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "polar_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "polar_customer_id", "plan_name", "status",
			"usage_limit", "usage_count", "current_period_start",
			"current_period_end", "trial_end", "updated_at",
		}),
	}).Create(&sub).Error
}

// handleSubscriptionCreated mirrors handleCheckout but takes periods and
// trial end from the payload instead of computing them.
func (s *SubscriptionService) handleSubscriptionCreated(data json.RawMessage) error {
	var subscription dto.PolarSubscription
	if err := json.Unmarshal(data, &subscription); err != nil {
		return fmt.Errorf("failed to parse subscription payload: %w", err)
	}

	userID, planName, ok := s.requireMetadata(subscription.Metadata, "subscription", subscription.ID)
	if !ok {
		return nil
	}

	status := "active"
	if subscription.Status == "trialing" {
		status = "trialing"
	}

	sub := models.Subscription{
		UserID:              &userID,
		PolarSubscriptionID: subscription.ID,
		PolarCustomerID:     subscription.CustomerID,
		PlanName:            planName,
		Status:              status,
		UsageLimit:          s.catalog.LimitFor(planName),
		UsageCount:          0,
		CurrentPeriodStart:  subscription.CurrentPeriodStart,
		CurrentPeriodEnd:    subscription.CurrentPeriodEnd,
		TrialEnd:            subscription.TrialEnd,
	}

	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "polar_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "polar_customer_id", "plan_name", "status",
			"usage_limit", "usage_count", "current_period_start",
			"current_period_end", "trial_end", "updated_at",
		}),
	}).Create(&sub).Error
}

// handleSubscriptionUpdated is a partial update: status, periods, trial
// end and cancel_at only. plan_name, usage_limit and usage_count must
// survive untouched, so they are excluded from the conflict assignments.
// If no row exists yet the upsert creates one and those columns take
// their Starter defaults.
func (s *SubscriptionService) handleSubscriptionUpdated(data json.RawMessage) error {
	var subscription dto.PolarSubscription
	if err := json.Unmarshal(data, &subscription); err != nil {
		return fmt.Errorf("failed to parse subscription payload: %w", err)
	}

	sub := models.Subscription{
		PolarSubscriptionID: subscription.ID,
		Status:              subscription.Status,
		CurrentPeriodStart:  subscription.CurrentPeriodStart,
		CurrentPeriodEnd:    subscription.CurrentPeriodEnd,
		TrialEnd:            subscription.TrialEnd,
		CancelAt:            subscription.CancelAt,
	}

	// An empty status must not clobber an existing row with the column
	// default, so it only joins the assignment set when present.
	assignments := []string{
		"current_period_start", "current_period_end",
		"trial_end", "cancel_at", "updated_at",
	}
	if subscription.Status != "" {
		assignments = append([]string{"status"}, assignments...)
	}

	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "polar_subscription_id"}},
		DoUpdates: clause.AssignmentColumns(assignments),
	}).Create(&sub).Error
}

func (s *SubscriptionService) handleSubscriptionCanceled(data json.RawMessage) error {
	var subscription dto.PolarSubscription
	if err := json.Unmarshal(data, &subscription); err != nil {
		return fmt.Errorf("failed to parse subscription payload: %w", err)
	}

	now := time.Now().UTC()
	sub := models.Subscription{
		PolarSubscriptionID: subscription.ID,
		Status:              "canceled",
		CanceledAt:          &now,
	}

	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "polar_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "canceled_at", "updated_at",
		}),
	}).Create(&sub).Error
}

// handleOrderCreated covers one-time purchases. Only the Lifetime plan is
// sold as an order; orders for anything else are ignored.
func (s *SubscriptionService) handleOrderCreated(data json.RawMessage) error {
	var order dto.PolarOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return fmt.Errorf("failed to parse order payload: %w", err)
	}

	userID, planName, ok := s.requireMetadata(order.Metadata, "order", order.ID)
	if !ok {
		return nil
	}

	if planName != "Lifetime" {
		slog.Info("ignoring order for non-lifetime plan", "order_id", order.ID, "plan", planName)
		return nil
	}

	now := time.Now().UTC()
	sub := models.Subscription{
		UserID:              &userID,
		PolarSubscriptionID: order.ID,
		PolarCustomerID:     order.CustomerID,
		PlanName:            "Lifetime",
		Status:              "active",
		UsageLimit:          plans.UnlimitedUsage,
		UsageCount:          0,
		CurrentPeriodStart:  &now,
		CurrentPeriodEnd:    nil, // no expiry
	}

	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "polar_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "polar_customer_id", "plan_name", "status",
			"usage_limit", "usage_count", "current_period_start",
			"current_period_end", "updated_at",
		}),
	}).Create(&sub).Error
}

func (s *SubscriptionService) requireMetadata(metadata map[string]string, kind, id string) (uuid.UUID, string, bool) {
	rawUserID := metadata["userId"]
	planName := metadata["planName"]
	if rawUserID == "" || planName == "" {
		slog.Error("webhook event missing metadata", "kind", kind, "id", id)
		return uuid.Nil, "", false
	}

	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		slog.Error("webhook event carries invalid userId", "kind", kind, "id", id, "error", err)
		return uuid.Nil, "", false
	}
	return userID, planName, true
}
