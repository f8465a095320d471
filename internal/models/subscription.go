package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is the per-user quota ledger, reconciled from Polar webhook
// events. polar_subscription_id is the idempotency key for upserts.
// plan_name/usage_limit defaults cover rows created by out-of-order
// subscription.updated events that carry no plan metadata.
type Subscription struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID              *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	PolarSubscriptionID string     `gorm:"uniqueIndex;not null;size:255" json:"polar_subscription_id"`
	PolarCustomerID     string     `gorm:"size:255" json:"polar_customer_id"`
	PlanName            string     `gorm:"size:50;not null;default:'Starter'" json:"plan_name"`
	Status              string     `gorm:"size:50;not null;default:'incomplete'" json:"status"`
	UsageLimit          int        `gorm:"not null;default:100" json:"usage_limit"`
	UsageCount          int        `gorm:"not null;default:0" json:"usage_count"`
	CurrentPeriodStart  *time.Time `json:"current_period_start"`
	CurrentPeriodEnd    *time.Time `json:"current_period_end"`
	TrialEnd            *time.Time `json:"trial_end"`
	CancelAt            *time.Time `json:"cancel_at"`
	CanceledAt          *time.Time `json:"canceled_at"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Unlimited reports whether the subscription has no usage cap.
func (s *Subscription) Unlimited() bool {
	return s.UsageLimit == -1
}

// Remaining returns the transformations left in the current period,
// or -1 for unlimited plans.
func (s *Subscription) Remaining() int {
	if s.Unlimited() {
		return -1
	}
	remaining := s.UsageLimit - s.UsageCount
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}
