package dto

import (
	"encoding/json"
	"time"
)

// PolarWebhookEvent is the inbound event envelope. Text/Blocks only exist
// to detect a misconfigured Slack/Discord-style webhook body, which must be
// rejected before any processing.
type PolarWebhookEvent struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
	Text   string          `json:"text,omitempty"`
	Blocks json.RawMessage `json:"blocks,omitempty"`
}

// ChatShaped reports whether the body looks like a chat webhook payload
// instead of a billing event.
func (e *PolarWebhookEvent) ChatShaped() bool {
	return e.Text != "" || len(e.Blocks) > 0
}

// Valid reports whether the envelope carries both a type and a payload.
func (e *PolarWebhookEvent) Valid() bool {
	return e.Type != "" && len(e.Data) > 0
}

// PolarCheckout is the data payload of checkout.created/checkout.updated.
type PolarCheckout struct {
	ID             string            `json:"id"`
	Status         string            `json:"status"`
	CustomerID     string            `json:"customerId"`
	SubscriptionID string            `json:"subscriptionId"`
	Metadata       map[string]string `json:"metadata"`
}

// PolarSubscription is the data payload of subscription.* events.
type PolarSubscription struct {
	ID                 string            `json:"id"`
	Status             string            `json:"status"`
	CustomerID         string            `json:"customerId"`
	CurrentPeriodStart *time.Time        `json:"currentPeriodStart"`
	CurrentPeriodEnd   *time.Time        `json:"currentPeriodEnd"`
	TrialEnd           *time.Time        `json:"trialEnd"`
	CancelAt           *time.Time        `json:"cancelAt"`
	Metadata           map[string]string `json:"metadata"`
}

// PolarOrder is the data payload of order.created (one-time purchases).
type PolarOrder struct {
	ID         string            `json:"id"`
	CustomerID string            `json:"customerId"`
	Metadata   map[string]string `json:"metadata"`
}

type CheckoutRequest struct {
	PlanName string `json:"planName"`
}

type CheckoutResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
	CheckoutID  string `json:"checkoutId"`
}
