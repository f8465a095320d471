package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/textshiftapp/textshift-backend/internal/dto"
	"github.com/textshiftapp/textshift-backend/internal/services"
)

type WebhookHandler struct {
	subscriptionService *services.SubscriptionService
	webhookSecret       string
}

func NewWebhookHandler(subscriptionService *services.SubscriptionService, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		subscriptionService: subscriptionService,
		webhookSecret:       webhookSecret,
	}
}

// HandlePolar ingests Polar billing events. Polar delivers at least once,
// so anything except a 2xx gets redelivered; a malformed body is the one
// case answered 400 since retrying it can never succeed.
func (h *WebhookHandler) HandlePolar(c *fiber.Ctx) error {
	body := c.Body()

	if h.webhookSecret == "" {
		slog.Warn("POLAR_WEBHOOK_SECRET not configured - skipping signature verification (development only)")
	} else if !h.verifySignature(c, body) {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook signature",
		})
	}

	var event dto.PolarWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	// A Slack/Discord-style webhook pointed at this endpoint is a
	// dashboard misconfiguration, not a billing event.
	if event.ChatShaped() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook format. Use a standard webhook, not Slack/Discord.",
		})
	}

	if !event.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload format",
		})
	}

	if err := h.subscriptionService.HandleWebhookEvent(&event); err != nil {
		slog.Error("webhook processing failed", "event_type", event.Type, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process webhook event",
		})
	}

	slog.Info("webhook processed", "event_type", event.Type)
	return c.JSON(fiber.Map{"received": true})
}

// verifySignature checks the standard-webhooks HMAC: base64(HMAC-SHA256
// over "id.timestamp.body") with the whsec_ secret, carried as
// space-separated "v1,<sig>" entries in the webhook-signature header.
func (h *WebhookHandler) verifySignature(c *fiber.Ctx, body []byte) bool {
	msgID := c.Get("webhook-id")
	timestamp := c.Get("webhook-timestamp")
	signature := c.Get("webhook-signature")
	if msgID == "" || timestamp == "" || signature == "" {
		return false
	}

	secret := strings.TrimPrefix(h.webhookSecret, "whsec_")
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		key = []byte(secret)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msgID + "." + timestamp + "."))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, part := range strings.Fields(signature) {
		candidate := strings.TrimPrefix(part, "v1,")
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(expected)) == 1 {
			return true
		}
	}
	return false
}
