package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/textshiftapp/textshift-backend/internal/dto"
	"github.com/textshiftapp/textshift-backend/internal/middleware"
	"github.com/textshiftapp/textshift-backend/internal/plans"
	"github.com/textshiftapp/textshift-backend/internal/polar"
)

type CheckoutHandler struct {
	polar      *polar.Client
	catalog    *plans.Catalog
	appBaseURL string
}

func NewCheckoutHandler(polarClient *polar.Client, catalog *plans.Catalog, appBaseURL string) *CheckoutHandler {
	return &CheckoutHandler{
		polar:      polarClient,
		catalog:    catalog,
		appBaseURL: appBaseURL,
	}
}

// CreateCheckout opens a Polar checkout session for a paid plan. The user
// id and plan name ride along as metadata so the webhook reconciler can
// attribute the purchase when the events come back.
func (h *CheckoutHandler) CreateCheckout(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	plan := h.catalog.ByKey(req.PlanName)
	if plan == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid plan selected",
		})
	}

	if plan.Price == 0 {
		return c.JSON(fiber.Map{"message": "Starter plan is free and already active"})
	}

	checkout, err := h.polar.CreateCheckout(c.Context(), &polar.CheckoutParams{
		Products:      []string{plan.ProductID},
		CustomerEmail: middleware.UserEmail(c),
		SuccessURL:    h.appBaseURL + "/payment/success?session_id={CHECKOUT_ID}",
		Metadata: map[string]string{
			"userId":   userID.String(),
			"planName": plan.Name,
		},
	})
	if err != nil {
		slog.Error("failed to create checkout session", "error", err, "plan", plan.Key, "user_id", userID.String())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create checkout session",
		})
	}

	return c.JSON(dto.CheckoutResponse{
		CheckoutURL: checkout.URL,
		CheckoutID:  checkout.ID,
	})
}

// ListPlans returns the public pricing catalog.
func (h *CheckoutHandler) ListPlans(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"plans": h.catalog.All()})
}
