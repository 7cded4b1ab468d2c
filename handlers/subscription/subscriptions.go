package subscription

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/tempoedu/tempo-api/model"
	"github.com/tempoedu/tempo-api/services"
	"github.com/tempoedu/tempo-api/utils/middleware"
	"github.com/tempoedu/tempo-api/utils/response"
	"github.com/tempoedu/tempo-api/utils/validation"
)

// SubscriptionHandler handles subscription ledger requests
type SubscriptionHandler struct {
	db            *gorm.DB
	subscriptions *services.SubscriptionService
	validator     *validation.Validator
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(db *gorm.DB, subscriptions *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		db:            db,
		subscriptions: subscriptions,
		validator:     validation.NewValidator(),
	}
}

// CreateSubscriptionRequest represents the request body for opening a plan
type CreateSubscriptionRequest struct {
	UserID uint    `json:"user_id" validate:"required,min=1"`
	Plan   string  `json:"plan" validate:"required"`
	Price  float64 `json:"price" validate:"gte=0"`
}

// UpdateStatusRequest sets a subscription lifecycle status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// RenewRequest optionally overrides plan and price on renewal
type RenewRequest struct {
	Plan  *string  `json:"plan"`
	Price *float64 `json:"price" validate:"omitempty,gte=0"`
}

// Create handles POST /api/subscriptions
func (h *SubscriptionHandler) Create(c *fiber.Ctx) error {
	var req CreateSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// Only the admin may open a subscription on someone else's behalf.
	if role, ok := middleware.GetUserRole(c); ok && role != model.RoleAdmin {
		if callerID, ok := middleware.GetUserID(c); !ok || callerID != req.UserID {
			return response.Forbidden(c, "Cannot create a subscription for another user")
		}
	}

	subscription, err := h.subscriptions.Create(c.UserContext(), req.UserID, req.Plan, req.Price)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Subscription created successfully", subscription)
}

// ForUser handles GET /api/subscriptions/user/:userId
func (h *SubscriptionHandler) ForUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("userId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}

	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	if claims.Role != model.RoleAdmin && claims.UserID != uint(userID) {
		return response.Forbidden(c, "Cannot view another user's subscription")
	}

	subscription, err := h.subscriptions.ForUser(c.UserContext(), uint(userID))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Subscription retrieved successfully", subscription)
}

// List handles GET /api/subscriptions (admin)
func (h *SubscriptionHandler) List(c *fiber.Ctx) error {
	subscriptions, err := h.subscriptions.All(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Subscriptions retrieved successfully", fiber.Map{
		"subscriptions": subscriptions,
		"count":         len(subscriptions),
	})
}

// UpdateStatus handles PATCH /api/subscriptions/:id/status (admin)
func (h *SubscriptionHandler) UpdateStatus(c *fiber.Ctx) error {
	subscriptionID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid subscription id")
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	subscription, err := h.subscriptions.UpdateStatus(c.UserContext(), subscriptionID, req.Status)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Subscription updated successfully", subscription)
}

// Cancel handles PATCH /api/subscriptions/:id/cancel. Cancelling twice is a
// no-op success.
func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	subscriptionID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid subscription id")
	}

	subscription, err := h.subscriptions.Cancel(c.UserContext(), subscriptionID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Subscription cancelled successfully", subscription)
}

// Renew handles POST /api/subscriptions/:id/renew
func (h *SubscriptionHandler) Renew(c *fiber.Ctx) error {
	subscriptionID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid subscription id")
	}

	var req RenewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	subscription, err := h.subscriptions.Renew(c.UserContext(), subscriptionID, req.Plan, req.Price)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Subscription renewed successfully", subscription)
}

// Stats handles GET /api/subscriptions/stats (admin)
func (h *SubscriptionHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.subscriptions.Stats(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Subscription stats retrieved successfully", stats)
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
