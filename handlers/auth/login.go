package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tempoedu/tempo-api/model"
	authutil "github.com/tempoedu/tempo-api/utils/auth"
	"github.com/tempoedu/tempo-api/utils/response"
)

// LoginRequest represents an email/password login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates students (and the seeded admin) by email and password.
// Unknown addresses and wrong passwords get the same answer so addresses
// cannot be enumerated.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	ip := c.IP()

	var user model.User
	if err := h.db.WithContext(c.UserContext()).Where("email = ?", req.Email).First(&user).Error; err != nil {
		// Record failed attempt even if user not found
		if h.bruteForce != nil {
			h.bruteForce.RecordFailedAttempt(c, ip)
		}
		return response.Unauthorized(c, "Invalid email or password")
	}

	if err := authutil.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		if h.bruteForce != nil {
			h.bruteForce.RecordFailedAttempt(c, ip)
		}
		return response.Unauthorized(c, "Invalid email or password")
	}

	if h.bruteForce != nil {
		h.bruteForce.RecordSuccessfulAttempt(c, ip)
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate token")
	}

	return response.SuccessWithMessage(c, "Login successful", newTokenResponse(&user, token))
}

// Logout acknowledges a logout. Tokens are stateless; the client discards its
// copy.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return response.SuccessWithMessage(c, "Logged out successfully", nil)
}
