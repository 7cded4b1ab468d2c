package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tempoedu/tempo-api/model"
	authutil "github.com/tempoedu/tempo-api/utils/auth"
	"github.com/tempoedu/tempo-api/utils/response"
)

// AdminLoginRequest represents an admin login request. The username is the
// admin's contact address.
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AdminLogin authenticates the administrator. The admin identity is seeded at
// startup and verified through the same hashed-credential path as everyone
// else; there is no separate env-compared shortcut.
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return response.BadRequest(c, "Username and password are required")
	}

	ip := c.IP()

	var user model.User
	if err := h.db.WithContext(c.UserContext()).
		Where("email = ?", req.Username).
		First(&user).Error; err != nil {
		if h.bruteForce != nil {
			h.bruteForce.RecordFailedAttempt(c, ip)
		}
		return response.Unauthorized(c, "Invalid admin credentials")
	}

	if !user.IsAdmin() {
		if h.bruteForce != nil {
			h.bruteForce.RecordFailedAttempt(c, ip)
		}
		return response.Unauthorized(c, "Invalid admin credentials")
	}

	if err := authutil.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		if h.bruteForce != nil {
			h.bruteForce.RecordFailedAttempt(c, ip)
		}
		return response.Unauthorized(c, "Invalid admin credentials")
	}

	if h.bruteForce != nil {
		h.bruteForce.RecordSuccessfulAttempt(c, ip)
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate token")
	}

	return response.SuccessWithMessage(c, "Admin login successful", newTokenResponse(&user, token))
}
