package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tempoedu/tempo-api/utils/response"
)

// TeacherLoginRequest represents a pool-credential login request
type TeacherLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TeacherLogin authenticates against the teacher account pool. On success the
// token is issued for the bound teacher identity, not the pool entry.
func (h *AuthHandler) TeacherLogin(c *fiber.Ctx) error {
	var req TeacherLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return response.BadRequest(c, "Username and password are required")
	}

	ip := c.IP()

	teacher, err := h.allocations.VerifyLogin(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if h.bruteForce != nil {
			h.bruteForce.RecordFailedAttempt(c, ip)
		}
		return response.FromError(c, err)
	}

	if h.bruteForce != nil {
		h.bruteForce.RecordSuccessfulAttempt(c, ip)
	}

	token, err := h.jwtManager.GenerateToken(teacher.ID, teacher.Email, teacher.Role)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate token")
	}

	return response.SuccessWithMessage(c, "Login successful", newTokenResponse(teacher, token))
}
