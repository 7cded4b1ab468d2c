package auth

import (
	"time"

	"gorm.io/gorm"

	"github.com/tempoedu/tempo-api/model"
	"github.com/tempoedu/tempo-api/services"
	authutil "github.com/tempoedu/tempo-api/utils/auth"
	"github.com/tempoedu/tempo-api/utils/middleware"
	"github.com/tempoedu/tempo-api/utils/validation"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db          *gorm.DB
	jwtManager  *authutil.JWTManager
	allocations *services.AllocationService
	bruteForce  *middleware.BruteForceProtection
	validator   *validation.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *authutil.JWTManager, allocations *services.AllocationService, bruteForce *middleware.BruteForceProtection) *AuthHandler {
	return &AuthHandler{
		db:          db,
		jwtManager:  jwtManager,
		allocations: allocations,
		bruteForce:  bruteForce,
		validator:   validation.NewValidator(),
	}
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse carries a signed assertion plus the authenticated user.
type TokenResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

func newTokenResponse(user *model.User, token string) TokenResponse {
	return TokenResponse{
		User: UserResponse{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
		},
		Token: token,
	}
}
