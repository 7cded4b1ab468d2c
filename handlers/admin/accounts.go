package admin

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tempoedu/tempo-api/utils/response"
)

// CreateAccountRequest represents the request body for provisioning a pool
// account
type CreateAccountRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"required,min=8"`
}

// AllocateAccountRequest binds a pool account to a teacher identity
type AllocateAccountRequest struct {
	AccountID uint `json:"account_id" validate:"required,min=1"`
	TeacherID uint `json:"teacher_id" validate:"required,min=1"`
}

// UnallocatedAccounts handles GET /api/admin/teacher-accounts/unallocated
func (h *AdminHandler) UnallocatedAccounts(c *fiber.Ctx) error {
	accounts, err := h.allocations.Unallocated(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, fiber.Map{"accounts": accounts})
}

// CreateAccount handles POST /api/admin/teacher-accounts/create
func (h *AdminHandler) CreateAccount(c *fiber.Ctx) error {
	var req CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	account, err := h.allocations.CreateAccount(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Teacher account created", fiber.Map{"account": account})
}

// AllocateAccount handles POST /api/admin/teacher-accounts/allocate
func (h *AdminHandler) AllocateAccount(c *fiber.Ctx) error {
	var req AllocateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if err := h.allocations.Allocate(c.UserContext(), req.AccountID, req.TeacherID); err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Teacher account allocated successfully", nil)
}
