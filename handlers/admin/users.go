package admin

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tempoedu/tempo-api/model"
	"github.com/tempoedu/tempo-api/utils/response"
)

// ListTeachers handles GET /api/admin/teachers
func (h *AdminHandler) ListTeachers(c *fiber.Ctx) error {
	return h.listUsersByRole(c, model.RoleTeacher, "teachers")
}

// ListStudents handles GET /api/admin/students
func (h *AdminHandler) ListStudents(c *fiber.Ctx) error {
	return h.listUsersByRole(c, model.RoleStudent, "students")
}

func (h *AdminHandler) listUsersByRole(c *fiber.Ctx, role, key string) error {
	var users []model.User
	if err := h.db.WithContext(c.UserContext()).
		Where("role = ?", role).
		Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.Success(c, fiber.Map{key: users})
}
