package admin

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/tempoedu/tempo-api/services"
	"github.com/tempoedu/tempo-api/utils/response"
	"github.com/tempoedu/tempo-api/utils/validation"
)

// AdminHandler handles course moderation and pool management requests
type AdminHandler struct {
	db          *gorm.DB
	courses     *services.CourseService
	allocations *services.AllocationService
	validator   *validation.Validator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, courses *services.CourseService, allocations *services.AllocationService) *AdminHandler {
	return &AdminHandler{
		db:          db,
		courses:     courses,
		allocations: allocations,
		validator:   validation.NewValidator(),
	}
}

// ListCourses handles GET /api/admin/courses: every course in any state.
func (h *AdminHandler) ListCourses(c *fiber.Ctx) error {
	courses, err := h.courses.AllCourses(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, fiber.Map{"courses": courses})
}

// ApproveCourse handles PUT /api/admin/courses/:id/approve
func (h *AdminHandler) ApproveCourse(c *fiber.Ctx) error {
	courseID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	course, err := h.courses.Approve(c.UserContext(), courseID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Course approved", fiber.Map{"course": course})
}

// RejectCourse handles DELETE /api/admin/courses/:id/reject. Rejection is
// deletion; there is no persisted rejected state.
func (h *AdminHandler) RejectCourse(c *fiber.Ctx) error {
	courseID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	if err := h.courses.Reject(c.UserContext(), courseID); err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Course rejected and deleted", nil)
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
