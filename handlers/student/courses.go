package student

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/tempoedu/tempo-api/services"
	"github.com/tempoedu/tempo-api/utils/middleware"
	"github.com/tempoedu/tempo-api/utils/response"
)

// FeaturedLimit caps the featured-course carousel.
const FeaturedLimit = 6

// StudentHandler handles the public catalog and student purchase requests
type StudentHandler struct {
	db      *gorm.DB
	courses *services.CourseService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(db *gorm.DB, courses *services.CourseService) *StudentHandler {
	return &StudentHandler{
		db:      db,
		courses: courses,
	}
}

// Browse handles GET /api/student/browse. Only approved courses are returned
// and video URLs are never included.
func (h *StudentHandler) Browse(c *fiber.Ctx) error {
	filter := services.BrowseFilter{
		Subject: c.Query("subject"),
		Class:   c.Query("class"),
		Search:  c.Query("search"),
	}

	courses, err := h.courses.Browse(c.UserContext(), filter)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, fiber.Map{"courses": courses})
}

// Featured handles GET /api/student/featured: top courses by total sales.
func (h *StudentHandler) Featured(c *fiber.Ctx) error {
	courses, err := h.courses.Featured(c.UserContext(), FeaturedLimit)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, fiber.Map{"featured": courses})
}

// Subjects handles GET /api/student/subjects
func (h *StudentHandler) Subjects(c *fiber.Ctx) error {
	subjects, err := h.courses.Subjects(c.UserContext(), true)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, fiber.Map{"subjects": subjects})
}

// Classes handles GET /api/student/classes
func (h *StudentHandler) Classes(c *fiber.Ctx) error {
	classes, err := h.courses.Classes(c.UserContext(), true)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, fiber.Map{"classes": classes})
}

// CourseDetails handles GET /api/student/course/:id for the public detail page.
func (h *StudentHandler) CourseDetails(c *fiber.Ctx) error {
	courseID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	course, err := h.courses.GetApproved(c.UserContext(), courseID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, fiber.Map{"course": course})
}

// Purchase handles POST /api/student/course/:id/purchase
func (h *StudentHandler) Purchase(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	course, err := h.courses.Purchase(c.UserContext(), courseID, studentID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Course purchased successfully", fiber.Map{
		"course":      course,
		"total_price": course.FinalPrice,
	})
}

// PurchasedCourses handles GET /api/student/purchased-courses
func (h *StudentHandler) PurchasedCourses(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courses, err := h.courses.PurchasedCourses(c.UserContext(), studentID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, fiber.Map{"courses": courses})
}

// Access handles GET /api/student/course/:id/access. Enrolled students get
// the full record including the video URL.
func (h *StudentHandler) Access(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	course, err := h.courses.Access(c.UserContext(), courseID, studentID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, fiber.Map{"course": course})
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
