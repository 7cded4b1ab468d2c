package teacher

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/tempoedu/tempo-api/services"
	"github.com/tempoedu/tempo-api/utils/middleware"
	"github.com/tempoedu/tempo-api/utils/response"
	"github.com/tempoedu/tempo-api/utils/validation"
)

// TeacherHandler handles course management requests from teachers
type TeacherHandler struct {
	db        *gorm.DB
	courses   *services.CourseService
	validator *validation.Validator
}

// NewTeacherHandler creates a new teacher handler
func NewTeacherHandler(db *gorm.DB, courses *services.CourseService) *TeacherHandler {
	return &TeacherHandler{
		db:        db,
		courses:   courses,
		validator: validation.NewValidator(),
	}
}

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=255"`
	Description string  `json:"description" validate:"required"`
	Subject     string  `json:"subject" validate:"required,max=100"`
	Class       string  `json:"class" validate:"required,max=100"`
	Price       float64 `json:"price" validate:"gte=0"`
}

// UpdateCourseRequest represents a partial course update; absent fields are
// left untouched
type UpdateCourseRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string  `json:"description" validate:"omitempty"`
	Subject     *string  `json:"subject" validate:"omitempty,max=100"`
	Class       *string  `json:"class" validate:"omitempty,max=100"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
}

// UploadVideoRequest carries the external media URL for a course
type UploadVideoRequest struct {
	VideoURL string `json:"video_url" validate:"required,url"`
}

// CreateCourse handles POST /api/teacher/courses. New courses start
// unapproved and invisible to students until an admin approves them.
func (h *TeacherHandler) CreateCourse(c *fiber.Ctx) error {
	teacherID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	course, err := h.courses.Create(c.UserContext(), teacherID, services.CreateCourseInput{
		Title:       validation.SanitizeString(req.Title),
		Description: validation.SanitizeString(req.Description),
		Subject:     validation.SanitizeString(req.Subject),
		Class:       validation.SanitizeString(req.Class),
		Price:       req.Price,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Course created successfully", fiber.Map{"course": course})
}

// ListCourses handles GET /api/teacher/courses: the teacher's own courses in
// any state.
func (h *TeacherHandler) ListCourses(c *fiber.Ctx) error {
	teacherID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courses, err := h.courses.TeacherCourses(c.UserContext(), teacherID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, fiber.Map{"courses": courses})
}

// UpdateCourse handles PUT /api/teacher/courses/:id
func (h *TeacherHandler) UpdateCourse(c *fiber.Ctx) error {
	teacherID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	course, err := h.courses.Update(c.UserContext(), courseID, teacherID, services.UpdateCourseInput{
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		Class:       req.Class,
		Price:       req.Price,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Course updated successfully", fiber.Map{"course": course})
}

// UploadVideo handles POST /api/teacher/courses/:id/video
func (h *TeacherHandler) UploadVideo(c *fiber.Ctx) error {
	teacherID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	var req UploadVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	course, err := h.courses.AttachVideo(c.UserContext(), courseID, teacherID, req.VideoURL)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Video uploaded successfully", fiber.Map{"course": course})
}

// SalesOverview handles GET /api/teacher/sales/overview
func (h *TeacherHandler) SalesOverview(c *fiber.Ctx) error {
	teacherID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	overview, err := h.courses.Sales(c.UserContext(), teacherID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, overview)
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
