package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tempoedu/tempo-api/model"
	"github.com/tempoedu/tempo-api/utils/apperr"
)

// CourseService owns the course workflow: creation, pricing, approval,
// enrollment and sales bookkeeping.
type CourseService struct {
	db      *gorm.DB
	pricing PricingPolicy
}

// NewCourseService creates a new course service with the given pricing policy.
func NewCourseService(db *gorm.DB, pricing PricingPolicy) *CourseService {
	if pricing == nil {
		pricing = DefaultPricing()
	}
	return &CourseService{
		db:      db,
		pricing: pricing,
	}
}

// CreateCourseInput holds the fields a teacher supplies for a new course.
type CreateCourseInput struct {
	Title       string
	Description string
	Subject     string
	Class       string
	Price       float64
}

// UpdateCourseInput carries a partial update; nil fields are left untouched.
type UpdateCourseInput struct {
	Title       *string
	Description *string
	Subject     *string
	Class       *string
	Price       *float64
}

// BrowseFilter narrows the public catalog listing.
type BrowseFilter struct {
	Subject string
	Class   string
	Search  string
}

// Create validates the input and persists a new unapproved course.
func (s *CourseService) Create(ctx context.Context, teacherID uint, in CreateCourseInput) (*model.Course, error) {
	if in.Title == "" || in.Description == "" || in.Subject == "" || in.Class == "" {
		return nil, fmt.Errorf("%w: all fields are required", apperr.ErrValidation)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", apperr.ErrValidation)
	}

	course := model.Course{
		TeacherID:   teacherID,
		Title:       in.Title,
		Description: in.Description,
		Subject:     in.Subject,
		Class:       in.Class,
		Price:       in.Price,
		FinalPrice:  s.pricing(in.Price),
		Approved:    false,
	}

	if err := s.db.WithContext(ctx).Create(&course).Error; err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}

	return &course, nil
}

// Update applies a partial update to a course owned by teacherID. When the
// price changes, the final price is recomputed and written in the same UPDATE
// so the two are never observed apart.
func (s *CourseService) Update(ctx context.Context, courseID, teacherID uint, in UpdateCourseInput) (*model.Course, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: course not found", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("load course: %w", err)
	}

	if course.TeacherID != teacherID {
		return nil, fmt.Errorf("%w: you can only update your own courses", apperr.ErrForbidden)
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Subject != nil {
		updates["subject"] = *in.Subject
	}
	if in.Class != nil {
		updates["class"] = *in.Class
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, fmt.Errorf("%w: price cannot be negative", apperr.ErrValidation)
		}
		updates["price"] = *in.Price
		updates["final_price"] = s.pricing(*in.Price)
	}

	if len(updates) == 0 {
		return &course, nil
	}

	if err := s.db.WithContext(ctx).Model(&course).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}

	return &course, nil
}

// AttachVideo sets the course media URL. Allowed in any approval state; the
// URL only becomes reachable to students through Access once they enroll.
func (s *CourseService) AttachVideo(ctx context.Context, courseID, teacherID uint, url string) (*model.Course, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: video URL is required", apperr.ErrValidation)
	}

	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: course not found", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("load course: %w", err)
	}

	if course.TeacherID != teacherID {
		return nil, fmt.Errorf("%w: you can only update your own courses", apperr.ErrForbidden)
	}

	if err := s.db.WithContext(ctx).Model(&course).Update("video_url", url).Error; err != nil {
		return nil, fmt.Errorf("attach video: %w", err)
	}

	course.VideoURL = &url
	return &course, nil
}

// Approve transitions a course to the published state. Approving an already
// approved course is harmless.
func (s *CourseService) Approve(ctx context.Context, courseID uint) (*model.Course, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: course not found", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("load course: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&course).Update("approved", true).Error; err != nil {
		return nil, fmt.Errorf("approve course: %w", err)
	}

	course.Approved = true
	return &course, nil
}

// Reject permanently deletes a course in any state. Enrollment ledger rows are
// kept as the historical record of completed purchases.
func (s *CourseService) Reject(ctx context.Context, courseID uint) error {
	res := s.db.WithContext(ctx).Delete(&model.Course{}, courseID)
	if res.Error != nil {
		return fmt.Errorf("delete course: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: course not found", apperr.ErrNotFound)
	}
	return nil
}

// Browse returns approved courses matching the filter. Search matches title or
// description case-insensitively. Video URLs are stripped from the result;
// students reach them through Access after purchasing.
func (s *CourseService) Browse(ctx context.Context, filter BrowseFilter) ([]model.Course, error) {
	query := s.db.WithContext(ctx).Where("approved = ?", true)

	if filter.Subject != "" {
		query = query.Where("subject = ?", filter.Subject)
	}
	if filter.Class != "" {
		query = query.Where("class = ?", filter.Class)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var courses []model.Course
	if err := query.Preload("Teacher").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("browse courses: %w", err)
	}

	stripVideoURLs(courses)
	return courses, nil
}

// Featured returns the top approved courses by total sales.
func (s *CourseService) Featured(ctx context.Context, limit int) ([]model.Course, error) {
	if limit <= 0 {
		limit = 6
	}

	var courses []model.Course
	if err := s.db.WithContext(ctx).
		Where("approved = ?", true).
		Order("total_sales DESC").
		Limit(limit).
		Preload("Teacher").
		Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("featured courses: %w", err)
	}

	stripVideoURLs(courses)
	return courses, nil
}

// Subjects lists the distinct subjects, optionally restricted to approved courses.
func (s *CourseService) Subjects(ctx context.Context, approvedOnly bool) ([]string, error) {
	return s.distinct(ctx, "subject", approvedOnly)
}

// Classes lists the distinct class tags, optionally restricted to approved courses.
func (s *CourseService) Classes(ctx context.Context, approvedOnly bool) ([]string, error) {
	return s.distinct(ctx, "class", approvedOnly)
}

func (s *CourseService) distinct(ctx context.Context, column string, approvedOnly bool) ([]string, error) {
	query := s.db.WithContext(ctx).Model(&model.Course{})
	if approvedOnly {
		query = query.Where("approved = ?", true)
	}

	var values []string
	if err := query.Distinct().Order(column).Pluck(column, &values).Error; err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	return values, nil
}

// GetApproved returns a single approved course for the public detail page.
func (s *CourseService) GetApproved(ctx context.Context, courseID uint) (*model.Course, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).Preload("Teacher").First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: course not found", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("load course: %w", err)
	}
	if !course.Approved {
		return nil, fmt.Errorf("%w: course not found", apperr.ErrNotFound)
	}

	course.VideoURL = nil
	return &course, nil
}

// Purchase enrolls the student and updates the sales counters in a single
// transaction. The unique (course, student) index makes the enrollment
// at-most-once even under concurrent attempts: the loser of the race hits a
// duplicate-key error and the counters stay consistent.
func (s *CourseService) Purchase(ctx context.Context, courseID, studentID uint) (*model.Course, error) {
	var course model.Course

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&course, courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: course not found", apperr.ErrNotFound)
			}
			return fmt.Errorf("load course: %w", err)
		}

		if !course.Approved {
			return fmt.Errorf("%w: course is not approved", apperr.ErrValidation)
		}

		enrollment := model.Enrollment{
			CourseID:  course.ID,
			StudentID: studentID,
			PricePaid: course.FinalPrice,
		}
		if err := tx.Create(&enrollment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: you already own this course", apperr.ErrConflict)
			}
			return fmt.Errorf("record enrollment: %w", err)
		}

		// Increment in SQL so concurrent purchases of the same course by
		// different students never lose an update.
		if err := tx.Model(&course).Updates(map[string]interface{}{
			"total_sales": gorm.Expr("total_sales + 1"),
			"revenue":     gorm.Expr("revenue + ?", course.FinalPrice),
		}).Error; err != nil {
			return fmt.Errorf("update sales counters: %w", err)
		}

		var updated model.Course
		if err := tx.First(&updated, course.ID).Error; err != nil {
			return fmt.Errorf("reload course: %w", err)
		}
		course = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &course, nil
}

// PurchasedCourses lists the approved courses the student is enrolled in.
func (s *CourseService) PurchasedCourses(ctx context.Context, studentID uint) ([]model.Course, error) {
	var courses []model.Course
	if err := s.db.WithContext(ctx).
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.student_id = ? AND courses.approved = ?", studentID, true).
		Preload("Teacher").
		Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("purchased courses: %w", err)
	}
	return courses, nil
}

// Access returns the full course record, video URL included, for an enrolled
// student.
func (s *CourseService) Access(ctx context.Context, courseID, studentID uint) (*model.Course, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: course not found", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("load course: %w", err)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: you do not have access to this course", apperr.ErrForbidden)
	}

	return &course, nil
}

// TeacherCourses lists all courses owned by a teacher, in any state.
func (s *CourseService) TeacherCourses(ctx context.Context, teacherID uint) ([]model.Course, error) {
	var courses []model.Course
	if err := s.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("teacher courses: %w", err)
	}
	return courses, nil
}

// AllCourses lists every course regardless of state, for the admin overview.
func (s *CourseService) AllCourses(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	if err := s.db.WithContext(ctx).Preload("Teacher").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// CourseSales is the per-course line of a teacher's sales overview.
type CourseSales struct {
	CourseID   uint    `json:"course_id"`
	Title      string  `json:"title"`
	Price      float64 `json:"price"`
	FinalPrice float64 `json:"final_price"`
	TotalSales int64   `json:"total_sales"`
	Revenue    float64 `json:"revenue"`
}

// SalesOverview aggregates sales and revenue across a teacher's courses.
type SalesOverview struct {
	Courses      []CourseSales `json:"courses"`
	TotalRevenue float64       `json:"total_revenue"`
	TotalSales   int64         `json:"total_sales"`
	CourseCount  int           `json:"course_count"`
}

// Sales returns the teacher's sales overview. A teacher with no courses gets
// zero totals, not an error.
func (s *CourseService) Sales(ctx context.Context, teacherID uint) (*SalesOverview, error) {
	courses, err := s.TeacherCourses(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	overview := &SalesOverview{
		Courses:     make([]CourseSales, 0, len(courses)),
		CourseCount: len(courses),
	}
	for _, course := range courses {
		overview.Courses = append(overview.Courses, CourseSales{
			CourseID:   course.ID,
			Title:      course.Title,
			Price:      course.Price,
			FinalPrice: course.FinalPrice,
			TotalSales: course.TotalSales,
			Revenue:    course.Revenue,
		})
		overview.TotalRevenue += course.Revenue
		overview.TotalSales += course.TotalSales
	}
	overview.TotalRevenue = Round2(overview.TotalRevenue)

	return overview, nil
}

func stripVideoURLs(courses []model.Course) {
	for i := range courses {
		courses[i].VideoURL = nil
	}
}
