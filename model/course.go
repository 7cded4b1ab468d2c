package model

import (
	"time"
)

// Course represents a course listed on the marketplace. A course starts out
// unapproved (draft) and becomes visible to students once an admin approves it.
type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	TeacherID   uint      `gorm:"not null;index" json:"teacher_id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Subject     string    `gorm:"not null;index" json:"subject"`
	Class       string    `gorm:"not null;index" json:"class"`
	Price       float64   `gorm:"not null" json:"price"`
	FinalPrice  float64   `gorm:"not null" json:"final_price"` // Price with platform markup applied
	Approved    bool      `gorm:"default:false" json:"approved"`
	VideoURL    *string   `json:"video_url,omitempty"`
	TotalSales  int64     `gorm:"default:0" json:"total_sales"`
	Revenue     float64   `gorm:"default:0" json:"revenue"`

	// Relationships
	Teacher User `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
}

// Enrollment is an append-only record of a completed course purchase.
// PricePaid captures the final price at purchase time; it is never recomputed
// when the course price changes later. Rows are keyed uniquely by
// (course_id, student_id) so a student can buy a course at most once.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_course_student" json:"course_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_enrollment_course_student;index" json:"student_id"`
	PricePaid float64   `gorm:"not null" json:"price_paid"`

	// Relationships
	Student User `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}
