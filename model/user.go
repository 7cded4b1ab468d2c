package model

import (
	"time"
)

// User roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User represents a registered user in the system
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string    `gorm:"not null" json:"name"`
	Role         string    `gorm:"type:varchar(20);default:'student'" json:"role"` // student, teacher, admin

	// Set when an admin allocates a pool account to this teacher
	AllocatedAccountID *uint `gorm:"index" json:"allocated_account_id,omitempty"`

	// Relationships
	Courses       []Course       `gorm:"foreignKey:TeacherID" json:"-"`
	Enrollments   []Enrollment   `gorm:"foreignKey:StudentID" json:"-"`
	Subscriptions []Subscription `gorm:"foreignKey:UserID" json:"-"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
