package model

import (
	"time"
)

// TeacherAccount is a pre-provisioned login in the teacher account pool.
// Accounts are created by admins and handed out (allocated) to teachers
// exactly once; there is no de-allocation path. Allocated is true iff
// AllocatedToID is set.
type TeacherAccount struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Username      string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash  string    `gorm:"not null" json:"-"`
	Allocated     bool      `gorm:"default:false" json:"allocated"`
	AllocatedToID *uint     `gorm:"index" json:"allocated_to,omitempty"`

	// Relationships
	AllocatedTo *User `gorm:"foreignKey:AllocatedToID" json:"-"`
}
