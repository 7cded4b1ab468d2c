package model

import (
	"time"
)

// Subscription plans
const (
	PlanStarter      = "Starter"
	PlanProfessional = "Professional"
	PlanPremium      = "Premium"
)

// Subscription statuses
const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionPaused    = "paused"
	SubscriptionExpired   = "expired"
)

// ValidPlan reports whether plan is a known subscription plan.
func ValidPlan(plan string) bool {
	switch plan {
	case PlanStarter, PlanProfessional, PlanPremium:
		return true
	}
	return false
}

// ValidSubscriptionStatus reports whether status is a known lifecycle status.
func ValidSubscriptionStatus(status string) bool {
	switch status {
	case SubscriptionActive, SubscriptionCancelled, SubscriptionPaused, SubscriptionExpired:
		return true
	}
	return false
}

// Subscription is a recurring-plan record for a user. A user may accumulate
// several records over time; the current one is the most recent with an
// active status. End and renewal dates are advisory only, nothing in the
// system expires subscriptions on date rollover.
type Subscription struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	Plan          string    `gorm:"type:varchar(20);not null" json:"plan"`
	Price         float64   `gorm:"not null" json:"price"`
	Currency      string    `gorm:"type:varchar(10);default:'PKR'" json:"currency"`
	Status        string    `gorm:"type:varchar(20);default:'active'" json:"status"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	RenewalDate   time.Time `json:"renewal_date"`
	PaymentMethod string    `gorm:"type:varchar(50);default:'card'" json:"payment_method"`
	AutoRenew     bool      `gorm:"default:true" json:"auto_renew"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
