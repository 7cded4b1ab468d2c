package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tempoedu/tempo-api/model"
	"github.com/tempoedu/tempo-api/utils/apperr"
)

// SubscriptionWindow is the billing period of every plan.
const SubscriptionWindow = 30 * 24 * time.Hour

// SubscriptionService manages the recurring-plan ledger. Dates are advisory:
// nothing in the system expires a subscription on rollover.
type SubscriptionService struct {
	db *gorm.DB
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// Create opens a new active subscription for the user.
func (s *SubscriptionService) Create(ctx context.Context, userID uint, plan string, price float64) (*model.Subscription, error) {
	if !model.ValidPlan(plan) {
		return nil, fmt.Errorf("%w: invalid subscription plan", apperr.ErrValidation)
	}

	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	now := time.Now()
	endDate := now.Add(SubscriptionWindow)

	subscription := model.Subscription{
		UserID:      userID,
		Plan:        plan,
		Price:       price,
		Status:      model.SubscriptionActive,
		StartDate:   now,
		EndDate:     endDate,
		RenewalDate: endDate,
	}

	if err := s.db.WithContext(ctx).Create(&subscription).Error; err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	return &subscription, nil
}

// ForUser returns the user's current subscription: the most recent active one.
func (s *SubscriptionService) ForUser(ctx context.Context, userID uint) (*model.Subscription, error) {
	var subscription model.Subscription
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.SubscriptionActive).
		Order("created_at DESC").
		Preload("User").
		First(&subscription).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no active subscription found", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	return &subscription, nil
}

// All lists every subscription, newest first.
func (s *SubscriptionService) All(ctx context.Context) ([]model.Subscription, error) {
	var subscriptions []model.Subscription
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Preload("User").
		Find(&subscriptions).Error; err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subscriptions, nil
}

// UpdateStatus sets a subscription's lifecycle status.
func (s *SubscriptionService) UpdateStatus(ctx context.Context, subscriptionID uint, status string) (*model.Subscription, error) {
	if !model.ValidSubscriptionStatus(status) {
		return nil, fmt.Errorf("%w: invalid subscription status", apperr.ErrValidation)
	}

	subscription, err := s.load(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(subscription).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("update subscription status: %w", err)
	}

	subscription.Status = status
	return subscription, nil
}

// Cancel marks a subscription cancelled. Cancelling an already cancelled
// record is a no-op success.
func (s *SubscriptionService) Cancel(ctx context.Context, subscriptionID uint) (*model.Subscription, error) {
	return s.UpdateStatus(ctx, subscriptionID, model.SubscriptionCancelled)
}

// Renew resets the 30-day window and reactivates the subscription regardless
// of its prior status. Plan and price are overwritten only when provided.
func (s *SubscriptionService) Renew(ctx context.Context, subscriptionID uint, plan *string, price *float64) (*model.Subscription, error) {
	subscription, err := s.load(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	if plan != nil {
		if !model.ValidPlan(*plan) {
			return nil, fmt.Errorf("%w: invalid subscription plan", apperr.ErrValidation)
		}
		subscription.Plan = *plan
	}
	if price != nil {
		subscription.Price = *price
	}

	endDate := time.Now().Add(SubscriptionWindow)
	subscription.EndDate = endDate
	subscription.RenewalDate = endDate
	subscription.Status = model.SubscriptionActive

	if err := s.db.WithContext(ctx).Save(subscription).Error; err != nil {
		return nil, fmt.Errorf("renew subscription: %w", err)
	}

	return subscription, nil
}

// PlanRevenue is the per-plan line of the admin stats.
type PlanRevenue struct {
	Plan         string  `json:"plan"`
	TotalRevenue float64 `json:"total_revenue"`
	Count        int64   `json:"count"`
}

// SubscriptionStats aggregates the ledger for the admin dashboard.
type SubscriptionStats struct {
	TotalSubscriptions     int64         `json:"total_subscriptions"`
	ActiveSubscriptions    int64         `json:"active_subscriptions"`
	CancelledSubscriptions int64         `json:"cancelled_subscriptions"`
	RevenueByPlan          []PlanRevenue `json:"revenue_by_plan"`
	TotalMonthlyRevenue    float64       `json:"total_monthly_revenue"`
}

// Stats returns counts by status and revenue by plan across active records.
func (s *SubscriptionService) Stats(ctx context.Context) (*SubscriptionStats, error) {
	stats := &SubscriptionStats{}

	if err := s.db.WithContext(ctx).Model(&model.Subscription{}).
		Count(&stats.TotalSubscriptions).Error; err != nil {
		return nil, fmt.Errorf("count subscriptions: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("status = ?", model.SubscriptionActive).
		Count(&stats.ActiveSubscriptions).Error; err != nil {
		return nil, fmt.Errorf("count active subscriptions: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("status = ?", model.SubscriptionCancelled).
		Count(&stats.CancelledSubscriptions).Error; err != nil {
		return nil, fmt.Errorf("count cancelled subscriptions: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&model.Subscription{}).
		Select("plan, SUM(price) AS total_revenue, COUNT(*) AS count").
		Where("status = ?", model.SubscriptionActive).
		Group("plan").
		Scan(&stats.RevenueByPlan).Error; err != nil {
		return nil, fmt.Errorf("revenue by plan: %w", err)
	}

	for _, line := range stats.RevenueByPlan {
		stats.TotalMonthlyRevenue += line.TotalRevenue
	}

	return stats, nil
}

func (s *SubscriptionService) load(ctx context.Context, subscriptionID uint) (*model.Subscription, error) {
	var subscription model.Subscription
	if err := s.db.WithContext(ctx).First(&subscription, subscriptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: subscription not found", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	return &subscription, nil
}
