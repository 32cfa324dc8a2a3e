package model

import (
	"fmt"
	"time"
)

// User represents an account that can sign in and owns one collection.
type User struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	PasswordHash string       `json:"-"`
	DisplayName  string       `json:"display_name,omitempty"`
	Email        string       `json:"email,omitempty"`
	Role         string       `json:"role"`
	Subscription Subscription `json:"subscription"`
	Usage        Usage        `json:"usage"`
	LastLogin    *time.Time   `json:"last_login,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	DeletedAt    *time.Time   `json:"deleted_at,omitempty"`
}

// Subscription is the billing state of a user.
type Subscription struct {
	Plan                 string     `json:"plan"`
	Status               string     `json:"status"`
	StripeCustomerID     string     `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string     `json:"stripe_subscription_id,omitempty"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
}

// Usage tracks metered AI requests for the current month.
type Usage struct {
	AIRequests int    `json:"ai_requests_this_month"`
	AIPeriod   string `json:"ai_period,omitempty"`
}

// Roles.
const (
	RoleAdmin       = "admin"
	RoleEditor      = "editor"
	RoleContributor = "contributor"
	RoleViewer      = "viewer"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleEditor, RoleContributor, RoleViewer:
		return true
	}
	return false
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:       4,
		RoleEditor:      3,
		RoleContributor: 2,
		RoleViewer:      1,
	}
	return levels[role] >= levels[minimum] && levels[minimum] > 0
}

// Plans.
const (
	PlanFree       = "free"
	PlanBasic      = "basic"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

// Subscription statuses.
const (
	SubscriptionActive    = "active"
	SubscriptionInactive  = "inactive"
	SubscriptionCancelled = "cancelled"
	SubscriptionTrial     = "trial"
)

// Unlimited marks a plan limit with no ceiling.
const Unlimited = -1

// PlanLimits describes what a plan allows.
type PlanLimits struct {
	Items      int
	AIRequests int
}

var planLimits = map[string]PlanLimits{
	PlanFree:       {Items: 50, AIRequests: 10},
	PlanBasic:      {Items: 500, AIRequests: 100},
	PlanPremium:    {Items: 5000, AIRequests: 1000},
	PlanEnterprise: {Items: Unlimited, AIRequests: Unlimited},
}

// LimitsFor returns the limits for plan. Unknown plans get the free limits.
func LimitsFor(plan string) PlanLimits {
	if l, ok := planLimits[plan]; ok {
		return l
	}
	return planLimits[PlanFree]
}

// ValidPlan reports whether plan is a known plan.
func ValidPlan(plan string) bool {
	_, ok := planLimits[plan]
	return ok
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidatePassword checks password strength rules.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
