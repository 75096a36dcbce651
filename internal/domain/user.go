package domain

import "time"

// UserPlan enumerates billing plans.
type UserPlan string

const (
	UserPlanFree       UserPlan = "free"
	UserPlanPro        UserPlan = "pro"
	UserPlanEnterprise UserPlan = "enterprise"
)

// ValidPlan reports whether the plan name is known.
func ValidPlan(p UserPlan) bool {
	switch p {
	case UserPlanFree, UserPlanPro, UserPlanEnterprise:
		return true
	}
	return false
}

// User represents an account as supplied by the external identity provider.
// Authentication itself happens upstream; this service only needs the
// stable id and the plan the billing system assigned.
type User struct {
	ID        string
	Email     string
	Plan      UserPlan
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Unlimited reports whether the plan bypasses the rolling-window rate limiter.
func (u User) Unlimited() bool {
	return u.Plan == UserPlanEnterprise
}
