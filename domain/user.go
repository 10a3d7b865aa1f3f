package domain

import "time"

// Subscription lifecycle states. New accounts start on a time-limited trial;
// the sweeper is the only writer of SubscriptionExpired.
const (
	SubscriptionTrial     = "trial"
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// User is a registered account with its subscription state.
type User struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	SubscriptionStatus string     `json:"subscriptionStatus"`
	TrialEndsAt        time.Time  `json:"trialEndsAt"`
	SubscriptionID     string     `json:"subscriptionId,omitempty"`
	CustomerID         string     `json:"-"`
	OrderID            string     `json:"-"`
	SubscriptionEndsAt *time.Time `json:"subscriptionEndsAt,omitempty"`
	LastLoginAt        time.Time  `json:"lastLoginAt"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// IsTrialActive reports whether the user is still inside the trial window.
func (u User) IsTrialActive(now time.Time) bool {
	return u.SubscriptionStatus == SubscriptionTrial && u.TrialEndsAt.After(now)
}

// HasActiveSubscription reports whether the user may access gated features:
// an unexpired trial, or an active subscription whose end date is unset or in
// the future.
func (u User) HasActiveSubscription(now time.Time) bool {
	switch u.SubscriptionStatus {
	case SubscriptionTrial:
		return u.TrialEndsAt.After(now)
	case SubscriptionActive:
		return u.SubscriptionEndsAt == nil || u.SubscriptionEndsAt.After(now)
	default:
		return false
	}
}
