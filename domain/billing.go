package domain

import "time"

// Billing event names enqueued for downstream consumers.
const (
	BillingSubscriptionActivated = "subscription.activated"
	BillingSubscriptionCharged   = "subscription.charged"
	BillingSubscriptionCancelled = "subscription.cancelled"
	BillingSubscriptionExpired   = "subscription.expired"
	BillingPaymentFailed         = "subscription.payment_failed"
)

// BillingEvent is the queue envelope for a subscription state change.
type BillingEvent struct {
	UserID         string    `json:"userId"`
	Event          string    `json:"event"`
	SubscriptionID string    `json:"subscriptionId,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}
