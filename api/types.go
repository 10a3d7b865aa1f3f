package api

import (
	"context"

	"timetable-api/billing"
	"timetable-api/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	CreateUser(ctx context.Context, u domain.User) error
	UserByID(ctx context.Context, id string) (domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UserBySubscriptionID(ctx context.Context, subscriptionID string) (domain.User, error)
	UpdateUser(ctx context.Context, u domain.User) error

	FetchTasks(ctx context.Context, userID string) ([]domain.TimetableEntry, error)
	TaskByID(ctx context.Context, userID, id string) (domain.TimetableEntry, error)
	InsertTask(ctx context.Context, userID string, e domain.TimetableEntry) error
	UpdateTask(ctx context.Context, userID string, e domain.TimetableEntry) error
	DeleteTask(ctx context.Context, userID, id string) error

	UpsertCompletion(ctx context.Context, c domain.Completion) (domain.Completion, error)
	CompletionsForUser(ctx context.Context, userID string) ([]domain.Completion, error)
	CompletionsInRange(ctx context.Context, userID, from, to string) ([]domain.Completion, error)
	CompletionsForTask(ctx context.Context, taskID string) ([]domain.Completion, error)

	FetchTargets(ctx context.Context, userID string) ([]domain.Target, error)
	TargetByID(ctx context.Context, userID, id string) (domain.Target, error)
	InsertTarget(ctx context.Context, userID string, t domain.Target) error
	UpdateTarget(ctx context.Context, userID string, t domain.Target) error
	DeleteTarget(ctx context.Context, userID, id string) error

	FetchAudio(ctx context.Context, userID string) ([]domain.Audio, error)
	AudioByID(ctx context.Context, userID, id string) (domain.Audio, error)
	InsertAudio(ctx context.Context, userID string, a domain.Audio) error
	UpdateAudio(ctx context.Context, userID string, a domain.Audio) error

	EnqueueBillingEvent(ctx context.Context, ev domain.BillingEvent) error
}

// Authenticator is implemented by types able to extract user IDs from headers
// and mint tokens for this service's own users.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
	IssueToken(userID string) (string, error)
}

// PaymentGateway abstracts the payment provider for subscription handlers.
type PaymentGateway interface {
	KeyID() string
	WebhookConfigured() bool
	CreateSubscription(userID, email string, cycles int) (billing.Subscription, error)
	CancelSubscription(id string) error
	VerifyPaymentSignature(paymentID, subscriptionID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
}

// Deduper prevents reprocessing of redelivered webhook events.
type Deduper interface {
	// Add records the event key and returns true if it was newly added.
	Add(ctx context.Context, scope, key string) (bool, error)
	// Remove deletes a previously added key, used when processing fails.
	Remove(ctx context.Context, scope, key string) error
}
