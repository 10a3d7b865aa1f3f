package api

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"timetable-api/domain"
)

const (
	subscriptionCycles = 12 // monthly cycles per created subscription
	paidPeriod         = 30 * 24 * time.Hour

	webhookEventHeader     = "X-Razorpay-Event-Id"
	webhookSignatureHeader = "X-Razorpay-Signature"
	webhookDedupeScope     = "razorpay"
)

func subscriptionStatus(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok, err := authedUser(c, store, auth)
		if !ok {
			return err
		}
		now := time.Now()
		daysRemaining := 0
		if user.SubscriptionStatus == domain.SubscriptionTrial && user.TrialEndsAt.After(now) {
			daysRemaining = int(math.Ceil(user.TrialEndsAt.Sub(now).Hours() / 24))
		}
		return c.JSON(http.StatusOK, echo.Map{
			"subscriptionStatus": user.SubscriptionStatus,
			"isActive":           user.HasActiveSubscription(now),
			"trial": echo.Map{
				"isTrialActive": user.IsTrialActive(now),
				"trialEndsAt":   user.TrialEndsAt,
				"daysRemaining": daysRemaining,
			},
			"subscription": echo.Map{
				"subscriptionId":     user.SubscriptionID,
				"subscriptionEndsAt": user.SubscriptionEndsAt,
			},
		})
	}
}

func createOrder(store Storage, auth Authenticator, gateway PaymentGateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok, err := authedUser(c, store, auth)
		if !ok {
			return err
		}
		if gateway == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "Payment system not configured yet. Please contact administrator."})
		}

		sub, err := gateway.CreateSubscription(user.ID, user.Email, subscriptionCycles)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error creating subscription order"})
		}

		user.SubscriptionID = sub.ID
		if err := store.UpdateUser(c.Request().Context(), user); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error creating subscription order"})
		}

		return c.JSON(http.StatusOK, echo.Map{
			"subscriptionId": sub.ID,
			"planId":         sub.PlanID,
			"status":         sub.Status,
			"razorpayKey":    gateway.KeyID(),
			"message":        "Subscription order created successfully",
		})
	}
}

type verifyPaymentRequest struct {
	PaymentID      string `json:"razorpay_payment_id"`
	SubscriptionID string `json:"razorpay_subscription_id"`
	Signature      string `json:"razorpay_signature"`
}

func verifyPayment(store Storage, auth Authenticator, gateway PaymentGateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok, err := authedUser(c, store, auth)
		if !ok {
			return err
		}
		if gateway == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "Payment verification not available."})
		}
		var req verifyPaymentRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
		}
		if !gateway.VerifyPaymentSignature(req.PaymentID, req.SubscriptionID, req.Signature) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid payment signature"})
		}

		ctx := c.Request().Context()
		endsAt := time.Now().Add(paidPeriod)
		user.SubscriptionStatus = domain.SubscriptionActive
		user.SubscriptionID = req.SubscriptionID
		user.SubscriptionEndsAt = &endsAt
		if err := store.UpdateUser(ctx, user); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error verifying payment"})
		}
		if err := store.EnqueueBillingEvent(ctx, domain.BillingEvent{
			UserID:         user.ID,
			Event:          domain.BillingSubscriptionActivated,
			SubscriptionID: req.SubscriptionID,
			OccurredAt:     time.Now().UTC(),
		}); err != nil {
			// The subscription is already active; the event is advisory.
			c.Logger().Error(err)
		}

		return c.JSON(http.StatusOK, echo.Map{
			"message":            "Payment verified successfully",
			"subscriptionStatus": user.SubscriptionStatus,
			"subscriptionEndsAt": user.SubscriptionEndsAt,
		})
	}
}

// webhookPayload mirrors the fields of gateway webhook bodies this service
// consumes. Notes values are untyped because the gateway sends an empty array
// when no notes were attached.
type webhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Subscription struct {
			Entity struct {
				ID         string         `json:"id"`
				CurrentEnd int64          `json:"current_end"`
				Notes      map[string]any `json:"notes"`
			} `json:"entity"`
		} `json:"subscription"`
	} `json:"payload"`
}

func subscriptionWebhook(store Storage, gateway PaymentGateway, deduper Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if gateway == nil || !gateway.WebhookConfigured() {
			logger.Warn("webhook received but webhook secret not configured")
			return c.JSON(http.StatusOK, echo.Map{"received": true})
		}

		body, err := io.ReadAll(io.LimitReader(c.Request().Body, requestBodyMaxSize))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "unreadable body"})
		}
		if !gateway.VerifyWebhookSignature(body, c.Request().Header.Get(webhookSignatureHeader)) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid webhook signature"})
		}

		var payload webhookPayload
		if err := sonic.ConfigStd.Unmarshal(body, &payload); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
		}

		ctx := c.Request().Context()
		eventID := c.Request().Header.Get(webhookEventHeader)
		if eventID != "" && deduper != nil {
			added, err := deduper.Add(ctx, webhookDedupeScope, eventID)
			if err != nil {
				logger.WithError(err).Error("webhook dedupe check failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Webhook processing failed"})
			}
			if !added {
				logger.WithField("event_id", eventID).Debug("duplicate webhook delivery skipped")
				return c.JSON(http.StatusOK, echo.Map{"received": true})
			}
		}

		if err := applyWebhookEvent(ctx, store, payload, logger); err != nil {
			if eventID != "" && deduper != nil {
				if rerr := deduper.Remove(ctx, webhookDedupeScope, eventID); rerr != nil {
					logger.WithError(rerr).Error("webhook dedupe rollback failed")
				}
			}
			logger.WithError(err).Error("webhook processing failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Webhook processing failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}
}

func applyWebhookEvent(ctx context.Context, store Storage, payload webhookPayload, logger *log.Logger) error {
	entity := payload.Payload.Subscription.Entity
	logger.WithFields(log.Fields{"event": payload.Event, "subscription_id": entity.ID}).Info("gateway webhook event")

	switch payload.Event {
	case "subscription.activated":
		userID, _ := entity.Notes["userId"].(string)
		if userID == "" {
			return nil
		}
		user, err := store.UserByID(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return activateUser(ctx, store, user, entity.ID, entity.CurrentEnd, domain.BillingSubscriptionActivated)

	case "subscription.charged":
		user, err := store.UserBySubscriptionID(ctx, entity.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return activateUser(ctx, store, user, entity.ID, entity.CurrentEnd, domain.BillingSubscriptionCharged)

	case "subscription.cancelled", "subscription.completed":
		user, err := store.UserBySubscriptionID(ctx, entity.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		user.SubscriptionStatus = domain.SubscriptionCancelled
		if err := store.UpdateUser(ctx, user); err != nil {
			return err
		}
		return store.EnqueueBillingEvent(ctx, domain.BillingEvent{
			UserID:         user.ID,
			Event:          domain.BillingSubscriptionCancelled,
			SubscriptionID: entity.ID,
			OccurredAt:     time.Now().UTC(),
		})

	case "subscription.payment_failed":
		logger.WithField("subscription_id", entity.ID).Warn("subscription payment failed")
		return nil
	}
	return nil
}

func activateUser(ctx context.Context, store Storage, user domain.User, subscriptionID string, currentEnd int64, event string) error {
	user.SubscriptionStatus = domain.SubscriptionActive
	user.SubscriptionID = subscriptionID
	if currentEnd > 0 {
		endsAt := time.Unix(currentEnd, 0).UTC()
		user.SubscriptionEndsAt = &endsAt
	}
	if err := store.UpdateUser(ctx, user); err != nil {
		return err
	}
	return store.EnqueueBillingEvent(ctx, domain.BillingEvent{
		UserID:         user.ID,
		Event:          event,
		SubscriptionID: subscriptionID,
		OccurredAt:     time.Now().UTC(),
	})
}

func cancelSubscription(store Storage, auth Authenticator, gateway PaymentGateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok, err := authedUser(c, store, auth)
		if !ok {
			return err
		}
		if user.SubscriptionID == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "No active subscription found"})
		}
		if gateway == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "Subscription cancellation not available."})
		}

		if err := gateway.CancelSubscription(user.SubscriptionID); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error cancelling subscription"})
		}

		ctx := c.Request().Context()
		user.SubscriptionStatus = domain.SubscriptionCancelled
		if err := store.UpdateUser(ctx, user); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error cancelling subscription"})
		}
		if err := store.EnqueueBillingEvent(ctx, domain.BillingEvent{
			UserID:         user.ID,
			Event:          domain.BillingSubscriptionCancelled,
			SubscriptionID: user.SubscriptionID,
			OccurredAt:     time.Now().UTC(),
		}); err != nil {
			c.Logger().Error(err)
		}

		return c.JSON(http.StatusOK, echo.Map{
			"message":            "Subscription cancelled successfully",
			"subscriptionStatus": user.SubscriptionStatus,
		})
	}
}
