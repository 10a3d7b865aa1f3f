// Package billing wraps the Razorpay payment gateway: subscription
// lifecycle calls plus payment and webhook signature verification.
package billing

import (
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

// Config carries the gateway credentials. The service runs without them;
// payment routes then answer 503.
type Config struct {
	KeyID         string
	KeySecret     string
	PlanID        string
	WebhookSecret string
}

// Enabled reports whether gateway calls can be made.
func (c Config) Enabled() bool {
	return c.KeyID != "" && c.KeySecret != ""
}

// Subscription is the subset of gateway subscription fields the API exposes.
type Subscription struct {
	ID     string `json:"subscriptionId"`
	PlanID string `json:"planId"`
	Status string `json:"status"`
}

// Gateway performs payment-provider calls for one configured account.
type Gateway struct {
	client *razorpay.Client
	cfg    Config
}

// New creates a Gateway from the given credentials.
func New(cfg Config) *Gateway {
	return &Gateway{client: razorpay.NewClient(cfg.KeyID, cfg.KeySecret), cfg: cfg}
}

// KeyID returns the public key id handed to browser checkout.
func (g *Gateway) KeyID() string { return g.cfg.KeyID }

// WebhookConfigured reports whether webhook signatures can be checked.
func (g *Gateway) WebhookConfigured() bool { return g.cfg.WebhookSecret != "" }

// CreateSubscription opens a subscription on the configured plan. The user id
// and email ride along in the notes so webhooks can be tied back to a user.
func (g *Gateway) CreateSubscription(userID, email string, cycles int) (Subscription, error) {
	data := map[string]interface{}{
		"plan_id":         g.cfg.PlanID,
		"customer_notify": 1,
		"total_count":     cycles,
		"notes": map[string]interface{}{
			"userId": userID,
			"email":  email,
		},
	}
	body, err := g.client.Subscription.Create(data, nil)
	if err != nil {
		return Subscription{}, err
	}
	var sub Subscription
	if v, ok := body["id"].(string); ok {
		sub.ID = v
	}
	if v, ok := body["plan_id"].(string); ok {
		sub.PlanID = v
	}
	if v, ok := body["status"].(string); ok {
		sub.Status = v
	}
	return sub, nil
}

// CancelSubscription cancels the subscription at the gateway.
func (g *Gateway) CancelSubscription(id string) error {
	_, err := g.client.Subscription.Cancel(id, nil, nil)
	return err
}

// VerifyPaymentSignature checks the checkout callback signature over the
// (payment id, subscription id) pair.
func (g *Gateway) VerifyPaymentSignature(paymentID, subscriptionID, signature string) bool {
	params := map[string]interface{}{
		"razorpay_payment_id":      paymentID,
		"razorpay_subscription_id": subscriptionID,
	}
	return utils.VerifySubscriptionSignature(params, signature, g.cfg.KeySecret)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the
// raw webhook body.
func (g *Gateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return utils.VerifyWebhookSignature(string(body), signature, g.cfg.WebhookSecret)
}
