package storage

import (
	"context"
	"encoding/json"

	"timetable-api/domain"
)

// EnqueueBillingEvent sends a subscription state change to the billing queue.
func (s *Storage) EnqueueBillingEvent(ctx context.Context, ev domain.BillingEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = s.billingQueue.EnqueueMessage(ctx, string(data), nil)
	return err
}
