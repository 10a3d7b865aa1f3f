// Package sweeper expires lapsed trials and subscriptions on a schedule.
package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"timetable-api/domain"
)

// Store is the slice of persistence the sweeper needs.
type Store interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, u domain.User) error
	EnqueueBillingEvent(ctx context.Context, ev domain.BillingEvent) error
}

type Sweeper struct {
	store  Store
	logger *log.Logger
	cron   *cron.Cron
}

func New(store Store, logger *log.Logger) *Sweeper {
	return &Sweeper{store: store, logger: logger}
}

// Start runs Sweep on the given cron schedule until Stop is called.
func (s *Sweeper) Start(schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := s.Sweep(context.Background(), time.Now()); err != nil {
			s.logger.WithError(err).Error("subscription sweep failed")
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Sweep marks users whose trial or paid period has lapsed as expired and
// enqueues a billing event for each. Cancelled and already-expired accounts
// are left alone.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) error {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return err
	}
	expired := 0
	for _, user := range users {
		if !lapsed(user, now) {
			continue
		}
		user.SubscriptionStatus = domain.SubscriptionExpired
		if err := s.store.UpdateUser(ctx, user); err != nil {
			s.logger.WithError(err).WithField("user_id", user.ID).Error("failed to expire user")
			continue
		}
		if err := s.store.EnqueueBillingEvent(ctx, domain.BillingEvent{
			UserID:         user.ID,
			Event:          domain.BillingSubscriptionExpired,
			SubscriptionID: user.SubscriptionID,
			OccurredAt:     now.UTC(),
		}); err != nil {
			s.logger.WithError(err).WithField("user_id", user.ID).Error("failed to enqueue expiry event")
		}
		expired++
	}
	if expired > 0 {
		s.logger.WithField("expired", expired).Info("subscription sweep complete")
	}
	return nil
}

func lapsed(u domain.User, now time.Time) bool {
	switch u.SubscriptionStatus {
	case domain.SubscriptionTrial:
		return !u.TrialEndsAt.After(now)
	case domain.SubscriptionActive:
		return u.SubscriptionEndsAt != nil && !u.SubscriptionEndsAt.After(now)
	}
	return false
}
