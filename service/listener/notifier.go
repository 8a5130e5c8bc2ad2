package listener

import (
	"errors"
	"fmt"
	"github.com/awakari/eventsub/model/eventsub"
	"github.com/awakari/eventsub/service/subscription"
	"log/slog"
)

// Notifier observes the subscription lifecycle. None of the lifecycle failures reaches the caller otherwise.
type Notifier interface {
	SubscriptionCreated(s *subscription.Subscription, rec eventsub.Record)
	SubscriptionCreateFailed(s *subscription.Subscription, err error)
	SubscriptionDeleted(s *subscription.Subscription)
	SubscriptionDeleteFailed(s *subscription.Subscription, err error)
	SubscriptionVerified(s *subscription.Subscription)
	SubscriptionRevoked(s *subscription.Subscription, status eventsub.Status)
	DeliveryFailed(s *subscription.Subscription, err error)
}

type notifierLogging struct {
	log *slog.Logger
}

func NewNotifierLogging(log *slog.Logger) Notifier {
	return notifierLogging{
		log: log,
	}
}

func (nl notifierLogging) SubscriptionCreated(s *subscription.Subscription, rec eventsub.Record) {
	nl.log.Info(fmt.Sprintf("Subscription %s created: id=%s, status=%s, cost=%d", s.Id(), rec.Id, rec.Status, rec.Cost))
}

func (nl notifierLogging) SubscriptionCreateFailed(s *subscription.Subscription, err error) {
	nl.log.Error(fmt.Sprintf("Subscription %s failed to subscribe: %s", s.Id(), err))
}

func (nl notifierLogging) SubscriptionDeleted(s *subscription.Subscription) {
	nl.log.Info(fmt.Sprintf("Subscription %s deleted", s.Id()))
}

func (nl notifierLogging) SubscriptionDeleteFailed(s *subscription.Subscription, err error) {
	switch {
	case errors.Is(err, subscription.ErrInvariantViolation):
		nl.log.Error(fmt.Sprintf("FATAL: subscription %s can not be deleted: %s", s.Id(), err))
	default:
		nl.log.Error(fmt.Sprintf("Subscription %s failed to unsubscribe: %s", s.Id(), err))
	}
}

func (nl notifierLogging) SubscriptionVerified(s *subscription.Subscription) {
	nl.log.Info(fmt.Sprintf("Subscription %s verified", s.Id()))
}

func (nl notifierLogging) SubscriptionRevoked(s *subscription.Subscription, status eventsub.Status) {
	nl.log.Info(fmt.Sprintf("Subscription %s revoked by the registry, status: %s", s.Id(), status))
}

func (nl notifierLogging) DeliveryFailed(s *subscription.Subscription, err error) {
	nl.log.Error(fmt.Sprintf("Subscription %s failed to handle the event: %s", s.Id(), err))
}
