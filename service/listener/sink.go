package listener

import (
	"context"
	"fmt"
	"github.com/awakari/eventsub/service/subscription"
)

func (l *Listener) Connected(ctx context.Context) {
	l.lock.Lock()
	closed := l.closed
	l.ready = !closed
	l.lock.Unlock()
	if closed {
		return
	}
	l.log.Info("Transport connected, reconcile the subscriptions")
	l.Submit(func(ctx context.Context) {
		err := l.reconcile(ctx)
		if err != nil {
			l.log.Error(fmt.Sprintf("Failed to reconcile the subscriptions: %s", err))
		}
	})
}

func (l *Listener) Disconnected() {
	l.lock.Lock()
	l.ready = false
	clear(l.remotes)
	clear(l.remoteIds)
	var subs []*subscription.Subscription
	for _, s := range l.subs {
		subs = append(subs, s)
	}
	l.lock.Unlock()
	l.log.Warn(fmt.Sprintf("Transport disconnected, drop %d subscriptions", len(subs)))
	for _, s := range subs {
		s.Drop()
	}
}

func (l *Listener) Verify(msg Message) (err error) {
	var s *subscription.Subscription
	s, err = l.route(msg)
	if err == nil {
		s.Verify()
		l.notifier.SubscriptionVerified(s)
	}
	return
}

// Deliver passes the inbound event to the subscription. Only an unknown subscription is an error,
// the handler failures go to the Notifier.
func (l *Listener) Deliver(ctx context.Context, msg Message) (err error) {
	var s *subscription.Subscription
	s, err = l.route(msg)
	if err == nil && msg.Id != "" {
		// only the routed messages are remembered, the unknown ones may be retried
		if seen, _ := l.seen.ContainsOrAdd(msg.Id, struct{}{}); seen {
			l.log.Debug(fmt.Sprintf("Skip the duplicate message %s", msg.Id))
			return
		}
	}
	if err == nil {
		errHandle := s.Handle(ctx, msg.Event)
		if errHandle != nil {
			l.notifier.DeliveryFailed(s, errHandle)
		}
	}
	return
}

func (l *Listener) Revoke(msg Message) (err error) {
	var s *subscription.Subscription
	s, err = l.route(msg)
	if err == nil {
		l.lock.Lock()
		l.dropRemote(s.Id())
		l.lock.Unlock()
		s.Drop()
		l.notifier.SubscriptionRevoked(s, msg.Subscription.Status)
	}
	return
}

func (l *Listener) route(msg Message) (s *subscription.Subscription, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	var ok bool
	if msg.LocalId != "" {
		s, ok = l.subs[msg.LocalId]
	}
	if !ok {
		s, ok = l.remotes[msg.Subscription.Id]
	}
	if !ok {
		err = fmt.Errorf("%w: local id %q, remote id %q, type %s", ErrNotFound, msg.LocalId, msg.Subscription.Id, msg.Subscription.Type)
		l.log.Warn(err.Error())
	}
	return
}
