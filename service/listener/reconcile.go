package listener

import (
	"context"
	"fmt"
	"github.com/awakari/eventsub/api/http/helix"
	"github.com/awakari/eventsub/model/eventsub"
	"github.com/awakari/eventsub/service/subscription"
	"golang.org/x/sync/errgroup"
	"sync"
)

const listConcurrencyMax = 4

// reconcile starts every subscription, resuming those that still have a matching remote record.
func (l *Listener) reconcile(ctx context.Context) (err error) {
	subs := l.Subscriptions()
	method := l.tr.Method()
	userIds := map[string]struct{}{}
	for _, s := range subs {
		userIds[listUserId(method, s)] = struct{}{}
	}
	var lock sync.Mutex
	recsByUser := map[string][]eventsub.Record{}
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrencyMax)
	for userId := range userIds {
		g.Go(func() (err error) {
			var recs []eventsub.Record
			recs, err = helix.ListAll(gCtx, l.svc, userId)
			if err != nil {
				// a failed list is not fatal: the unmatched subscriptions get fresh remote records
				l.log.Warn(fmt.Sprintf("Failed to list the remote subscriptions, user %q: %s", userId, err))
				err = nil
				return
			}
			lock.Lock()
			defer lock.Unlock()
			recsByUser[userId] = recs
			return
		})
	}
	err = g.Wait()
	if err == nil {
		l.resume(subs, method, recsByUser)
	}
	return
}

func (l *Listener) resume(subs []*subscription.Subscription, method eventsub.Method, recsByUser map[string][]eventsub.Record) {
	for _, s := range subs {
		if rec, ok := s.Remote(); ok {
			if !rec.Status.Healthy() {
				// a broken record left after a failed deletion, cycle it again
				s.Start(nil)
			}
			continue
		}
		userId := listUserId(method, s)
		recs := recsByUser[userId]
		i := match(s, l.target(s), recs)
		if i < 0 {
			s.Start(nil)
			continue
		}
		rec := recs[i]
		recsByUser[userId] = append(recs[:i:i], recs[i+1:]...)
		l.log.Debug(fmt.Sprintf("Subscription %s matches the remote record %s, status: %s", s.Id(), rec.Id, rec.Status))
		s.Start(&rec)
	}
}

// target returns the transport a new remote record of the subscription would get.
func (l *Listener) target(s *subscription.Subscription) (opts eventsub.TransportOptions) {
	opts, err := l.tr.Options(l.ctx, s)
	if err != nil {
		opts = eventsub.TransportOptions{
			Method: l.tr.Method(),
		}
	}
	return
}

// match returns the index of the remote record to resume the subscription from, preferring the healthy ones,
// or -1 when there's no match. A webhook record should point to the same callback, a websocket record
// should belong to the current session.
func match(s *subscription.Subscription, target eventsub.TransportOptions, recs []eventsub.Record) (i int) {
	i = -1
	cond := s.Condition()
	for j, rec := range recs {
		switch {
		case rec.Type != s.Type():
		case rec.Version != s.Version():
		case rec.Transport.Method != target.Method:
		case target.Method == eventsub.MethodWebhook && rec.Transport.Callback != target.Callback:
		case target.Method == eventsub.MethodWebsocket && rec.Transport.SessionId != target.SessionId:
		case !cond.Matches(rec.Condition):
		case rec.Status.Healthy():
			return j
		case i < 0:
			i = j
		}
	}
	return
}

func listUserId(method eventsub.Method, s *subscription.Subscription) (userId string) {
	if method == eventsub.MethodWebsocket {
		userId = s.AuthUserId()
	}
	return
}
