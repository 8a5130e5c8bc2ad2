package listener

import (
	"context"
	"errors"
	"fmt"
	"github.com/awakari/eventsub/api/http/helix"
	"github.com/awakari/eventsub/model/eventsub"
	"github.com/awakari/eventsub/service/subscription"
	lru "github.com/hashicorp/golang-lru/v2"
	"log/slog"
	"sync"
)

// Listener owns every subscription, talks to the remote registry and routes the inbound notifications.
type Listener struct {
	svc      helix.Service
	tr       Transport
	notifier Notifier
	log      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup

	lock      sync.Mutex
	subs      map[string]*subscription.Subscription
	remotes   map[string]*subscription.Subscription
	remoteIds map[string]string
	ready     bool
	closed    bool

	seen *lru.Cache[string, struct{}]
}

const seenMessageIdsMax = 1024

var _ subscription.Owner = (*Listener)(nil)
var _ Sink = (*Listener)(nil)

func New(svc helix.Service, tr Transport, notifier Notifier, log *slog.Logger) (l *Listener) {
	seen, _ := lru.New[string, struct{}](seenMessageIdsMax)
	ctx, cancel := context.WithCancel(context.Background())
	l = &Listener{
		svc:       svc,
		tr:        tr,
		notifier:  notifier,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
		subs:      map[string]*subscription.Subscription{},
		remotes:   map[string]*subscription.Subscription{},
		remoteIds: map[string]string{},
		seen:      seen,
	}
	return
}

// Subscribe adds a subscription of the given kind. It's started at once when the transport is ready,
// otherwise as soon as it becomes ready.
func Subscribe[T any](l *Listener, kind subscription.Kind[T], handler subscription.HandlerFunc[T]) (s *subscription.Subscription, err error) {
	s = subscription.New(kind, handler, l)
	l.lock.Lock()
	_, exists := l.subs[s.Id()]
	switch {
	case l.closed:
		err = ErrClosed
	case exists:
		err = fmt.Errorf("%w: %s", ErrAlreadyExists, s.Id())
	default:
		l.subs[s.Id()] = s
	}
	ready := l.ready
	l.lock.Unlock()
	switch {
	case err != nil:
		s = nil
	case ready:
		s.Start(nil)
	}
	return
}

// Run runs the transport until the ctx is done.
func (l *Listener) Run(ctx context.Context) (err error) {
	return l.tr.Run(ctx, l)
}

// Ready reports whether the transport is able to receive the notifications.
func (l *Listener) Ready() bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.ready
}

func (l *Listener) Subscription(id string) (s *subscription.Subscription, ok bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	s, ok = l.subs[id]
	return
}

func (l *Listener) Subscriptions() (subs []*subscription.Subscription) {
	l.lock.Lock()
	defer l.lock.Unlock()
	for _, s := range l.subs {
		subs = append(subs, s)
	}
	return
}

// Close stops every subscription and waits for the pending remote calls until the ctx is done.
func (l *Listener) Close(ctx context.Context) (err error) {
	l.lock.Lock()
	l.closed = true
	l.lock.Unlock()
	for _, s := range l.Subscriptions() {
		s.Stop()
	}
	done := make(chan struct{})
	go func() {
		l.tasks.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	l.cancel()
	return
}

func (l *Listener) Submit(task func(ctx context.Context)) {
	l.tasks.Add(1)
	go func() {
		defer l.tasks.Done()
		task(l.ctx)
	}()
}

func (l *Listener) CreateRemote(ctx context.Context, s *subscription.Subscription) (rec eventsub.Record, err error) {
	var opts eventsub.TransportOptions
	opts, err = l.tr.Options(ctx, s)
	var userId string
	if opts.Method == eventsub.MethodWebsocket {
		userId = s.AuthUserId()
	}
	if err == nil {
		rec, err = l.svc.Create(ctx, userId, eventsub.CreateRequest{
			Type:      s.Type(),
			Version:   s.Version(),
			Condition: s.Condition(),
			Transport: opts,
		})
	}
	if err == nil {
		l.notifier.SubscriptionCreated(s, rec)
	}
	return
}

func (l *Listener) DeleteRemote(ctx context.Context, userId, remoteId string) (err error) {
	err = l.svc.Delete(ctx, userId, remoteId)
	if errors.Is(err, helix.ErrNotFound) {
		l.log.Debug(fmt.Sprintf("Remote subscription %s is already deleted", remoteId))
		err = nil
	}
	return
}

func (l *Listener) RegisterRemote(s *subscription.Subscription, rec eventsub.Record) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.subs[s.Id()] != s {
		l.log.Debug(fmt.Sprintf("Ignore the remote record %s of the removed subscription %s", rec.Id, s.Id()))
		return
	}
	l.dropRemote(s.Id())
	l.remotes[rec.Id] = s
	l.remoteIds[s.Id()] = rec.Id
}

func (l *Listener) DropRemote(s *subscription.Subscription) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.dropRemote(s.Id())
}

func (l *Listener) dropRemote(localId string) {
	remoteId, ok := l.remoteIds[localId]
	if ok {
		delete(l.remoteIds, localId)
		delete(l.remotes, remoteId)
	}
}

func (l *Listener) DropSubscription(s *subscription.Subscription) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.subs[s.Id()] == s {
		delete(l.subs, s.Id())
	}
}

func (l *Listener) NotifyCreateError(s *subscription.Subscription, err error) {
	l.notifier.SubscriptionCreateFailed(s, err)
}

func (l *Listener) NotifyDeleteError(s *subscription.Subscription, err error) {
	l.notifier.SubscriptionDeleteFailed(s, err)
}

func (l *Listener) NotifyDeleteSuccess(s *subscription.Subscription) {
	l.notifier.SubscriptionDeleted(s)
}

func (l *Listener) CliTestCommand(s *subscription.Subscription) (cmd string, err error) {
	return l.tr.CliTestCommand(s)
}

func (l *Listener) Logger() *slog.Logger {
	return l.log
}
