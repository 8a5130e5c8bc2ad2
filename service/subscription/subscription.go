package subscription

import (
	"context"
	"fmt"
	"github.com/awakari/eventsub/model/eventsub"
	"github.com/awakari/eventsub/model/eventsub/condition"
	"sync"
)

// Subscription reconciles one locally desired event stream against the remote registry.
// Start, Suspend and Stop return immediately, the outcome is reported to the Owner only.
type Subscription struct {
	desc    Descriptor
	deliver func(ctx context.Context, data []byte) (err error)
	owner   Owner

	lock        sync.Mutex
	remote      *eventsub.Record
	verified    bool
	confirmed   bool
	subscribing bool
	deleting    bool
	stopped     bool
	// epoch is bumped whenever the remote record is dropped out of band
	epoch uint64
}

func New[T any](kind Kind[T], handler HandlerFunc[T], owner Owner) (s *Subscription) {
	s = &Subscription{
		desc:  kind,
		owner: owner,
	}
	s.deliver = func(ctx context.Context, data []byte) (err error) {
		var evt T
		evt, err = kind.Transform(data)
		if err != nil {
			err = fmt.Errorf("%w: %s: %s", ErrTransform, kind.Id(), err)
		}
		if err == nil {
			err = handle(ctx, handler, evt)
		}
		return
	}
	return
}

func handle[T any](ctx context.Context, handler HandlerFunc[T], evt T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrHandler, r)
		}
	}()
	err = handler(ctx, evt)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrHandler, err)
	}
	return
}

func (s *Subscription) Id() string {
	return s.desc.Id()
}

func (s *Subscription) Type() string {
	return s.desc.Type()
}

func (s *Subscription) Version() string {
	return s.desc.Version()
}

func (s *Subscription) Condition() condition.Condition {
	return s.desc.Condition()
}

func (s *Subscription) AuthUserId() string {
	return s.desc.AuthUserId()
}

func (s *Subscription) CliName() string {
	return s.desc.CliName()
}

// Verified reports whether the remote registry has confirmed the delivery for this subscription.
func (s *Subscription) Verified() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.verified
}

// Remote returns a copy of the remote record, if the subscription is currently registered remotely.
func (s *Subscription) Remote() (rec eventsub.Record, ok bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.remote != nil {
		rec, ok = *s.remote, true
	}
	return
}

func (s *Subscription) Stopped() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.stopped
}

func (s *Subscription) State() (st State) {
	s.lock.Lock()
	defer s.lock.Unlock()
	switch {
	case s.stopped:
		st = StateStopped
	case s.subscribing:
		st = StateSubscribing
	case s.remote == nil, !s.remote.Status.Healthy():
		st = StateUnregistered
	case s.verified:
		st = StateRegisteredVerified
	default:
		st = StateRegisteredPending
	}
	return
}

// Start activates the subscription. It's called by the listener automatically, and manually only to resume
// after Suspend. When resumeFrom is a healthy remote record it's adopted without any remote call, otherwise
// the stale record is deleted before a new one is created. A broken record still held after a failed
// deletion is deleted again. A no-op when the subscription is already registered, being registered or
// stopped.
func (s *Subscription) Start(resumeFrom *eventsub.Record) {
	log := s.owner.Logger()
	s.lock.Lock()
	if s.stopped || s.subscribing || s.deleting || (s.remote != nil && s.remote.Status.Healthy()) {
		s.lock.Unlock()
		log.Debug(fmt.Sprintf("Subscription %s is already started or stopped, skip", s.Id()))
		return
	}
	if s.remote != nil {
		rec := *s.remote
		resumeFrom = &rec
	}
	if resumeFrom != nil && resumeFrom.Status.Healthy() {
		rec := *resumeFrom
		s.remote = &rec
		s.verified = rec.Status == eventsub.StatusEnabled
		s.lock.Unlock()
		s.owner.RegisterRemote(s, rec)
		log.Debug(fmt.Sprintf("Successfully resumed subscription for event: %s", s.Id()))
		return
	}
	s.subscribing = true
	if resumeFrom != nil {
		rec := *resumeFrom
		s.remote = &rec
		s.verified = false
		s.deleting = true
	}
	s.lock.Unlock()
	switch resumeFrom {
	case nil:
		s.owner.Submit(s.subscribeAndSave)
	default:
		log.Info(fmt.Sprintf("Cycling broken conflicting subscription for event: %s, status: %s", s.Id(), resumeFrom.Status))
		s.owner.Submit(func(ctx context.Context) {
			err := s.unsubscribe(ctx)
			if err == nil {
				s.subscribeAndSave(ctx)
			} else {
				s.lock.Lock()
				s.subscribing = false
				s.lock.Unlock()
				s.owner.NotifyDeleteError(s, err)
			}
		})
	}
}

// Suspend deletes the remote record but keeps the subscription in the listener.
// A no-op while the previous deletion is in flight.
func (s *Subscription) Suspend() {
	s.lock.Lock()
	registered := s.remote != nil && !s.deleting
	if registered {
		s.deleting = true
	}
	s.lock.Unlock()
	if !registered {
		return
	}
	s.owner.Submit(func(ctx context.Context) {
		err := s.unsubscribe(ctx)
		if err != nil {
			s.owner.NotifyDeleteError(s, err)
		}
	})
}

// Stop suspends the subscription and removes it from the listener without waiting for the remote deletion.
func (s *Subscription) Stop() {
	s.lock.Lock()
	s.stopped = true
	s.lock.Unlock()
	s.Suspend()
	s.owner.DropSubscription(s)
}

// CliTestCommand returns the base twitch CLI command to trigger a test event for the subscription.
// Some additional parameters, like the target user, may be required.
func (s *Subscription) CliTestCommand() (cmd string, err error) {
	return s.owner.CliTestCommand(s)
}

// Verify marks the subscription as confirmed by the remote registry out of band.
// A confirmation that arrives before the create call returns is kept until the record is known.
func (s *Subscription) Verify() {
	s.lock.Lock()
	defer s.lock.Unlock()
	switch {
	case s.remote != nil && s.remote.Status.Healthy():
		s.remote.Status = eventsub.StatusEnabled
		s.verified = true
	case s.subscribing:
		s.confirmed = true
	}
}

// Drop is called when the remote registry has revoked or removed the subscription on its own.
// No remote call is made: the record is already gone.
func (s *Subscription) Drop() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.remote = nil
	s.verified = false
	s.confirmed = false
	s.epoch++
}

// Handle transforms the inbound event payload and passes it to the handler.
// A handler failure is returned as is and doesn't affect the subscription state.
func (s *Subscription) Handle(ctx context.Context, data []byte) (err error) {
	return s.deliver(ctx, data)
}

func (s *Subscription) subscribeAndSave(ctx context.Context) {
	s.lock.Lock()
	epoch := s.epoch
	s.lock.Unlock()
	rec, err := s.owner.CreateRemote(ctx, s)
	s.lock.Lock()
	stopped := s.stopped
	// the record may be bound to the transport session that is gone meanwhile
	stale := err == nil && !stopped && s.epoch != epoch
	if !stale {
		s.subscribing = false
	}
	if err == nil && !stopped && !stale {
		s.remote = &rec
		if s.confirmed {
			s.remote.Status = eventsub.StatusEnabled
		}
		s.verified = s.remote.Status == eventsub.StatusEnabled
	}
	s.lock.Unlock()
	switch {
	case err != nil:
		s.owner.Logger().Error(fmt.Sprintf("Subscription %s failed to subscribe: %s", s.Id(), err))
		s.owner.NotifyCreateError(s, err)
	case stopped:
		s.owner.Logger().Warn(fmt.Sprintf("Subscription %s was stopped while subscribing, delete the remote record %s", s.Id(), rec.Id))
		err = s.deleteRecord(ctx, rec)
		if err != nil {
			s.owner.NotifyDeleteError(s, err)
		}
	case stale:
		s.owner.Logger().Warn(fmt.Sprintf("Subscription %s was dropped while subscribing, delete the remote record %s and retry", s.Id(), rec.Id))
		err = s.deleteRecord(ctx, rec)
		if err != nil {
			s.owner.Logger().Debug(fmt.Sprintf("Subscription %s failed to delete the dropped remote record %s: %s", s.Id(), rec.Id, err))
		}
		s.owner.Submit(s.subscribeAndSave)
	default:
		s.owner.RegisterRemote(s, rec)
	}
}

func (s *Subscription) unsubscribe(ctx context.Context) (err error) {
	s.lock.Lock()
	var rec *eventsub.Record
	if s.remote != nil {
		rec = &eventsub.Record{}
		*rec = *s.remote
	}
	s.lock.Unlock()
	if rec != nil {
		err = s.deleteRecord(ctx, *rec)
	}
	s.lock.Lock()
	s.deleting = false
	if err == nil && rec != nil && s.remote != nil && s.remote.Id == rec.Id {
		s.remote = nil
		s.verified = false
		s.confirmed = false
	}
	s.lock.Unlock()
	if err == nil {
		s.owner.DropRemote(s)
		s.owner.NotifyDeleteSuccess(s)
	}
	return
}

func (s *Subscription) deleteRecord(ctx context.Context, rec eventsub.Record) (err error) {
	switch rec.Transport.Method {
	case eventsub.MethodWebsocket:
		userId := s.AuthUserId()
		if userId == "" {
			err = fmt.Errorf("%w: trying to delete a websocket subscription that does not have user context (%s)", ErrInvariantViolation, s.Id())
		} else {
			err = s.owner.DeleteRemote(ctx, userId, rec.Id)
		}
	default:
		err = s.owner.DeleteRemote(ctx, "", rec.Id)
	}
	return
}
