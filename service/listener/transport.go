package listener

import (
	"context"
	"github.com/awakari/eventsub/model/eventsub"
	"github.com/awakari/eventsub/service/subscription"
)

// Transport delivers the notifications from the remote registry to the Sink.
type Transport interface {
	Method() eventsub.Method

	// Options returns the transport of the create request for the subscription.
	Options(ctx context.Context, s *subscription.Subscription) (opts eventsub.TransportOptions, err error)

	CliTestCommand(s *subscription.Subscription) (cmd string, err error)

	// Run blocks until the ctx is done or the transport fails permanently.
	Run(ctx context.Context, sink Sink) (err error)
}

// Sink receives what the transport reads from the remote registry.
type Sink interface {

	// Connected is called when the transport becomes able to receive the notifications.
	Connected(ctx context.Context)

	// Disconnected is called when the transport has lost the session and every remote record bound to it.
	Disconnected()

	Verify(msg Message) (err error)

	Deliver(ctx context.Context, msg Message) (err error)

	Revoke(msg Message) (err error)
}

// Message is an inbound registry message.
type Message struct {

	// Id is the registry message id, used to drop the duplicates.
	Id string

	// LocalId is the local subscription id if the transport knows it, e.g. from the webhook callback path.
	LocalId string

	Subscription eventsub.Record

	Event []byte
}
