package subscription

import (
	"context"
	"github.com/awakari/eventsub/model/eventsub/condition"
)

// Descriptor is the immutable identity of a subscription kind instance.
type Descriptor interface {

	// Id is the local subscription id, stable across suspend/resume cycles.
	Id() string

	// Type is the remote event type, e.g. "stream.online".
	Type() string

	Version() string

	Condition() condition.Condition

	// AuthUserId is the user the subscription is authenticated as.
	// Empty only for the kinds not related to a single user, like drop entitlement grants.
	AuthUserId() string

	// CliName is the event name accepted by the twitch CLI "event trigger" command.
	CliName() string
}

// Kind describes one subscription kind and converts its inbound payloads into the domain events.
type Kind[T any] interface {
	Descriptor
	Transform(data []byte) (evt T, err error)
}

type HandlerFunc[T any] func(ctx context.Context, evt T) (err error)
