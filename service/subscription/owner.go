package subscription

import (
	"context"
	"github.com/awakari/eventsub/model/eventsub"
	"log/slog"
)

// Owner is what a Subscription needs from the listener it belongs to.
type Owner interface {

	// Submit runs the task in background. Subscriptions never wait for the completion.
	Submit(task func(ctx context.Context))

	// CreateRemote registers the subscription in the remote registry using the listener's transport.
	CreateRemote(ctx context.Context, s *Subscription) (rec eventsub.Record, err error)

	// DeleteRemote deletes the remote record. Empty userId means no user context.
	DeleteRemote(ctx context.Context, userId, remoteId string) (err error)

	RegisterRemote(s *Subscription, rec eventsub.Record)
	DropRemote(s *Subscription)
	DropSubscription(s *Subscription)

	NotifyCreateError(s *Subscription, err error)
	NotifyDeleteError(s *Subscription, err error)
	NotifyDeleteSuccess(s *Subscription)

	CliTestCommand(s *Subscription) (cmd string, err error)

	Logger() *slog.Logger
}
