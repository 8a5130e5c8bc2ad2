package forward

import (
	"context"
	"errors"
	"fmt"
	"github.com/awakari/eventsub/service/subscription"
	ce "github.com/cloudevents/sdk-go/v2/event"
)

// Sink accepts the handled events.
type Sink interface {
	Send(ctx context.Context, evt *ce.Event) (err error)
}

// Handler returns the subscription handler forwarding every event to all the sinks.
// The first sink failure doesn't prevent the others from receiving the event.
func Handler[T any](eventType, source string, sinks ...Sink) subscription.HandlerFunc[T] {
	return func(ctx context.Context, data T) (err error) {
		var evt ce.Event
		evt, err = ToCloudEvent(eventType, source, data)
		if err != nil {
			err = fmt.Errorf("failed to convert the %s event: %w", eventType, err)
			return
		}
		for _, s := range sinks {
			err = errors.Join(err, s.Send(ctx, &evt))
		}
		return
	}
}
