package forward

import (
	"github.com/bytedance/sonic"
	ce "github.com/cloudevents/sdk-go/v2/event"
	"github.com/segmentio/ksuid"
	"time"
)

// ToCloudEvent wraps the handled domain event. The event type is the registry subscription type.
func ToCloudEvent(eventType, source string, data any) (evt ce.Event, err error) {
	evt = ce.New()
	evt.SetID(ksuid.New().String())
	evt.SetType(eventType)
	evt.SetSource(source)
	evt.SetTime(time.Now().UTC())
	var raw []byte
	raw, err = sonic.Marshal(data)
	if err == nil {
		err = evt.SetData(ce.ApplicationJSON, raw)
	}
	return
}
