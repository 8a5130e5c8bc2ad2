package forward

import (
	"context"
	"fmt"
	ceProto "github.com/cloudevents/sdk-go/binding/format/protobuf/v2"
	"github.com/cloudevents/sdk-go/binding/format/protobuf/v2/pb"
	ce "github.com/cloudevents/sdk-go/v2/event"
	"google.golang.org/protobuf/encoding/protojson"
	"log/slog"
)

type logSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) Sink {
	return logSink{
		log: log,
	}
}

func (ls logSink) Send(ctx context.Context, evt *ce.Event) (err error) {
	var evtProto *pb.CloudEvent
	evtProto, err = ceProto.ToProto(evt)
	var txt []byte
	if err == nil {
		txt, err = protojson.Marshal(evtProto)
	}
	if err == nil {
		ls.log.Info(fmt.Sprintf("Event %s: %s", evt.Type(), txt))
	}
	return
}
