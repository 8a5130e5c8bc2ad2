package forward

import (
	"context"
	"errors"
	"github.com/awakari/eventsub/service/events"
	"github.com/bytedance/sonic"
	ce "github.com/cloudevents/sdk-go/v2/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/ratelimit"
	"gopkg.in/telebot.v3"
	"log/slog"
	"strings"
	"testing"
)

var log = slog.Default()

type sinkMock struct {
	evts []*ce.Event
	err  error
}

func (sm *sinkMock) Send(ctx context.Context, evt *ce.Event) (err error) {
	sm.evts = append(sm.evts, evt)
	return sm.err
}

type senderMock struct {
	to   []telebot.Recipient
	what []any
	err  error
}

func (sm *senderMock) Send(to telebot.Recipient, what any, opts ...any) (msg *telebot.Message, err error) {
	sm.to = append(sm.to, to)
	sm.what = append(sm.what, what)
	return &telebot.Message{}, sm.err
}

func TestToCloudEvent(t *testing.T) {
	evt, err := ToCloudEvent(events.TypeStreamOnline, "https://twitch.tv/b1", events.StreamOnline{
		Broadcaster: events.Broadcaster{
			BroadcasterUserId:   "b1",
			BroadcasterUserName: "Broadcaster1",
		},
		Id:   "e1",
		Type: "live",
	})
	require.Nil(t, err)
	assert.Nil(t, evt.Validate())
	assert.Len(t, evt.ID(), 27)
	assert.Equal(t, events.TypeStreamOnline, evt.Type())
	assert.Equal(t, "https://twitch.tv/b1", evt.Source())
	assert.Equal(t, ce.ApplicationJSON, evt.DataContentType())
	var data events.StreamOnline
	require.Nil(t, sonic.Unmarshal(evt.Data(), &data))
	assert.Equal(t, "Broadcaster1", data.BroadcasterUserName)
	assert.Equal(t, "live", data.Type)
	//
	evt2, err := ToCloudEvent(events.TypeStreamOnline, "https://twitch.tv/b1", events.StreamOnline{})
	require.Nil(t, err)
	assert.NotEqual(t, evt.ID(), evt2.ID())
}

func TestHandler(t *testing.T) {
	cases := map[string]struct {
		errs []error
		err  bool
	}{
		"ok": {
			errs: []error{nil, nil},
		},
		"one sink fails": {
			errs: []error{errors.New("fail"), nil},
			err:  true,
		},
	}
	for k, c := range cases {
		t.Run(k, func(t *testing.T) {
			var sinks []Sink
			var mocks []*sinkMock
			for _, e := range c.errs {
				sm := &sinkMock{err: e}
				sinks = append(sinks, sm)
				mocks = append(mocks, sm)
			}
			h := Handler[events.StreamOffline](events.TypeStreamOffline, "src", sinks...)
			err := h(context.TODO(), events.StreamOffline{})
			assert.Equal(t, c.err, err != nil)
			for _, sm := range mocks {
				require.Len(t, sm.evts, 1)
				assert.Equal(t, events.TypeStreamOffline, sm.evts[0].Type())
			}
		})
	}
}

func TestLogSink_Send(t *testing.T) {
	evt, err := ToCloudEvent(events.TypeStreamOffline, "src", events.StreamOffline{})
	require.Nil(t, err)
	err = NewLogSink(log).Send(context.TODO(), &evt)
	assert.Nil(t, err)
}

func TestFormat_Html(t *testing.T) {
	cases := map[string]struct {
		typ  string
		data any
		txt  string
	}{
		"stream online": {
			typ: events.TypeStreamOnline,
			data: events.StreamOnline{
				Broadcaster: events.Broadcaster{BroadcasterUserName: "<b>Broadcaster1</b>"},
			},
			txt: "<b>Broadcaster1</b> is live",
		},
		"stream offline": {
			typ: events.TypeStreamOffline,
			data: events.StreamOffline{
				Broadcaster: events.Broadcaster{BroadcasterUserName: "Broadcaster1"},
			},
			txt: "<b>Broadcaster1</b> went offline",
		},
		"channel update": {
			typ: events.TypeChannelUpdate,
			data: events.ChannelUpdate{
				Broadcaster:  events.Broadcaster{BroadcasterUserName: "Broadcaster1"},
				Title:        "Best Stream Ever",
				CategoryName: "Science & Technology",
			},
			txt: "<b>Broadcaster1</b> updated the channel\nBest Stream Ever\n<i>Science &amp; Technology</i>",
		},
		"channel follow": {
			typ: events.TypeChannelFollow,
			data: events.ChannelFollow{
				Broadcaster: events.Broadcaster{BroadcasterUserName: "Broadcaster1"},
				User:        events.User{UserName: "Follower1"},
			},
			txt: "<b>Follower1</b> followed <b>Broadcaster1</b>",
		},
		"reward redemption": {
			typ: events.TypeRewardRedemptionAdd,
			data: events.RewardRedemptionAdd{
				User:      events.User{UserName: "Viewer1"},
				UserInput: "hello",
				Reward:    events.Reward{Title: "Hydrate"},
			},
			txt: "<b>Viewer1</b> redeemed <b>Hydrate</b>\nhello",
		},
		"chat message": {
			typ: events.TypeChatMessage,
			data: events.ChatMessage{
				ChatterUserName: "Viewer1",
				Message:         events.ChatMessageText{Text: "hi <script>alert(1)</script>"},
			},
			txt: "<b>Viewer1</b>: hi ",
		},
		"unknown type": {
			typ:  "channel.raid",
			data: map[string]any{"a": 1},
			txt:  "<b>channel.raid</b>\n<code>{&#34;a&#34;:1}</code>",
		},
	}
	f := NewTelegramSink(&senderMock{}, 1, ratelimit.NewUnlimited(), log).(telegramSink).format
	for k, c := range cases {
		t.Run(k, func(t *testing.T) {
			evt, err := ToCloudEvent(c.typ, "src", c.data)
			require.Nil(t, err)
			txt, err := f.Html(&evt)
			require.Nil(t, err)
			assert.Equal(t, c.txt, txt)
		})
	}
}

func TestTruncateStringUtf8(t *testing.T) {
	assert.Equal(t, "abc", truncateStringUtf8("abc", 5))
	assert.Equal(t, "ab...", truncateStringUtf8("abcdefgh", 5))
	s := truncateStringUtf8(strings.Repeat("й", 10), 8)
	assert.Equal(t, "йй...", s)
}

func TestTelegramSink_Send(t *testing.T) {
	cases := map[string]struct {
		err error
	}{
		"ok": {},
		"flood": {
			err: telebot.FloodError{RetryAfter: 10},
		},
	}
	for k, c := range cases {
		t.Run(k, func(t *testing.T) {
			sender := &senderMock{err: c.err}
			s := NewTelegramSink(sender, 123, ratelimit.NewUnlimited(), log)
			evt, err := ToCloudEvent(events.TypeStreamOffline, "src", events.StreamOffline{
				Broadcaster: events.Broadcaster{BroadcasterUserName: "Broadcaster1"},
			})
			require.Nil(t, err)
			err = s.Send(context.TODO(), &evt)
			if c.err == nil {
				assert.Nil(t, err)
			} else {
				assert.ErrorIs(t, err, c.err)
			}
			require.Len(t, sender.to, 1)
			assert.Equal(t, "123", sender.to[0].Recipient())
			assert.Equal(t, "<b>Broadcaster1</b> went offline", sender.what[0])
		})
	}
}
