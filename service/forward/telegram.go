package forward

import (
	"context"
	"errors"
	"fmt"
	"github.com/awakari/eventsub/service/events"
	"github.com/bytedance/sonic"
	ce "github.com/cloudevents/sdk-go/v2/event"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/ratelimit"
	"gopkg.in/telebot.v3"
	"log/slog"
	"unicode/utf8"
)

// Sender is implemented by *telebot.Bot.
type Sender interface {
	Send(to telebot.Recipient, what any, opts ...any) (*telebot.Message, error)
}

type telegramSink struct {
	sender Sender
	chat   *telebot.Chat
	format Format
	rl     ratelimit.Limiter
	log    *slog.Logger
}

const fmtLenMaxTxt = 256

func NewTelegramSink(sender Sender, chatId int64, rl ratelimit.Limiter, log *slog.Logger) Sink {
	return telegramSink{
		sender: sender,
		chat: &telebot.Chat{
			ID: chatId,
		},
		format: Format{
			HtmlPolicy: bluemonday.StrictPolicy(),
		},
		rl:  rl,
		log: log,
	}
}

func (ts telegramSink) Send(ctx context.Context, evt *ce.Event) (err error) {
	var txt string
	txt, err = ts.format.Html(evt)
	if err == nil {
		ts.rl.Take()
		_, err = ts.sender.Send(ts.chat, txt, telebot.ModeHTML)
	}
	if err != nil {
		var errFlood telebot.FloodError
		if errors.As(err, &errFlood) {
			ts.log.Warn(fmt.Sprintf("Telegram flood control, retry after %d s, event %s dropped", errFlood.RetryAfter, evt.ID()))
		}
		err = fmt.Errorf("failed to send the event %s to telegram: %w", evt.ID(), err)
	}
	return
}

type Format struct {
	HtmlPolicy *bluemonday.Policy
}

// Html renders the known event types, the others are rendered as the raw data.
func (f Format) Html(evt *ce.Event) (txt string, err error) {
	data := evt.Data()
	switch evt.Type() {
	case events.TypeStreamOnline:
		var e events.StreamOnline
		if err = sonic.Unmarshal(data, &e); err == nil {
			txt = fmt.Sprintf("<b>%s</b> is live", f.text(e.BroadcasterUserName))
		}
	case events.TypeStreamOffline:
		var e events.StreamOffline
		if err = sonic.Unmarshal(data, &e); err == nil {
			txt = fmt.Sprintf("<b>%s</b> went offline", f.text(e.BroadcasterUserName))
		}
	case events.TypeChannelUpdate:
		var e events.ChannelUpdate
		if err = sonic.Unmarshal(data, &e); err == nil {
			txt = fmt.Sprintf("<b>%s</b> updated the channel\n%s\n<i>%s</i>", f.text(e.BroadcasterUserName), f.text(e.Title), f.text(e.CategoryName))
		}
	case events.TypeChannelFollow:
		var e events.ChannelFollow
		if err = sonic.Unmarshal(data, &e); err == nil {
			txt = fmt.Sprintf("<b>%s</b> followed <b>%s</b>", f.text(e.UserName), f.text(e.BroadcasterUserName))
		}
	case events.TypeRewardRedemptionAdd:
		var e events.RewardRedemptionAdd
		if err = sonic.Unmarshal(data, &e); err == nil {
			txt = fmt.Sprintf("<b>%s</b> redeemed <b>%s</b>", f.text(e.UserName), f.text(e.Reward.Title))
			if e.UserInput != "" {
				txt += fmt.Sprintf("\n%s", f.text(e.UserInput))
			}
		}
	case events.TypeChatMessage:
		var e events.ChatMessage
		if err = sonic.Unmarshal(data, &e); err == nil {
			txt = fmt.Sprintf("<b>%s</b>: %s", f.text(e.ChatterUserName), f.text(e.Message.Text))
		}
	default:
		txt = fmt.Sprintf("<b>%s</b>\n<code>%s</code>", f.text(evt.Type()), f.text(string(data)))
	}
	return
}

func (f Format) text(s string) string {
	return truncateStringUtf8(f.HtmlPolicy.Sanitize(s), fmtLenMaxTxt)
}

func truncateStringUtf8(s string, lenMax int) string {
	if len(s) <= lenMax {
		return s
	}
	for i := lenMax - 3; i > 0; i-- {
		if utf8.RuneStart(s[i]) {
			return s[:i] + "..."
		}
	}
	return ""
}
