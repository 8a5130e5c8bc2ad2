package ws

import (
	"context"
	"fmt"
	"github.com/awakari/eventsub/model/eventsub"
	"github.com/awakari/eventsub/service/listener"
	"github.com/awakari/eventsub/service/subscription"
	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"log/slog"
	"sync"
	"time"
)

type transport struct {
	uri        string
	newBackOff func() backoff.BackOff
	log        *slog.Logger

	lock      sync.Mutex
	conn      *websocket.Conn
	sessionId string
}

const keepaliveTimeoutDefault = 10 * time.Second
const keepaliveGrace = 5 * time.Second
const welcomeTimeout = 10 * time.Second

const msgFmtRunOnceFailed = "Websocket session failed: %s, retrying in %s"

// NewTransport returns the websocket transport connecting to the uri. A fresh back off is used after
// every established session.
func NewTransport(uri string, newBackOff func() backoff.BackOff, log *slog.Logger) listener.Transport {
	return &transport{
		uri:        uri,
		newBackOff: newBackOff,
		log:        log,
	}
}

func (t *transport) Method() eventsub.Method {
	return eventsub.MethodWebsocket
}

func (t *transport) Options(ctx context.Context, s *subscription.Subscription) (opts eventsub.TransportOptions, err error) {
	if s.AuthUserId() == "" {
		err = fmt.Errorf("%w: %s", ErrUserContextRequired, s.Id())
		return
	}
	t.lock.Lock()
	sessionId := t.sessionId
	t.lock.Unlock()
	if sessionId == "" {
		err = ErrNotConnected
		return
	}
	opts = eventsub.NewWebsocketTransport(sessionId)
	return
}

func (t *transport) CliTestCommand(s *subscription.Subscription) (cmd string, err error) {
	if s.AuthUserId() == "" {
		err = fmt.Errorf("%w: %s", ErrUserContextRequired, s.Id())
		return
	}
	cmd = fmt.Sprintf("twitch event trigger %s -t %s -T websocket", s.CliName(), s.AuthUserId())
	return
}

func (t *transport) Run(ctx context.Context, sink listener.Sink) (err error) {
	stop := context.AfterFunc(ctx, t.closeConn)
	defer stop()
	for err == nil && ctx.Err() == nil {
		b := backoff.WithContext(t.newBackOff(), ctx)
		err = backoff.RetryNotify(
			func() error {
				return t.runOnce(ctx, sink)
			},
			b,
			func(err error, d time.Duration) {
				t.log.Warn(fmt.Sprintf(msgFmtRunOnceFailed, err, d))
			},
		)
		if ctx.Err() != nil {
			err = nil
		}
	}
	return
}

// runOnce returns an error only when the session could not be established.
func (t *transport) runOnce(ctx context.Context, sink listener.Sink) (err error) {
	var conn *websocket.Conn
	var session Session
	conn, session, err = t.connect(ctx, t.uri)
	if err != nil {
		return
	}
	t.lock.Lock()
	t.conn, t.sessionId = conn, session.Id
	t.lock.Unlock()
	if ctx.Err() != nil {
		t.closeConn()
	}
	t.log.Info(fmt.Sprintf("Websocket session %s established", session.Id))
	sink.Connected(ctx)
	errRead := t.readLoop(ctx, conn, session, sink)
	t.lock.Lock()
	t.conn, t.sessionId = nil, ""
	t.lock.Unlock()
	t.log.Warn(fmt.Sprintf("Websocket session %s ended: %s", session.Id, errRead))
	sink.Disconnected()
	return
}

func (t *transport) connect(ctx context.Context, uri string) (conn *websocket.Conn, session Session, err error) {
	conn, _, err = websocket.DefaultDialer.DialContext(ctx, uri, nil)
	if err == nil {
		session, err = awaitWelcome(conn)
		if err != nil {
			_ = conn.Close()
		}
	}
	return
}

func awaitWelcome(conn *websocket.Conn) (session Session, err error) {
	_ = conn.SetReadDeadline(time.Now().Add(welcomeTimeout))
	var data []byte
	_, data, err = conn.ReadMessage()
	var msg Message
	if err == nil {
		err = sonic.Unmarshal(data, &msg)
	}
	if err == nil {
		switch {
		case msg.Metadata.MessageType != MessageTypeWelcome:
			err = fmt.Errorf("%w: %s, expected %s", ErrUnexpectedMessage, msg.Metadata.MessageType, MessageTypeWelcome)
		case msg.Payload.Session == nil || msg.Payload.Session.Id == "":
			err = fmt.Errorf("%w: welcome without session", ErrUnexpectedMessage)
		default:
			session = *msg.Payload.Session
		}
	}
	return
}

func (t *transport) readLoop(ctx context.Context, conn *websocket.Conn, session Session, sink listener.Sink) (err error) {
	keepalive := keepaliveTimeout(session)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(keepalive + keepaliveGrace))
		var data []byte
		_, data, err = conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		err = sonic.Unmarshal(data, &msg)
		if err != nil {
			t.log.Warn(fmt.Sprintf("Failed to decode the websocket message: %s", err))
			continue
		}
		switch msg.Metadata.MessageType {
		case MessageTypeKeepalive:
		case MessageTypeNotification:
			err = sink.Deliver(ctx, toListenerMessage(msg))
		case MessageTypeRevocation:
			err = sink.Revoke(toListenerMessage(msg))
		case MessageTypeReconnect:
			var next *websocket.Conn
			next, session, err = t.reconnect(ctx, msg)
			if err != nil {
				return
			}
			_ = conn.Close()
			conn = next
			keepalive = keepaliveTimeout(session)
			continue
		default:
			t.log.Warn(fmt.Sprintf("Unexpected websocket message type: %s", msg.Metadata.MessageType))
		}
		if err != nil {
			t.log.Warn(fmt.Sprintf("Failed to process the websocket message %s: %s", msg.Metadata.MessageId, err))
		}
	}
}

// reconnect moves the session to the new connection, the subscriptions stay.
func (t *transport) reconnect(ctx context.Context, msg Message) (conn *websocket.Conn, session Session, err error) {
	if msg.Payload.Session == nil || msg.Payload.Session.ReconnectUrl == "" {
		err = fmt.Errorf("%w: reconnect without url", ErrUnexpectedMessage)
		return
	}
	conn, session, err = t.connect(ctx, msg.Payload.Session.ReconnectUrl)
	if err == nil {
		t.lock.Lock()
		t.conn, t.sessionId = conn, session.Id
		t.lock.Unlock()
		if ctx.Err() != nil {
			_ = conn.Close()
		}
		t.log.Info(fmt.Sprintf("Websocket session %s moved to %s", session.Id, msg.Payload.Session.ReconnectUrl))
	}
	return
}

func (t *transport) closeConn() {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.conn != nil {
		_ = t.conn.Close()
	}
}

func keepaliveTimeout(session Session) (d time.Duration) {
	d = time.Duration(session.KeepaliveTimeoutSeconds) * time.Second
	if d <= 0 {
		d = keepaliveTimeoutDefault
	}
	return
}

func toListenerMessage(msg Message) (lm listener.Message) {
	lm.Id = msg.Metadata.MessageId
	if msg.Payload.Subscription != nil {
		lm.Subscription = *msg.Payload.Subscription
	}
	lm.Event = msg.Payload.Event
	if len(lm.Event) == 0 {
		lm.Event = msg.Payload.Events
	}
	return
}
