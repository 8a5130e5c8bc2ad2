package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/awakari/eventsub/model/eventsub"
	"github.com/awakari/eventsub/service/listener"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"io"
	"log/slog"
	"net/http"
	"time"
)

type Handler interface {
	Handle(ctx *gin.Context)
}

type handler struct {
	secret string
	sink   listener.Sink
	log    *slog.Logger
	now    func() time.Time
}

const HeaderMessageId = "Twitch-Eventsub-Message-Id"
const HeaderMessageTimestamp = "Twitch-Eventsub-Message-Timestamp"
const HeaderMessageSignature = "Twitch-Eventsub-Message-Signature"
const HeaderMessageType = "Twitch-Eventsub-Message-Type"

const MessageTypeVerification = "webhook_callback_verification"
const MessageTypeNotification = "notification"
const MessageTypeRevocation = "revocation"

const paramSubscriptionId = "subscriptionId"

type payload struct {
	Subscription eventsub.Record `json:"subscription"`
	Challenge    string          `json:"challenge"`
	Event        json.RawMessage `json:"event"`
	// Events is set instead of Event by the batched subscription types
	Events json.RawMessage `json:"events"`
}

func NewHandler(secret string, sink listener.Sink, log *slog.Logger) Handler {
	return handler{
		secret: secret,
		sink:   sink,
		log:    log,
		now:    time.Now,
	}
}

func (h handler) Handle(ctx *gin.Context) {

	defer ctx.Request.Body.Close()
	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		ctx.String(http.StatusBadRequest, fmt.Sprintf("failed to read the request payload: %s", err))
		return
	}

	msgId := ctx.GetHeader(HeaderMessageId)
	ts := ctx.GetHeader(HeaderMessageTimestamp)
	if !verifySignature(h.secret, msgId, ts, body, ctx.GetHeader(HeaderMessageSignature)) {
		h.log.Warn(fmt.Sprintf("Invalid signature of the message %s", msgId))
		ctx.String(http.StatusForbidden, "invalid signature")
		return
	}
	if !verifyTimestamp(ts, h.now()) {
		h.log.Warn(fmt.Sprintf("Stale message %s, timestamp: %s", msgId, ts))
		ctx.String(http.StatusForbidden, fmt.Sprintf("invalid timestamp: %s", ts))
		return
	}

	var p payload
	err = sonic.Unmarshal(body, &p)
	if err != nil {
		ctx.String(http.StatusBadRequest, fmt.Sprintf("failed to deserialize the request payload: %s", err))
		return
	}
	msg := listener.Message{
		Id:           msgId,
		LocalId:      ctx.Param(paramSubscriptionId),
		Subscription: p.Subscription,
		Event:        p.Event,
	}
	if len(msg.Event) == 0 {
		msg.Event = p.Events
	}

	switch t := ctx.GetHeader(HeaderMessageType); t {
	case MessageTypeVerification:
		err = h.sink.Verify(msg)
		if err == nil {
			ctx.String(http.StatusOK, p.Challenge)
		}
	case MessageTypeNotification:
		err = h.sink.Deliver(ctx.Request.Context(), msg)
		if err == nil {
			ctx.Status(http.StatusNoContent)
		}
	case MessageTypeRevocation:
		err = h.sink.Revoke(msg)
		if err == nil {
			ctx.Status(http.StatusNoContent)
		}
	default:
		ctx.String(http.StatusBadRequest, fmt.Sprintf("unknown message type: %s", t))
		return
	}
	switch {
	case errors.Is(err, listener.ErrNotFound):
		ctx.String(http.StatusNotFound, err.Error())
	case err != nil:
		ctx.String(http.StatusInternalServerError, err.Error())
	}
	return
}
