package webhook

import (
	"context"
	"fmt"
	"github.com/awakari/eventsub/model/eventsub"
	"github.com/awakari/eventsub/model/eventsub/condition"
	"github.com/awakari/eventsub/service/events"
	"github.com/awakari/eventsub/service/listener"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

var log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

type sinkMock struct {
	lock      sync.Mutex
	connected int
	msgs      []string
	last      listener.Message
}

func (sm *sinkMock) Connected(ctx context.Context) {
	sm.lock.Lock()
	defer sm.lock.Unlock()
	sm.connected++
}

func (sm *sinkMock) Disconnected() {
}

func (sm *sinkMock) add(t string, msg listener.Message) (err error) {
	sm.lock.Lock()
	defer sm.lock.Unlock()
	sm.msgs = append(sm.msgs, t)
	sm.last = msg
	switch msg.LocalId {
	case "missing":
		err = fmt.Errorf("%w: %s", listener.ErrNotFound, msg.LocalId)
	case "fail":
		err = fmt.Errorf("internal failure")
	}
	return
}

func (sm *sinkMock) Verify(msg listener.Message) error {
	return sm.add(MessageTypeVerification, msg)
}

func (sm *sinkMock) Deliver(ctx context.Context, msg listener.Message) error {
	return sm.add(MessageTypeNotification, msg)
}

func (sm *sinkMock) Revoke(msg listener.Message) error {
	return sm.add(MessageTypeRevocation, msg)
}

func TestSign(t *testing.T) {
	sig := Sign("s3cRe7", "e76c6bd4-55c9-4987-8304-da1588d8988b", "2019-11-16T10:11:12.634234626Z", []byte(`{"a":1}`))
	assert.True(t, strings.HasPrefix(sig, "sha256="))
	assert.Len(t, sig, len("sha256=")+64)
	assert.True(t, verifySignature("s3cRe7", "e76c6bd4-55c9-4987-8304-da1588d8988b", "2019-11-16T10:11:12.634234626Z", []byte(`{"a":1}`), sig))
	assert.False(t, verifySignature("other", "e76c6bd4-55c9-4987-8304-da1588d8988b", "2019-11-16T10:11:12.634234626Z", []byte(`{"a":1}`), sig))
	assert.False(t, verifySignature("s3cRe7", "e76c6bd4-55c9-4987-8304-da1588d8988b", "2019-11-16T10:11:12.634234626Z", []byte(`{"a":2}`), sig))
}

func TestHandler_Handle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tsValid := now.Add(-time.Minute).Format(time.RFC3339Nano)
	cases := map[string]struct {
		localId string
		msgType string
		ts      string
		body    string
		secret  string
		code    int
		resp    string
		sunk    []string
	}{
		"verification replies the challenge": {
			localId: "stream.online.b1",
			msgType: MessageTypeVerification,
			ts:      tsValid,
			body:    `{"challenge":"pogchamp-kappa-360noscope-vohiyo","subscription":{"id":"r1","status":"webhook_callback_verification_pending","type":"stream.online","version":"1"}}`,
			code:    http.StatusOK,
			resp:    "pogchamp-kappa-360noscope-vohiyo",
			sunk:    []string{MessageTypeVerification},
		},
		"verification of unknown subscription": {
			localId: "missing",
			msgType: MessageTypeVerification,
			ts:      tsValid,
			body:    `{"challenge":"c1","subscription":{"id":"r1"}}`,
			code:    http.StatusNotFound,
			sunk:    []string{MessageTypeVerification},
		},
		"notification": {
			localId: "stream.online.b1",
			msgType: MessageTypeNotification,
			ts:      tsValid,
			body:    `{"subscription":{"id":"r1","status":"enabled","type":"stream.online","version":"1"},"event":{"id":"e1","broadcaster_user_id":"b1"}}`,
			code:    http.StatusNoContent,
			sunk:    []string{MessageTypeNotification},
		},
		"notification failure": {
			localId: "fail",
			msgType: MessageTypeNotification,
			ts:      tsValid,
			body:    `{"subscription":{"id":"r1"},"event":{}}`,
			code:    http.StatusInternalServerError,
			sunk:    []string{MessageTypeNotification},
		},
		"revocation": {
			localId: "stream.online.b1",
			msgType: MessageTypeRevocation,
			ts:      tsValid,
			body:    `{"subscription":{"id":"r1","status":"authorization_revoked","type":"stream.online","version":"1"}}`,
			code:    http.StatusNoContent,
			sunk:    []string{MessageTypeRevocation},
		},
		"invalid signature": {
			localId: "stream.online.b1",
			msgType: MessageTypeNotification,
			ts:      tsValid,
			body:    `{"subscription":{"id":"r1"},"event":{}}`,
			secret:  "other",
			code:    http.StatusForbidden,
		},
		"stale message": {
			localId: "stream.online.b1",
			msgType: MessageTypeNotification,
			ts:      now.Add(-11 * time.Minute).Format(time.RFC3339Nano),
			body:    `{"subscription":{"id":"r1"},"event":{}}`,
			code:    http.StatusForbidden,
		},
		"invalid timestamp": {
			localId: "stream.online.b1",
			msgType: MessageTypeNotification,
			ts:      "yesterday",
			body:    `{"subscription":{"id":"r1"},"event":{}}`,
			code:    http.StatusForbidden,
		},
		"malformed payload": {
			localId: "stream.online.b1",
			msgType: MessageTypeNotification,
			ts:      tsValid,
			body:    `{"subscription":`,
			code:    http.StatusBadRequest,
		},
		"unknown message type": {
			localId: "stream.online.b1",
			msgType: "unknown",
			ts:      tsValid,
			body:    `{}`,
			code:    http.StatusBadRequest,
		},
	}
	for k, c := range cases {
		t.Run(k, func(t *testing.T) {
			sink := &sinkMock{}
			h := handler{
				secret: "secret0",
				sink:   sink,
				log:    log,
				now: func() time.Time {
					return now
				},
			}
			r := gin.New()
			r.POST("/eventsub/:"+paramSubscriptionId, h.Handle)
			secret := c.secret
			if secret == "" {
				secret = "secret0"
			}
			req := httptest.NewRequest(http.MethodPost, "/eventsub/"+c.localId, strings.NewReader(c.body))
			req.Header.Set(HeaderMessageId, "m1")
			req.Header.Set(HeaderMessageTimestamp, c.ts)
			req.Header.Set(HeaderMessageType, c.msgType)
			req.Header.Set(HeaderMessageSignature, Sign(secret, "m1", c.ts, []byte(c.body)))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, c.code, w.Code)
			if c.resp != "" {
				assert.Equal(t, c.resp, w.Body.String())
				assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
			}
			assert.Equal(t, c.sunk, sink.msgs)
			if len(c.sunk) > 0 {
				assert.Equal(t, "m1", sink.last.Id)
				assert.Equal(t, c.localId, sink.last.LocalId)
				assert.Equal(t, "r1", sink.last.Subscription.Id)
			}
		})
	}
}

func TestHandler_Handle_Event(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sink := &sinkMock{}
	r := gin.New()
	r.POST("/eventsub/:"+paramSubscriptionId, NewHandler("secret0", sink, log).Handle)
	body := `{"subscription":{"id":"r1","status":"enabled","type":"stream.online","version":"1","transport":{"method":"webhook","callback":"https://localhost/eventsub/stream.online.b1"}},"event":{"id":"e1","broadcaster_user_id":"b1"}}`
	ts := time.Now().UTC().Format(time.RFC3339Nano)
	req := httptest.NewRequest(http.MethodPost, "/eventsub/stream.online.b1", strings.NewReader(body))
	req.Header.Set(HeaderMessageId, "m1")
	req.Header.Set(HeaderMessageTimestamp, ts)
	req.Header.Set(HeaderMessageType, MessageTypeNotification)
	req.Header.Set(HeaderMessageSignature, Sign("secret0", "m1", ts, []byte(body)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.JSONEq(t, `{"id":"e1","broadcaster_user_id":"b1"}`, string(sink.last.Event))
	assert.Equal(t, eventsub.StatusEnabled, sink.last.Subscription.Status)
	assert.Equal(t, eventsub.MethodWebhook, sink.last.Subscription.Transport.Method)
	assert.Equal(t, "https://localhost/eventsub/stream.online.b1", sink.last.Subscription.Transport.Callback)
}

func TestHandler_Handle_BatchedEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sink := &sinkMock{}
	r := gin.New()
	r.POST("/eventsub/:"+paramSubscriptionId, NewHandler("secret0", sink, log).Handle)
	body := `{"subscription":{"id":"r1","status":"enabled","type":"drop.entitlement.grant","version":"1","condition":{"organization_id":"org0"}},"events":[{"id":"g1","data":{"organization_id":"org0","category_id":"c1","campaign_id":"camp0","user_id":"u1","user_name":"User1","entitlement_id":"ent1","benefit_id":"ben1","created_at":"2024-01-02T03:04:05Z"}},{"id":"g2","data":{"organization_id":"org0","user_id":"u2"}}]}`
	ts := time.Now().UTC().Format(time.RFC3339Nano)
	req := httptest.NewRequest(http.MethodPost, "/eventsub/drop.entitlement.grant.org0..", strings.NewReader(body))
	req.Header.Set(HeaderMessageId, "m1")
	req.Header.Set(HeaderMessageTimestamp, ts)
	req.Header.Set(HeaderMessageType, MessageTypeNotification)
	req.Header.Set(HeaderMessageSignature, Sign("secret0", "m1", ts, []byte(body)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotEmpty(t, sink.last.Event)
	grants, err := events.NewDropEntitlementGrantKind(condition.DropEntitlementGrantFilter{OrganizationId: "org0"}).Transform(sink.last.Event)
	require.Nil(t, err)
	require.Len(t, grants, 2)
	assert.Equal(t, "g1", grants[0].Id)
	assert.Equal(t, "ent1", grants[0].Data.EntitlementId)
	assert.Equal(t, "u2", grants[1].Data.UserId)
}
