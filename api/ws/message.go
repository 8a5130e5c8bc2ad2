package ws

import (
	"encoding/json"
	"github.com/awakari/eventsub/model/eventsub"
	"time"
)

const (
	MessageTypeWelcome      = "session_welcome"
	MessageTypeKeepalive    = "session_keepalive"
	MessageTypeNotification = "notification"
	MessageTypeReconnect    = "session_reconnect"
	MessageTypeRevocation   = "revocation"
)

type Message struct {
	Metadata Metadata `json:"metadata"`
	Payload  Payload  `json:"payload"`
}

type Metadata struct {
	MessageId           string    `json:"message_id"`
	MessageType         string    `json:"message_type"`
	MessageTimestamp    time.Time `json:"message_timestamp"`
	SubscriptionType    string    `json:"subscription_type,omitempty"`
	SubscriptionVersion string    `json:"subscription_version,omitempty"`
}

type Payload struct {
	Session      *Session         `json:"session,omitempty"`
	Subscription *eventsub.Record `json:"subscription,omitempty"`
	Event        json.RawMessage  `json:"event,omitempty"`
	// Events is set instead of Event by the batched subscription types
	Events json.RawMessage `json:"events,omitempty"`
}

type Session struct {
	Id                      string    `json:"id"`
	Status                  string    `json:"status"`
	KeepaliveTimeoutSeconds int       `json:"keepalive_timeout_seconds"`
	ReconnectUrl            string    `json:"reconnect_url"`
	ConnectedAt             time.Time `json:"connected_at"`
}
