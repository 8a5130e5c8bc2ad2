package eventsub

import "time"

// Method tags the transport variant.
type Method string

const (
	MethodWebhook   Method = "webhook"
	MethodWebsocket Method = "websocket"
)

// Transport describes how the remote registry delivers the notifications of a subscription.
// Callback is set for the webhook method only, SessionId and ConnectedAt for the websocket one.
type Transport struct {
	Method         Method    `json:"method"`
	Callback       string    `json:"callback,omitempty"`
	SessionId      string    `json:"session_id,omitempty"`
	ConnectedAt    time.Time `json:"connected_at"`
	DisconnectedAt time.Time `json:"disconnected_at"`
}

// TransportOptions is the outbound transport of a create request.
type TransportOptions struct {
	Method    Method `json:"method"`
	Callback  string `json:"callback,omitempty"`
	Secret    string `json:"secret,omitempty"`
	SessionId string `json:"session_id,omitempty"`
}

func NewWebhookTransport(callback, secret string) TransportOptions {
	return TransportOptions{
		Method:   MethodWebhook,
		Callback: callback,
		Secret:   secret,
	}
}

func NewWebsocketTransport(sessionId string) TransportOptions {
	return TransportOptions{
		Method:    MethodWebsocket,
		SessionId: sessionId,
	}
}
