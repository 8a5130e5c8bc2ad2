package eventsub

// Status is the remote registry state of a subscription.
type Status string

const (
	StatusEnabled                         Status = "enabled"
	StatusWebhookVerificationPending      Status = "webhook_callback_verification_pending"
	StatusWebhookVerificationFailed       Status = "webhook_callback_verification_failed"
	StatusNotificationFailuresExceeded    Status = "notification_failures_exceeded"
	StatusAuthorizationRevoked            Status = "authorization_revoked"
	StatusModeratorRemoved                Status = "moderator_removed"
	StatusUserRemoved                     Status = "user_removed"
	StatusVersionRemoved                  Status = "version_removed"
	StatusBetaMaintenance                 Status = "beta_maintenance"
	StatusWebsocketDisconnected           Status = "websocket_disconnected"
	StatusWebsocketFailedPingPong         Status = "websocket_failed_ping_pong"
	StatusWebsocketReceivedInboundTraffic Status = "websocket_received_inbound_traffic"
	StatusWebsocketConnectionUnused       Status = "websocket_connection_unused"
	StatusWebsocketInternalError          Status = "websocket_internal_error"
	StatusWebsocketNetworkTimeout         Status = "websocket_network_timeout"
	StatusWebsocketNetworkError           Status = "websocket_network_error"
)

// Healthy reports whether a subscription in this status may be adopted as is when resuming.
func (s Status) Healthy() bool {
	switch s {
	case StatusEnabled, StatusWebhookVerificationPending:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}
