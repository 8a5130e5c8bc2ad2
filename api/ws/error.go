package ws

import "errors"

var ErrUserContextRequired = errors.New("websocket subscription requires a user context")
var ErrNotConnected = errors.New("websocket session is not established")
var ErrUnexpectedMessage = errors.New("unexpected message")
