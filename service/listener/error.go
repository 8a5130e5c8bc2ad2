package listener

import "errors"

var ErrAlreadyExists = errors.New("subscription already exists")
var ErrNotFound = errors.New("subscription not found")
var ErrClosed = errors.New("listener is closed")
