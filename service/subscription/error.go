package subscription

import "errors"

// ErrInvariantViolation is fatal and never retried: it means a programming or configuration defect.
var ErrInvariantViolation = errors.New("invariant violation")

var ErrTransform = errors.New("failed to transform the event payload")

var ErrHandler = errors.New("event handler failure")
