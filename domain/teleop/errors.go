package teleop

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyRunning  = errors.New("command publisher is already running")
	ErrSinkUnavailable = errors.New("command sink is not available")
	ErrInvalidInterval = errors.New("publish interval must be positive")
	ErrUnknownButton   = errors.New("unknown keypad button")
	ErrUnknownEvent    = errors.New("unknown keypad event")
)

// TransportError reports a failed transmit. The publisher never retries; the
// next tick simply tries again with whatever command is current then.
type TransportError struct {
	Topic string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transmit on %s failed: %v", e.Topic, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
