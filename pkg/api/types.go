package api

import "github.com/open-teleop/keypad/domain/teleop"

// --- Data Structures for WebSocket Messages ---

// KeypadReply is written back to the websocket after each event.
type KeypadReply struct {
	Status string                `json:"status"`
	State  teleop.PublisherState `json:"state"`
	Error  string                `json:"error,omitempty"`
}

// KeypadController is the part of the teleop service the API drives.
type KeypadController interface {
	HandleEvent(ev teleop.KeypadEvent) error
	State() teleop.PublisherState
}
