package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/open-teleop/keypad/domain/teleop"
	"github.com/open-teleop/keypad/pkg/config"
	customlog "github.com/open-teleop/keypad/pkg/log"
)

// ConfigProvider returns the active operational configuration.
type ConfigProvider interface {
	GetCurrentConfig() *config.Config
}

// KeypadEventSink applies press and release events.
type KeypadEventSink interface {
	HandleEvent(ev teleop.KeypadEvent) error
}

// ConfigHandler handles CONFIG_REQUEST messages
type ConfigHandler struct {
	provider ConfigProvider
	logger   customlog.Logger
}

// NewConfigHandler creates a new handler for configuration requests
func NewConfigHandler(provider ConfigProvider, logger customlog.Logger) *ConfigHandler {
	return &ConfigHandler{
		provider: provider,
		logger:   logger,
	}
}

// HandleMessage replies to a CONFIG_REQUEST with the current configuration
func (h *ConfigHandler) HandleMessage(data []byte) ([]byte, error) {
	cfg := h.provider.GetCurrentConfig()
	if cfg == nil {
		return nil, errors.New("no operational configuration loaded")
	}

	h.logger.Debugf("Processing configuration request")

	responseData, err := json.Marshal(newMessage(MsgTypeConfigResponse, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize response: %w", err)
	}

	h.logger.Debugf("Sending configuration response (%d bytes)", len(responseData))
	return responseData, nil
}

// KeypadEventHandler handles KEYPAD_EVENT messages of the form
//
//	{"type":"KEYPAD_EVENT","data":{"event":"press","button":"left"}}
type KeypadEventHandler struct {
	events KeypadEventSink
	logger customlog.Logger
}

// NewKeypadEventHandler creates a handler that forwards events to events.
func NewKeypadEventHandler(events KeypadEventSink, logger customlog.Logger) *KeypadEventHandler {
	return &KeypadEventHandler{
		events: events,
		logger: logger,
	}
}

// HandleMessage applies the event and acknowledges it. Errors from the keypad
// are returned so the receiver answers with an ERROR reply.
func (h *KeypadEventHandler) HandleMessage(data []byte) ([]byte, error) {
	event, err := jsonparser.GetString(data, "data", "event")
	if err != nil {
		return nil, fmt.Errorf("%w: missing data.event", ErrInvalidMessage)
	}
	// Absent for release.
	button, _ := jsonparser.GetString(data, "data", "button")

	ev := teleop.KeypadEvent{Event: event, Button: button}
	if err := h.events.HandleEvent(ev); err != nil {
		if errors.Is(err, teleop.ErrUnknownButton) || errors.Is(err, teleop.ErrUnknownEvent) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
		}
		return nil, err
	}

	h.logger.Debugf("Applied keypad event %s %s", ev.Event, ev.Button)
	return json.Marshal(newMessage(MsgTypeKeypadAck, map[string]interface{}{
		"status": "OK",
		"event":  ev.Event,
		"button": ev.Button,
	}))
}
