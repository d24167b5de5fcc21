package api

import (
	"encoding/json"
	"errors"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/open-teleop/keypad/domain/teleop"
	customlog "github.com/open-teleop/keypad/pkg/log"
)

// keypadSession tracks one websocket client. A client that disconnects while
// holding a button is released so the robot does not keep driving.
type keypadSession struct {
	controller KeypadController
	logger     customlog.Logger
	holding    bool
}

func newKeypadSession(controller KeypadController, logger customlog.Logger) *keypadSession {
	return &keypadSession{controller: controller, logger: logger}
}

// handle applies one text frame and returns the reply to write.
func (s *keypadSession) handle(msg []byte) KeypadReply {
	var ev teleop.KeypadEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		s.logger.Warnf("Malformed keypad message from WS: %v", err)
		return KeypadReply{Status: "error", State: s.controller.State(), Error: "malformed message"}
	}

	if err := s.controller.HandleEvent(ev); err != nil {
		s.logger.Warnf("Keypad event %s %s failed: %v", ev.Event, ev.Button, err)
		return KeypadReply{Status: "error", State: s.controller.State(), Error: err.Error()}
	}

	switch ev.Event {
	case teleop.EventPress:
		s.holding = true
	case teleop.EventRelease:
		s.holding = false
	}
	return KeypadReply{Status: "ok", State: s.controller.State()}
}

// close releases a held button.
func (s *keypadSession) close() {
	if !s.holding {
		return
	}
	s.holding = false
	s.logger.Infof("Keypad WS closed while holding, releasing")
	if err := s.controller.HandleEvent(teleop.KeypadEvent{Event: teleop.EventRelease}); err != nil {
		s.logger.Warnf("Release on disconnect failed: %v", err)
	}
}

// KeypadWebSocketHandler serves press and release events over a websocket.
func KeypadWebSocketHandler(controller KeypadController, logger customlog.Logger) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		logger.Infof("Keypad WebSocket connected: %s", conn.RemoteAddr())
		session := newKeypadSession(controller, logger)
		defer session.close()

		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
					!errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
					logger.Errorf("Keypad WS read error: %v", err)
				}
				break
			}
			if mt != websocket.TextMessage {
				logger.Debugf("Ignoring non-text keypad WS message type: %d", mt)
				continue
			}

			if err := conn.WriteJSON(session.handle(msg)); err != nil {
				logger.Warnf("Keypad WS write failed: %v", err)
				break
			}
		}
		logger.Infof("Keypad WebSocket disconnected: %s", conn.RemoteAddr())
	}
}
