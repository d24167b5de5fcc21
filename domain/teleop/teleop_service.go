package teleop

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	customlog "github.com/open-teleop/keypad/pkg/log"
)

// Keypad event names accepted from clients.
const (
	EventPress   = "press"
	EventRelease = "release"
)

// KeypadEvent is the client-facing form of a press or release.
type KeypadEvent struct {
	Event  string `json:"event"`
	Button string `json:"button,omitempty"`
}

// TeleopService exposes the keypad to HTTP, websocket and ZeroMQ clients.
type TeleopService struct {
	keypad    *Keypad
	publisher *RateLimitedCommandPublisher
	logger    customlog.Logger
}

// NewTeleopService creates a new teleop service instance
func NewTeleopService(keypad *Keypad, publisher *RateLimitedCommandPublisher, logger customlog.Logger) *TeleopService {
	return &TeleopService{
		keypad:    keypad,
		publisher: publisher,
		logger:    logger,
	}
}

// Keypad returns the underlying keypad.
func (s *TeleopService) Keypad() *Keypad {
	return s.keypad
}

// State returns the publisher state.
func (s *TeleopService) State() PublisherState {
	return s.publisher.State()
}

// HandleEvent applies a single keypad event.
func (s *TeleopService) HandleEvent(ev KeypadEvent) error {
	switch ev.Event {
	case EventPress:
		b, err := ParseButton(ev.Button)
		if err != nil {
			return err
		}
		s.logger.Debugf("Keypad press: %s", b)
		return s.keypad.Press(b)
	case EventRelease:
		s.logger.Debugf("Keypad release")
		return s.keypad.ReleaseAll()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Event)
	}
}

// PressHandler handles POST /api/teleop/press/:button
func (s *TeleopService) PressHandler(c *fiber.Ctx) error {
	if err := s.HandleEvent(KeypadEvent{Event: EventPress, Button: c.Params("button")}); err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"status": "armed",
		"state":  s.publisher.State(),
	})
}

// ReleaseHandler handles POST /api/teleop/release
func (s *TeleopService) ReleaseHandler(c *fiber.Ctx) error {
	if err := s.HandleEvent(KeypadEvent{Event: EventRelease}); err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"status": "released",
		"state":  s.publisher.State(),
	})
}

// EventHandler handles POST /api/teleop/event with a JSON KeypadEvent body.
func (s *TeleopService) EventHandler(c *fiber.Ctx) error {
	var ev KeypadEvent
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("invalid keypad event: %v", err),
		})
	}
	if err := s.HandleEvent(ev); err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"status": "ok",
		"state":  s.publisher.State(),
	})
}

// StateHandler handles GET /api/teleop/state
func (s *TeleopService) StateHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"state":   s.publisher.State(),
		"buttons": Buttons,
		"mapping": s.keypad.Mapping(),
	})
}

func (s *TeleopService) errorResponse(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var terr *TransportError
	switch {
	case errors.Is(err, ErrUnknownButton), errors.Is(err, ErrUnknownEvent):
		code = fiber.StatusBadRequest
	case errors.As(err, &terr):
		code = fiber.StatusBadGateway
	}
	s.logger.Warnf("Keypad request failed: %v", err)
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
