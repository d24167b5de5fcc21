package teleop

import (
	"fmt"
	"strings"
	"sync"
)

// Button identifies a keypad control.
type Button string

const (
	ButtonForward  Button = "forward"
	ButtonBackward Button = "backward"
	ButtonLeft     Button = "left"
	ButtonRight    Button = "right"
	ButtonStop     Button = "stop"
)

// Buttons lists every keypad control in display order.
var Buttons = []Button{ButtonForward, ButtonBackward, ButtonLeft, ButtonRight, ButtonStop}

// ParseButton accepts a button name case-insensitively. "up" and "down" are
// accepted as aliases for forward and backward.
func ParseButton(s string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "up":
		return ButtonForward, nil
	case "backward", "down":
		return ButtonBackward, nil
	case "left":
		return ButtonLeft, nil
	case "right":
		return ButtonRight, nil
	case "stop":
		return ButtonStop, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownButton, s)
}

// Speeds are the normalized magnitudes used by the key table.
type Speeds struct {
	Linear  float64 `json:"linear"`
	Angular float64 `json:"angular"`
}

// DefaultSpeeds match the values the keypad has always shipped with.
var DefaultSpeeds = Speeds{Linear: 0.2, Angular: 1.0}

// KeyMap maps each button to a fixed command.
type KeyMap map[Button]Command

// NewKeyMap builds the table. In holonomic mode left and right strafe along
// the lateral axis at the linear speed instead of turning.
func NewKeyMap(speeds Speeds, holonomic bool) KeyMap {
	vx, wz := speeds.Linear, speeds.Angular
	m := KeyMap{
		ButtonForward:  {LinearX: vx},
		ButtonBackward: {LinearX: -vx},
		ButtonLeft:     {AngularZ: -wz},
		ButtonRight:    {AngularZ: wz},
		ButtonStop:     Zero,
	}
	if holonomic {
		m[ButtonLeft] = Command{LinearY: -vx}
		m[ButtonRight] = Command{LinearY: vx}
	}
	for b, c := range m {
		m[b] = c.Clamp()
	}
	return m
}

// CommandPublisher is the part of RateLimitedCommandPublisher the keypad drives.
type CommandPublisher interface {
	SetCommand(cmd Command)
	Arm()
	Disarm(flush *Command) error
}

// Keypad turns press and release events into publisher calls.
type Keypad struct {
	publisher CommandPublisher

	mu        sync.RWMutex
	keys      KeyMap
	speeds    Speeds
	holonomic bool
}

// NewKeypad creates a keypad driving publisher.
func NewKeypad(publisher CommandPublisher, speeds Speeds, holonomic bool) *Keypad {
	return &Keypad{
		publisher: publisher,
		keys:      NewKeyMap(speeds, holonomic),
		speeds:    speeds,
		holonomic: holonomic,
	}
}

// Press sets the mapped command and arms the publisher. Stop is a regular
// button: it holds a zero command.
func (k *Keypad) Press(b Button) error {
	k.mu.RLock()
	cmd, ok := k.keys[b]
	k.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownButton, b)
	}

	k.publisher.SetCommand(cmd)
	k.publisher.Arm()
	return nil
}

// ReleaseAll disarms the publisher and flushes an explicit zero command.
func (k *Keypad) ReleaseAll() error {
	zero := Zero
	return k.publisher.Disarm(&zero)
}

// SetSpeeds rebuilds the key table. A held command keeps its old value until
// the next press.
func (k *Keypad) SetSpeeds(speeds Speeds) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.speeds = speeds
	k.keys = NewKeyMap(speeds, k.holonomic)
}

// SetHolonomic switches left and right between turning and strafing.
func (k *Keypad) SetHolonomic(enabled bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.holonomic = enabled
	k.keys = NewKeyMap(k.speeds, enabled)
}

// Mapping returns a copy of the current key table.
func (k *Keypad) Mapping() KeyMap {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make(KeyMap, len(k.keys))
	for b, c := range k.keys {
		out[b] = c
	}
	return out
}
