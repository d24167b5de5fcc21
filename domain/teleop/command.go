package teleop

import (
	"fmt"
	"math"

	"github.com/open-teleop/keypad/pkg/wire"
)

// Command is a normalized velocity intent. Each axis is in [-1, 1]; negative
// LinearY and AngularZ steer left, positive steer right.
type Command struct {
	LinearX  float64 `json:"linear_x"`
	LinearY  float64 `json:"linear_y"`
	AngularZ float64 `json:"angular_z"`
}

// Zero is the explicit stop command.
var Zero = Command{}

// IsZero reports whether the command requests no motion.
func (c Command) IsZero() bool {
	return c == Zero
}

// Clamp limits every axis to [-1, 1]. NaN axes become 0.
func (c Command) Clamp() Command {
	return Command{
		LinearX:  clampUnit(c.LinearX),
		LinearY:  clampUnit(c.LinearY),
		AngularZ: clampUnit(c.AngularZ),
	}
}

// Twist converts the command to a geometry_msgs/Twist. The lateral and yaw
// axes are negated: ROS treats +y as left and +z rotation as counter-clockwise.
func (c Command) Twist() wire.TwistMsg {
	return wire.TwistMsg{
		Linear:  wire.Vector3{X: c.LinearX, Y: -c.LinearY},
		Angular: wire.Vector3{Z: -c.AngularZ},
	}
}

func (c Command) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", c.LinearX, c.LinearY, c.AngularZ)
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}

// PublisherState is a snapshot of a RateLimitedCommandPublisher.
type PublisherState struct {
	Armed   bool    `json:"armed"`
	Current Command `json:"current"`
	Running bool    `json:"running"`
}
