package odometry

import (
	"math"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/keypad/pkg/wire"
)

// Pose is the latest odometry sample with the heading derived from it.
type Pose struct {
	Timestamp   time.Time       `json:"timestamp"`
	FrameID     string          `json:"frame_id"`
	Position    wire.Vector3    `json:"position"`
	Orientation wire.Quaternion `json:"orientation"`
	// HeadingDeg is the yaw in degrees, in (-180, 180], counter-clockwise
	// positive.
	HeadingDeg float64 `json:"heading_deg"`
}

// OdometryService keeps the most recent odometry sample. It is a passive
// hook: nothing in the command path reads it.
type OdometryService struct {
	mu       sync.RWMutex
	pose     Pose
	received bool
	count    int64
	now      func() time.Time
}

// NewOdometryService creates a new odometry service instance
func NewOdometryService() *OdometryService {
	return &OdometryService{
		pose: Pose{Orientation: wire.Quaternion{W: 1}},
		now:  time.Now,
	}
}

// Update stores a new sample.
func (s *OdometryService) Update(msg wire.OdometryMsg) {
	pose := Pose{
		Timestamp:   s.now(),
		FrameID:     msg.FrameID,
		Position:    msg.Position,
		Orientation: msg.Orientation,
		HeadingDeg:  HeadingDegrees(msg.Orientation),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pose = pose
	s.received = true
	s.count++
}

// Latest returns the most recent pose and whether any sample was received.
func (s *OdometryService) Latest() (Pose, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pose, s.received
}

// Count returns the number of samples received.
func (s *OdometryService) Count() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// GetPoseHandler handles GET /api/odometry
func (s *OdometryService) GetPoseHandler(c *fiber.Ctx) error {
	pose, ok := s.Latest()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no odometry received yet",
		})
	}
	return c.JSON(fiber.Map{
		"status":   "success",
		"pose":     pose,
		"received": s.Count(),
	})
}

// HeadingDegrees returns the yaw of q (ZYX convention) in degrees. q does
// not need to be normalized; a zero quaternion yields 0.
func HeadingDegrees(q wire.Quaternion) float64 {
	n := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if n == 0 || math.IsNaN(n) {
		return 0
	}
	w, x, y, z := q.W/n, q.X/n, q.Y/n, q.Z/n

	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	deg := yaw * 180 / math.Pi
	if deg <= -180 {
		deg += 360
	}
	return deg
}
