package wire

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
)

// Quaternion is a rotation in (w, x, y, z) order.
type Quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// OdometryMsg carries the subset of nav_msgs/Odometry the keypad consumes.
type OdometryMsg struct {
	FrameID     string     `json:"frame_id"`
	Position    Vector3    `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// Odometry is the flatbuffer accessor for the Odometry table.
type Odometry struct {
	_tab flatbuffers.Table
}

func GetRootAsOdometry(buf []byte, offset flatbuffers.UOffsetT) *Odometry {
	n := flatbuffers.GetUOffsetT(buf[offset:])
	x := &Odometry{}
	x.Init(buf, n+offset)
	return x
}

func (rcv *Odometry) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *Odometry) FrameID() []byte {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(4))
	if o != 0 {
		return rcv._tab.ByteVector(o + rcv._tab.Pos)
	}
	return nil
}

func (rcv *Odometry) float(slot flatbuffers.VOffsetT, def float64) float64 {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(slot))
	if o != 0 {
		return rcv._tab.GetFloat64(o + rcv._tab.Pos)
	}
	return def
}

func (rcv *Odometry) PositionX() float64    { return rcv.float(6, 0.0) }
func (rcv *Odometry) PositionY() float64    { return rcv.float(8, 0.0) }
func (rcv *Odometry) PositionZ() float64    { return rcv.float(10, 0.0) }
func (rcv *Odometry) OrientationW() float64 { return rcv.float(12, 1.0) }
func (rcv *Odometry) OrientationX() float64 { return rcv.float(14, 0.0) }
func (rcv *Odometry) OrientationY() float64 { return rcv.float(16, 0.0) }
func (rcv *Odometry) OrientationZ() float64 { return rcv.float(18, 0.0) }

// EncodeOdometry serializes m as an Odometry table.
func EncodeOdometry(m OdometryMsg) []byte {
	builder := flatbuffers.NewBuilder(128)
	frameOffset := builder.CreateString(m.FrameID)

	builder.StartObject(8)
	builder.PrependUOffsetTSlot(0, frameOffset, 0)
	builder.PrependFloat64Slot(1, m.Position.X, 0.0)
	builder.PrependFloat64Slot(2, m.Position.Y, 0.0)
	builder.PrependFloat64Slot(3, m.Position.Z, 0.0)
	builder.PrependFloat64Slot(4, m.Orientation.W, 1.0)
	builder.PrependFloat64Slot(5, m.Orientation.X, 0.0)
	builder.PrependFloat64Slot(6, m.Orientation.Y, 0.0)
	builder.PrependFloat64Slot(7, m.Orientation.Z, 0.0)
	builder.Finish(builder.EndObject())
	return builder.FinishedBytes()
}

// DecodeOdometry reads an Odometry table into an OdometryMsg.
func DecodeOdometry(buf []byte) (m OdometryMsg, err error) {
	if len(buf) < minTableSize {
		return m, fmt.Errorf("%w: odometry too short (%d bytes)", ErrMalformed, len(buf))
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: odometry: %v", ErrMalformed, r)
		}
	}()

	fb := GetRootAsOdometry(buf, 0)
	m.FrameID = string(fb.FrameID())
	m.Position = Vector3{X: fb.PositionX(), Y: fb.PositionY(), Z: fb.PositionZ()}
	m.Orientation = Quaternion{
		W: fb.OrientationW(),
		X: fb.OrientationX(),
		Y: fb.OrientationY(),
		Z: fb.OrientationZ(),
	}
	return m, nil
}
