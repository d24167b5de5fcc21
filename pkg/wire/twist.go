package wire

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
)

// Vector3 is a plain 3D vector.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// TwistMsg mirrors geometry_msgs/Twist.
type TwistMsg struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}

// IsZero reports whether every component is zero.
func (t TwistMsg) IsZero() bool {
	return t.Linear == (Vector3{}) && t.Angular == (Vector3{})
}

// Twist is the flatbuffer accessor for the Twist table.
type Twist struct {
	_tab flatbuffers.Table
}

func GetRootAsTwist(buf []byte, offset flatbuffers.UOffsetT) *Twist {
	n := flatbuffers.GetUOffsetT(buf[offset:])
	x := &Twist{}
	x.Init(buf, n+offset)
	return x
}

func (rcv *Twist) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *Twist) float(slot flatbuffers.VOffsetT) float64 {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(slot))
	if o != 0 {
		return rcv._tab.GetFloat64(o + rcv._tab.Pos)
	}
	return 0.0
}

func (rcv *Twist) LinearX() float64  { return rcv.float(4) }
func (rcv *Twist) LinearY() float64  { return rcv.float(6) }
func (rcv *Twist) LinearZ() float64  { return rcv.float(8) }
func (rcv *Twist) AngularX() float64 { return rcv.float(10) }
func (rcv *Twist) AngularY() float64 { return rcv.float(12) }
func (rcv *Twist) AngularZ() float64 { return rcv.float(14) }

// EncodeTwist serializes t as a Twist table.
func EncodeTwist(t TwistMsg) []byte {
	builder := flatbuffers.NewBuilder(80)
	builder.StartObject(6)
	builder.PrependFloat64Slot(0, t.Linear.X, 0.0)
	builder.PrependFloat64Slot(1, t.Linear.Y, 0.0)
	builder.PrependFloat64Slot(2, t.Linear.Z, 0.0)
	builder.PrependFloat64Slot(3, t.Angular.X, 0.0)
	builder.PrependFloat64Slot(4, t.Angular.Y, 0.0)
	builder.PrependFloat64Slot(5, t.Angular.Z, 0.0)
	builder.Finish(builder.EndObject())
	return builder.FinishedBytes()
}

// DecodeTwist reads a Twist table into a TwistMsg.
func DecodeTwist(buf []byte) (t TwistMsg, err error) {
	if len(buf) < minTableSize {
		return t, fmt.Errorf("%w: twist too short (%d bytes)", ErrMalformed, len(buf))
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: twist: %v", ErrMalformed, r)
		}
	}()

	fb := GetRootAsTwist(buf, 0)
	t.Linear = Vector3{X: fb.LinearX(), Y: fb.LinearY(), Z: fb.LinearZ()}
	t.Angular = Vector3{X: fb.AngularX(), Y: fb.AngularY(), Z: fb.AngularZ()}
	return t, nil
}
