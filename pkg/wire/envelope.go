// Package wire holds the flatbuffer tables exchanged with the robot-side
// gateway. The accessors follow the layout flatc emits for Go so the schemas
// in schema/keypad.fbs stay the single source of truth.
package wire

import (
	"errors"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
)

// ContentType tags the payload carried by an Envelope.
type ContentType int8

const (
	ContentTypeUnknown  ContentType = 0
	ContentTypeTwist    ContentType = 1
	ContentTypeOdometry ContentType = 2
)

func (c ContentType) String() string {
	switch c {
	case ContentTypeTwist:
		return "TWIST"
	case ContentTypeOdometry:
		return "ODOMETRY"
	default:
		return "UNKNOWN"
	}
}

// ErrMalformed is returned when a buffer cannot be read as the expected table.
var ErrMalformed = errors.New("malformed flatbuffer")

// minTableSize is the smallest buffer holding a root offset and a vtable.
const minTableSize = 8

// Envelope wraps every message with its topic, timestamp and content type.
//
//	table Envelope { topic:string; timestamp_ns:long; content_type:byte; payload:[ubyte]; }
type Envelope struct {
	_tab flatbuffers.Table
}

// GetRootAsEnvelope reads the root Envelope of buf without validation.
func GetRootAsEnvelope(buf []byte, offset flatbuffers.UOffsetT) *Envelope {
	n := flatbuffers.GetUOffsetT(buf[offset:])
	x := &Envelope{}
	x.Init(buf, n+offset)
	return x
}

func (rcv *Envelope) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *Envelope) Topic() []byte {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(4))
	if o != 0 {
		return rcv._tab.ByteVector(o + rcv._tab.Pos)
	}
	return nil
}

func (rcv *Envelope) TimestampNs() int64 {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(6))
	if o != 0 {
		return rcv._tab.GetInt64(o + rcv._tab.Pos)
	}
	return 0
}

func (rcv *Envelope) ContentType() ContentType {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(8))
	if o != 0 {
		return ContentType(rcv._tab.GetInt8(o + rcv._tab.Pos))
	}
	return ContentTypeUnknown
}

func (rcv *Envelope) PayloadBytes() []byte {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(10))
	if o != 0 {
		return rcv._tab.ByteVector(o + rcv._tab.Pos)
	}
	return nil
}

// BuildEnvelope serializes an envelope around an already encoded payload.
func BuildEnvelope(topic string, timestampNs int64, contentType ContentType, payload []byte) []byte {
	builder := flatbuffers.NewBuilder(64 + len(payload))
	topicOffset := builder.CreateString(topic)
	payloadOffset := builder.CreateByteVector(payload)

	builder.StartObject(4)
	builder.PrependUOffsetTSlot(0, topicOffset, 0)
	builder.PrependInt64Slot(1, timestampNs, 0)
	builder.PrependInt8Slot(2, int8(contentType), 0)
	builder.PrependUOffsetTSlot(3, payloadOffset, 0)
	builder.Finish(builder.EndObject())
	return builder.FinishedBytes()
}

// DecodedEnvelope is a copy of an envelope's fields, detached from the
// receive buffer.
type DecodedEnvelope struct {
	Topic       string
	TimestampNs int64
	ContentType ContentType
	Payload     []byte
}

// DecodeEnvelope reads an envelope, converting out-of-range reads on a
// corrupt buffer into ErrMalformed.
func DecodeEnvelope(buf []byte) (env DecodedEnvelope, err error) {
	if len(buf) < minTableSize {
		return env, fmt.Errorf("%w: envelope too short (%d bytes)", ErrMalformed, len(buf))
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: envelope: %v", ErrMalformed, r)
		}
	}()

	e := GetRootAsEnvelope(buf, 0)
	env.Topic = string(e.Topic())
	env.TimestampNs = e.TimestampNs()
	env.ContentType = e.ContentType()
	if p := e.PayloadBytes(); p != nil {
		env.Payload = append([]byte(nil), p...)
	}
	return env, nil
}
