package zeromq

import (
	"time"

	"github.com/open-teleop/keypad/domain/teleop"
	"github.com/open-teleop/keypad/pkg/processing"
	"github.com/open-teleop/keypad/pkg/wire"
)

// MessagePublisher is the part of ZeroMQService the command sink needs.
type MessagePublisher interface {
	PublishMessage(topic string, message []byte) error
	Ready() bool
}

// CommandSink publishes keypad commands as Twist envelopes on the PUB socket.
type CommandSink struct {
	publisher MessagePublisher
	topic     string
	registry  *processing.TopicRegistry
	now       func() time.Time
}

// NewCommandSink creates a sink for topic. registry may be nil.
func NewCommandSink(publisher MessagePublisher, topic string, registry *processing.TopicRegistry) *CommandSink {
	return &CommandSink{
		publisher: publisher,
		topic:     topic,
		registry:  registry,
		now:       time.Now,
	}
}

// Transmit encodes cmd and sends it with the topic as the first frame.
func (s *CommandSink) Transmit(cmd teleop.Command) error {
	ts := s.now().UnixNano()
	payload := wire.EncodeTwist(cmd.Twist())
	env := wire.BuildEnvelope(s.topic, ts, wire.ContentTypeTwist, payload)

	if err := s.publisher.PublishMessage(s.topic, env); err != nil {
		if s.registry != nil {
			s.registry.RecordError(s.topic)
		}
		return err
	}
	if s.registry != nil {
		s.registry.RecordMessage(s.topic, ts)
	}
	return nil
}

// Ready reports whether the underlying publisher is running.
func (s *CommandSink) Ready() bool {
	return s.publisher.Ready()
}

// Topic returns the ROS topic commands are published on.
func (s *CommandSink) Topic() string {
	return s.topic
}
