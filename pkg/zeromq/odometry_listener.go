package zeromq

import (
	"fmt"
	"sync"
	"sync/atomic"

	customlog "github.com/open-teleop/keypad/pkg/log"
	"github.com/open-teleop/keypad/pkg/processing"
	"github.com/open-teleop/keypad/pkg/wire"
	"github.com/pebbe/zmq4"
)

// OdometryHandler receives every decoded odometry sample.
type OdometryHandler func(msg wire.OdometryMsg)

// OdometryListener subscribes to the robot bridge's odometry topic
type OdometryListener struct {
	socket   *zmq4.Socket
	topic    string
	handler  OdometryHandler
	registry *processing.TopicRegistry
	logger   customlog.Logger
	running  atomic.Bool
	wg       sync.WaitGroup
}

// NewOdometryListener connects a SUB socket to address and subscribes to
// topic. registry may be nil.
func NewOdometryListener(ctx *zmq4.Context, address, topic string, handler OdometryHandler, registry *processing.TopicRegistry, logger customlog.Logger) (*OdometryListener, error) {
	socket, err := ctx.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}
	if err := socket.SetSubscribe(topic); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	if err := socket.Connect(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	logger.Infof("Odometry listener connected to %s (topic %s)", address, topic)

	return &OdometryListener{
		socket:   socket,
		topic:    topic,
		handler:  handler,
		registry: registry,
		logger:   logger,
	}, nil
}

// Start begins the receive loop
func (l *OdometryListener) Start() {
	if !l.running.CompareAndSwap(false, true) {
		return
	}

	l.wg.Add(1)
	go l.receiveLoop()
}

// Stop ends the receive loop and closes the socket.
func (l *OdometryListener) Stop() {
	if !l.running.CompareAndSwap(true, false) {
		return
	}
	l.wg.Wait()
}

func (l *OdometryListener) receiveLoop() {
	defer l.wg.Done()
	defer l.socket.Close()

	poller := zmq4.NewPoller()
	poller.Add(l.socket, zmq4.POLLIN)

	for l.running.Load() {
		sockets, err := poller.Poll(pollInterval)
		if err != nil {
			if l.running.Load() {
				l.logger.Errorf("Error polling odometry socket: %v", err)
			}
			continue
		}
		if len(sockets) == 0 {
			continue
		}

		frames, err := l.socket.RecvMessageBytes(0)
		if err != nil {
			if l.running.Load() {
				l.logger.Errorf("Error receiving odometry: %v", err)
			}
			continue
		}

		msg, ts, err := decodeOdometryFrames(frames)
		if err != nil {
			l.logger.Warnf("Dropping odometry message: %v", err)
			if l.registry != nil {
				l.registry.RecordError(l.topic)
			}
			continue
		}
		if l.registry != nil {
			l.registry.RecordMessage(l.topic, ts)
		}
		l.handler(msg)
	}
}

// decodeOdometryFrames unpacks a [topic, envelope] message.
func decodeOdometryFrames(frames [][]byte) (wire.OdometryMsg, int64, error) {
	if len(frames) != 2 {
		return wire.OdometryMsg{}, 0, fmt.Errorf("%w: expected 2 frames, got %d", ErrInvalidMessage, len(frames))
	}

	env, err := wire.DecodeEnvelope(frames[1])
	if err != nil {
		return wire.OdometryMsg{}, 0, err
	}
	if env.ContentType != wire.ContentTypeOdometry {
		return wire.OdometryMsg{}, 0, fmt.Errorf("%w: unexpected content type %s", ErrInvalidMessage, env.ContentType)
	}

	msg, err := wire.DecodeOdometry(env.Payload)
	if err != nil {
		return wire.OdometryMsg{}, 0, err
	}
	return msg, env.TimestampNs, nil
}
